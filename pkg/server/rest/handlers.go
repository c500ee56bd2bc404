package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/router"
	"github.com/OsmSharp/ui-sub009/pkg/util"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/prometheus/client_golang/prometheus"
)

type NavigationService interface {
	ResolvePoint(ctx context.Context, vehicle string, coord datastructure.Coordinate) (router.RouterPoint, error)
	ShortestPathETA(ctx context.Context, vehicle string, src, dst datastructure.Coordinate, simplify bool) (datastructure.Route, error)
	Vehicles(ctx context.Context) []string
}

type NavigationHandler struct {
	svc          NavigationService
	promeMetrics *metrics
	validate     *validator.Validate
	trans        ut.Translator
}

func newNavigationHandler(svc NavigationService, m *metrics) *NavigationHandler {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return &NavigationHandler{svc: svc, promeMetrics: m, validate: validate, trans: trans}
}

func NavigatorRouter(r *chi.Mux, svc NavigationService, m *metrics) {
	handler := newNavigationHandler(svc, m)

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Get("/resolve", handler.resolve)
			r.Post("/route", handler.shortestPathETA)
			r.Get("/vehicles", handler.vehicles)
		})
	})
}

type Coord struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (c Coord) coordinate() datastructure.Coordinate {
	return datastructure.NewCoordinate(c.Lat, c.Lon)
}

type ResolveRequest struct {
	Vehicle string `validate:"required,oneof=pedestrian bicycle moped motorcycle car smalltruck bigtruck bus"`
	Coord
}

type ResolveResponse struct {
	Vehicle  string  `json:"vehicle"`
	Snapped  Coord   `json:"snapped"`
	WayID    int64   `json:"way_id"`
	Distance float64 `json:"distance"`
}

func (h *NavigationHandler) validationFailed(w http.ResponseWriter, r *http.Request, data any) bool {
	if err := h.validate.Struct(data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return true
	}
	return false
}

// resolve snaps ?lat=&lon= onto the closest road usable by ?vehicle=.
func (h *NavigationHandler) resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if err := errors.Join(errLat, errLon); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	data := ResolveRequest{Vehicle: q.Get("vehicle"), Coord: Coord{Lat: lat, Lon: lon}}
	if h.validationFailed(w, r, data) {
		return
	}

	rp, err := h.svc.ResolvePoint(r.Context(), data.Vehicle, data.coordinate())
	if err != nil {
		render.Render(w, r, ErrFromService(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, ResolveResponse{
		Vehicle:  rp.Vehicle.String(),
		Snapped:  Coord{Lat: rp.Snapped.Lat, Lon: rp.Snapped.Lon},
		WayID:    rp.WayID,
		Distance: util.RoundFloat(rp.Distance, 2),
	})
}

type ShortestPathRequest struct {
	Vehicle  string `json:"vehicle" validate:"required,oneof=pedestrian bicycle moped motorcycle car smalltruck bigtruck bus"`
	From     Coord  `json:"from"`
	To       Coord  `json:"to"`
	Simplify bool   `json:"simplify"`
	// GeoJSON answers with a FeatureCollection instead of the json route.
	GeoJSON bool `json:"geojson"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	return nil
}

type ShortestPathResponse struct {
	Vehicle string                     `json:"vehicle"`
	Path    string                     `json:"path"`
	Dist    float64                    `json:"distance"`
	ETA     float64                    `json:"ETA"`
	Points  []datastructure.RoutePoint `json:"points"`
}

func NewShortestPathResponse(route datastructure.Route) *ShortestPathResponse {
	return &ShortestPathResponse{
		Vehicle: route.Vehicle,
		Path:    route.Polyline(),
		Dist:    util.RoundFloat(route.TotalDistance, 2),
		ETA:     util.RoundFloat(route.TotalTime, 2),
		Points:  route.Points,
	}
}

// shortestPathETA answers POST /api/route with the fastest route between
// two coordinates.
func (h *NavigationHandler) shortestPathETA(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if h.validationFailed(w, r, *data) {
		return
	}

	route, err := h.svc.ShortestPathETA(r.Context(), data.Vehicle, data.From.coordinate(), data.To.coordinate(), data.Simplify)
	h.promeMetrics.SPQueryCount.With(prometheus.Labels{
		"vehicle": data.Vehicle, "found": strconv.FormatBool(err == nil),
	}).Inc()
	if err != nil {
		render.Render(w, r, ErrFromService(err))
		return
	}

	if data.GeoJSON {
		fc, err := route.GeoJSON()
		if err != nil {
			render.Render(w, r, ErrFromService(err))
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(fc)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewShortestPathResponse(route))
}

func (h *NavigationHandler) vehicles(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, render.M{"vehicles": h.svc.Vehicles(r.Context())})
}
