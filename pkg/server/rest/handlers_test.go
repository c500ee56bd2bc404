package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/OsmSharp/ui-sub009/pkg/router"
	"github.com/OsmSharp/ui-sub009/pkg/server"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	resolveErr error
	routeErr   error
	lastVeh    string
}

func (f *fakeService) ResolvePoint(ctx context.Context, vehicle string, coord datastructure.Coordinate) (router.RouterPoint, error) {
	f.lastVeh = vehicle
	if f.resolveErr != nil {
		return router.RouterPoint{}, f.resolveErr
	}
	return router.RouterPoint{
		Vehicle:  interpreter.Car,
		Coord:    coord,
		Snapped:  datastructure.NewCoordinate(coord.Lat, 0.001),
		WayID:    20,
		Distance: 12.3456,
	}, nil
}

func (f *fakeService) ShortestPathETA(ctx context.Context, vehicle string, src, dst datastructure.Coordinate, simplify bool) (datastructure.Route, error) {
	f.lastVeh = vehicle
	if f.routeErr != nil {
		return datastructure.Route{}, f.routeErr
	}
	return datastructure.Route{
		Vehicle: vehicle,
		Points: []datastructure.RoutePoint{
			{Coord: src},
			{Coord: dst, Distance: 111.2046, Time: 8.0064},
		},
		TotalDistance: 111.2046,
		TotalTime:     8.0064,
	}, nil
}

func (f *fakeService) Vehicles(ctx context.Context) []string {
	return []string{"pedestrian", "car"}
}

func newTestServer(svc NavigationService) http.Handler {
	return NewServer([]string{"http://*"}, svc, prometheus.NewRegistry())
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResolveHandler(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodGet, "/api/resolve?vehicle=car&lat=0.0005&lon=0.001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "car", resp.Vehicle)
	assert.Equal(t, int64(20), resp.WayID)
	assert.Equal(t, 12.35, resp.Distance)
	assert.Equal(t, "car", svc.lastVeh)
}

func TestResolveHandlerBadInput(t *testing.T) {
	h := newTestServer(&fakeService{})

	for name, target := range map[string]string{
		"missing lat":      "/api/resolve?vehicle=car&lon=0.001",
		"lat out of range": "/api/resolve?vehicle=car&lat=95&lon=0.001",
		"unknown vehicle":  "/api/resolve?vehicle=hovercraft&lat=0&lon=0",
		"missing vehicle":  "/api/resolve?lat=0&lon=0",
	} {
		rec := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestResolveHandlerNotFound(t *testing.T) {
	svc := &fakeService{resolveErr: server.WrapErrorf(router.ErrUnroutableLocation, server.ErrNotFound, "no road near the point")}
	rec := do(t, newTestServer(svc), http.MethodGet, "/api/resolve?vehicle=car&lat=1&lon=1", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no road near the point", resp.ErrorText)
}

func TestShortestPathHandler(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodPost, "/api/route", ShortestPathRequest{
		Vehicle: "car",
		From:    Coord{Lat: 0, Lon: 0},
		To:      Coord{Lat: 0.001, Lon: 0},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ShortestPathResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "car", resp.Vehicle)
	assert.Equal(t, 111.2, resp.Dist)
	assert.Equal(t, 8.01, resp.ETA)
	assert.Len(t, resp.Points, 2)
	assert.NotEmpty(t, resp.Path)
}

func TestShortestPathHandlerGeoJSON(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodPost, "/api/route", ShortestPathRequest{
		Vehicle: "car",
		From:    Coord{Lat: 0, Lon: 0},
		To:      Coord{Lat: 0.001, Lon: 0},
		GeoJSON: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "FeatureCollection")
	assert.Contains(t, rec.Body.String(), "LineString")
}

func TestShortestPathHandlerErrors(t *testing.T) {
	noPath := server.WrapErrorf(router.ErrNoPathFound, server.ErrNotFound, "no car route")
	rec := do(t, newTestServer(&fakeService{routeErr: noPath}), http.MethodPost, "/api/route",
		ShortestPathRequest{Vehicle: "car"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	internal := errors.New("corrupt shortcut")
	rec = do(t, newTestServer(&fakeService{routeErr: internal}), http.MethodPost, "/api/route",
		ShortestPathRequest{Vehicle: "car"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "corrupt shortcut")

	req := httptest.NewRequest(http.MethodPost, "/api/route", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	out := httptest.NewRecorder()
	newTestServer(&fakeService{}).ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestVehiclesHandler(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}), http.MethodGet, "/api/vehicles", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Vehicles []string `json:"vehicles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"pedestrian", "car"}, resp.Vehicles)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(&fakeService{})
	do(t, h, http.MethodPost, "/api/route", ShortestPathRequest{Vehicle: "car"})

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `router_shortestpath_query_count{found="true",vehicle="car"} 1`)
	assert.Contains(t, body, `path="/api/route"`)
}
