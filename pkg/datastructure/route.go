package datastructure

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-polyline"
)

// RoutePoint is one vertex of a route. Distance (meters) and Time (seconds)
// are cumulative from the route start, Tags are those of the way that leads
// into the point.
type RoutePoint struct {
	Coord    Coordinate     `json:"coordinate"`
	Distance float64        `json:"distance"`
	Time     float64        `json:"time"`
	Tags     TagsCollection `json:"tags,omitempty"`
}

type Route struct {
	Vehicle       string       `json:"vehicle"`
	Points        []RoutePoint `json:"points"`
	TotalDistance float64      `json:"total_distance"`
	TotalTime     float64      `json:"total_time"`
}

func (r Route) IsEmpty() bool {
	return len(r.Points) == 0
}

func (r Route) Coordinates() []Coordinate {
	coords := make([]Coordinate, 0, len(r.Points))
	for _, p := range r.Points {
		coords = append(coords, p.Coord)
	}
	return coords
}

// Polyline encodes the route geometry with the google polyline algorithm.
func (r Route) Polyline() string {
	return CreatePolyline(r.Coordinates())
}

func CreatePolyline(path []Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// GeoJSON returns the route as a feature collection with one LineString.
func (r Route) GeoJSON() ([]byte, error) {
	line := make([][]float64, 0, len(r.Points))
	for _, p := range r.Points {
		line = append(line, []float64{p.Coord.Lon, p.Coord.Lat})
	}
	feature := geojson.NewLineStringFeature(line)
	feature.SetProperty("vehicle", r.Vehicle)
	feature.SetProperty("distance", r.TotalDistance)
	feature.SetProperty("time", r.TotalTime)

	fc := geojson.NewFeatureCollection()
	fc.AddFeature(feature)
	return fc.MarshalJSON()
}
