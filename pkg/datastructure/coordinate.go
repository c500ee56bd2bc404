package datastructure

import (
	"math"

	"github.com/paulmach/orb"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

func NewCoordinates(lat, lon []float64) []Coordinate {
	coords := make([]Coordinate, len(lat))
	for i := range lat {
		coords[i] = NewCoordinate(lat[i], lon[i])
	}
	return coords
}

// Valid reports whether the coordinate is a finite WGS84 position.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Point returns the orb point, orb uses [lon, lat] ordering.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lon: p.Lon()}
}

// Bound returns the bounding box of the coordinates.
func Bound(coords []Coordinate) orb.Bound {
	if len(coords) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: coords[0].Point(), Max: coords[0].Point()}
	for _, c := range coords[1:] {
		b = b.Extend(c.Point())
	}
	return b
}
