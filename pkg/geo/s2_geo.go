package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/golang/geo/s2"
)

var ErrMalformedGeometry = errors.New("malformed geometry")

type ProjectionKind uint8

const (
	LineProjection ProjectionKind = iota
	PolygonBoundaryProjection
)

// Projection is the closest approach of a query point to a line geometry.
// Segment i runs from points[i] to points[i+1], Fraction is the position of
// Coord along that segment in [0, 1].
type Projection struct {
	Kind         ProjectionKind
	Coord        datastructure.Coordinate
	SegmentIndex int
	Fraction     float64
	Distance     float64
}

// ProjectToSegment projects p onto the great circle segment a-b.
func ProjectToSegment(a, b, p datastructure.Coordinate) Projection {
	segLen := GreatCircleDistance(a, b)
	if segLen == 0 {
		return Projection{Coord: a, Distance: GreatCircleDistance(a, p)}
	}

	projection := s2.Project(s2Point(p), s2Point(a), s2Point(b))
	ll := s2.LatLngFromPoint(projection)
	coord := datastructure.NewCoordinate(ll.Lat.Degrees(), ll.Lng.Degrees())

	fraction := GreatCircleDistance(a, coord) / segLen
	if fraction > 1 {
		fraction = 1
	}
	return Projection{
		Coord:    coord,
		Fraction: fraction,
		Distance: GreatCircleDistance(p, coord),
	}
}

// ClosestPointOnLine finds the closest point of the polyline (or polygon ring
// when closed is true) to p.
func ClosestPointOnLine(points []datastructure.Coordinate, p datastructure.Coordinate, closed bool) (Projection, error) {
	if len(points) < 2 {
		return Projection{}, fmt.Errorf("%w: %d points", ErrMalformedGeometry, len(points))
	}
	for i, c := range points {
		if !c.Valid() {
			return Projection{}, fmt.Errorf("%w: invalid coordinate at %d", ErrMalformedGeometry, i)
		}
	}

	best := Projection{Distance: math.MaxFloat64}
	for i := 0; i < len(points)-1; i++ {
		proj := ProjectToSegment(points[i], points[i+1], p)
		if proj.Distance < best.Distance {
			best = proj
			best.SegmentIndex = i
		}
	}
	if closed {
		best.Kind = PolygonBoundaryProjection
	}
	return best, nil
}

// PointLinePerpendicularDistance returns the distance in meters from p to segment a-b.
func PointLinePerpendicularDistance(a, b, p datastructure.Coordinate) float64 {
	return ProjectToSegment(a, b, p).Distance
}
