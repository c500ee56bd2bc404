package geo

import (
	"math"
	"testing"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectToSegment(t *testing.T) {
	a := datastructure.NewCoordinate(47.667324, -122.118989)
	b := datastructure.NewCoordinate(47.667338, -122.121784)
	p := datastructure.NewCoordinate(47.667347, -122.120561)

	proj := ProjectToSegment(a, b, p)
	assert.InDelta(t, 0.5624, proj.Fraction, 0.01)
	assert.Less(t, proj.Distance, 2.5)
	assert.InDelta(t, GreatCircleDistance(a, b),
		GreatCircleDistance(a, proj.Coord)+GreatCircleDistance(proj.Coord, b), 1e-3)
}

func TestProjectToSegmentClampsToEndpoint(t *testing.T) {
	a := datastructure.NewCoordinate(0, 0)
	b := datastructure.NewCoordinate(0, 0.001)
	p := datastructure.NewCoordinate(0, -0.001)

	proj := ProjectToSegment(a, b, p)
	assert.InDelta(t, 0.0, proj.Fraction, 1e-9)
	assert.InDelta(t, 0, GreatCircleDistance(a, proj.Coord), 1e-6)
}

func TestClosestPointOnLine(t *testing.T) {
	line := []datastructure.Coordinate{
		datastructure.NewCoordinate(0, 0),
		datastructure.NewCoordinate(0, 0.001),
		datastructure.NewCoordinate(0.001, 0.001),
	}
	p := datastructure.NewCoordinate(0.0005, 0.0012)

	proj, err := ClosestPointOnLine(line, p, false)
	require.NoError(t, err)
	assert.Equal(t, 1, proj.SegmentIndex)
	assert.Equal(t, LineProjection, proj.Kind)
	assert.InDelta(t, 0.5, proj.Fraction, 0.01)

	_, err = ClosestPointOnLine(line[:1], p, false)
	assert.ErrorIs(t, err, ErrMalformedGeometry)

	bad := []datastructure.Coordinate{line[0], datastructure.NewCoordinate(math.NaN(), 0)}
	_, err = ClosestPointOnLine(bad, p, false)
	assert.ErrorIs(t, err, ErrMalformedGeometry)
}

func TestGreatCircleDistance(t *testing.T) {
	a := datastructure.NewCoordinate(-7.7692, 110.3781)
	b := datastructure.NewCoordinate(-7.7829, 110.3671)

	assert.InDelta(t, 1946.63, GreatCircleDistance(a, b), 0.01)
	assert.InDelta(t, 1946.63, GreatCircleDistance(b, a), 0.01)
	assert.InDelta(t, 111.195, GreatCircleDistance(datastructure.NewCoordinate(0, 0), datastructure.NewCoordinate(0, 0.001)), 0.001)
	assert.Zero(t, GreatCircleDistance(a, a))
}
