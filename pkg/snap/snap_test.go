package snap

import (
	"testing"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/geo"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/OsmSharp/ui-sub009/pkg/spatialindex"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const metersPerDegree = 111195.0

// footway 20m north of the origin, residential 50m south of it.
func newTestGraph(t *testing.T) *graph.BaseGraph {
	t.Helper()
	north := 20 / metersPerDegree
	south := -50 / metersPerDegree
	b := graph.NewBuilder(nil)
	require.NoError(t, b.AddVertex(1, datastructure.NewCoordinate(north, -0.001)))
	require.NoError(t, b.AddVertex(2, datastructure.NewCoordinate(north, 0.001)))
	require.NoError(t, b.AddVertex(3, datastructure.NewCoordinate(south, -0.001)))
	require.NoError(t, b.AddVertex(4, datastructure.NewCoordinate(south, 0.001)))
	require.NoError(t, b.AddWay(1, []int64{1, 2}, datastructure.NewTagsCollection("highway", "footway")))
	require.NoError(t, b.AddWay(2, []int64{3, 4}, datastructure.NewTagsCollection("highway", "residential")))
	return b.Build()
}

func newTestResolver(t *testing.T, g *graph.BaseGraph) *PointResolver {
	t.Helper()
	idx := spatialindex.NewRtree()
	require.NoError(t, spatialindex.IndexWays(g, idx))
	return NewPointResolver(idx, interpreter.NewInterpreter(), zap.NewNop())
}

func TestResolveSkipsUntraversableWays(t *testing.T) {
	g := newTestGraph(t)
	r := newTestResolver(t, g)
	origin := datastructure.NewCoordinate(0, 0)

	res, found, err := r.ResolveAndAddNode(graph.NewDataSource(g), interpreter.Car, origin, 100, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), res.Way.ID)
	assert.InDelta(t, 50, res.Projection.Distance, 0.5)
	assert.Equal(t, datastructure.ResolvedVertex, res.Vertex.Kind)

	res, found, err = r.ResolveAndAddNode(graph.NewDataSource(g), interpreter.Pedestrian, origin, 100, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), res.Way.ID)
}

func TestResolveSplicesCopy(t *testing.T) {
	g := newTestGraph(t)
	r := newTestResolver(t, g)
	ds := graph.NewDataSource(g)

	res, found, err := r.ResolveAndAddNode(ds, interpreter.Car, datastructure.NewCoordinate(0, 0), 100, nil)
	require.NoError(t, err)
	require.True(t, found)

	way, _ := ds.Way(2)
	assert.Equal(t, []int64{3, res.Vertex.ID, 4}, way.Nodes)
	assert.Equal(t, "yes", ds.Tags().Get(way.TagsID).Find(interpreter.ResolvedMarkerKey))
	assert.Equal(t, 0, res.Vertex.Origin.SegmentIndex)
	assert.InDelta(t, 0.5, res.Vertex.Origin.Fraction, 1e-3)

	baseWay, _ := g.Way(2)
	assert.Equal(t, []int64{3, 4}, baseWay.Nodes)
}

func TestResolveIsIdempotent(t *testing.T) {
	g := newTestGraph(t)
	r := newTestResolver(t, g)
	ds := graph.NewDataSource(g)
	coord := datastructure.NewCoordinate(0, 0.0003)

	first, found, err := r.ResolveAndAddNode(ds, interpreter.Car, coord, 100, nil)
	require.NoError(t, err)
	require.True(t, found)
	second, found, err := r.ResolveAndAddNode(ds, interpreter.Car, coord, 100, nil)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, first.Vertex.ID, second.Vertex.ID)
	assert.Equal(t, first.Vertex.Coord, second.Vertex.Coord)
	way, _ := ds.Way(2)
	assert.Len(t, way.Nodes, 3)
}

func TestResolveOnExistingVertex(t *testing.T) {
	g := newTestGraph(t)
	r := newTestResolver(t, g)
	ds := graph.NewDataSource(g)
	v3, _ := g.Vertex(3)
	gen := ds.Generation()

	res, found, err := r.ResolveAndAddNode(ds, interpreter.Car, v3.Coord, 100, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(3), res.Vertex.ID)
	assert.Equal(t, gen, ds.Generation())
}

func TestResolveNothingInRadius(t *testing.T) {
	g := newTestGraph(t)
	r := newTestResolver(t, g)

	_, found, err := r.ResolveAndAddNode(graph.NewDataSource(g), interpreter.Car, datastructure.NewCoordinate(0, 0), 30, nil)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = r.ResolveAndAddNode(graph.NewDataSource(g), interpreter.Car, datastructure.NewCoordinate(0, 0), 100,
		func(way datastructure.Way, tags datastructure.TagsCollection) bool { return tags.Find("highway") == "primary" })
	require.NoError(t, err)
	assert.False(t, found)
}

type fixedIndex []int64

func (f fixedIndex) Query(orb.Bound) []int64 { return f }

func TestResolveSkipsMalformedGeometry(t *testing.T) {
	g := newTestGraph(t)
	ds := graph.NewDataSource(g)
	broken := ds.AddVertex(datastructure.NewCoordinate(200, 0), datastructure.ResolvedVertex, datastructure.ResolvedOrigin{})
	wayTags := ds.Tags().Add(datastructure.NewTagsCollection("highway", "primary"))
	bad, err := ds.AddWay(datastructure.Way{Nodes: []int64{broken.ID, 3}, TagsID: wayTags}, 99)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	r := NewPointResolver(fixedIndex{bad.ID, 2}, interpreter.NewInterpreter(), zap.New(core))

	res, found, err := r.ResolveAndAddNode(ds, interpreter.Car, datastructure.NewCoordinate(0, 0), 100, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), res.Way.ID)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed way geometry").Len())
}

func TestResolveOnWayReplaysInFork(t *testing.T) {
	g := newTestGraph(t)
	r := newTestResolver(t, g)
	shared := graph.NewDataSource(g)
	coord := datastructure.NewCoordinate(0, 0.0002)

	first, found, err := r.ResolveAndAddNode(shared.Fork(), interpreter.Car, coord, 100, nil)
	require.NoError(t, err)
	require.True(t, found)

	fork := shared.Fork()
	replayed, found, err := r.ResolveOnWay(fork, first.Way.ID, coord)
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 0, geo.GreatCircleDistance(first.Vertex.Coord, replayed.Vertex.Coord), 1e-6)

	sharedWay, _ := shared.Way(2)
	assert.Len(t, sharedWay.Nodes, 2)
}

func TestSpliceNextToArrivalEndpointShortensDeparture(t *testing.T) {
	b := graph.NewBuilder(nil)
	require.NoError(t, b.AddVertex(2, datastructure.NewCoordinate(0, 0.001)))
	require.NoError(t, b.AddVertex(3, datastructure.NewCoordinate(0, 0.002)))
	require.NoError(t, b.AddWay(10, []int64{2, 3}, datastructure.NewTagsCollection("highway", "residential")))
	g := b.Build()

	// 2 converted: its arm on way 10 has an arrival and a departure clone.
	ds := graph.NewDataSource(g)
	c2, _ := ds.Coordinate(2)
	origin := datastructure.ResolvedOrigin{WayID: 10, CloneOf: 2}
	arrival := ds.AddVertex(c2, datastructure.EndpointVertex, origin)
	departure := ds.AddVertex(c2, datastructure.EndpointVertex, origin)
	other := ds.AddVertex(c2, datastructure.EndpointVertex, datastructure.ResolvedOrigin{WayID: 11, CloneOf: 2})
	require.NoError(t, ds.PutWay(datastructure.Way{ID: 10, Nodes: []int64{arrival.ID, 3}}))
	flags := datastructure.EdgeWeightedNodeDeparture | datastructure.EdgeOneWayForward
	own, err := ds.AddEdge(datastructure.Edge{From: departure.ID, To: 3, Flags: flags})
	require.NoError(t, err)
	foreign, err := ds.AddEdge(datastructure.Edge{From: other.ID, To: 3, Flags: flags})
	require.NoError(t, err)

	r := newTestResolver(t, g)
	fork := ds.Fork()
	res, found, err := r.ResolveOnWay(fork, 10, datastructure.NewCoordinate(0, 0.0011))
	require.NoError(t, err)
	require.True(t, found)

	way, _ := fork.Way(10)
	assert.Equal(t, []int64{arrival.ID, res.Vertex.ID, 3}, way.Nodes)
	e, _ := fork.Edge(own.ID)
	assert.Equal(t, res.Vertex.ID, e.To)
	e, _ = fork.Edge(foreign.ID)
	assert.Equal(t, int64(3), e.To)

	parent, _ := ds.Edge(own.ID)
	assert.Equal(t, int64(3), parent.To)

	// a point on the converted vertex gets a vertex of its own.
	onVertex, found, err := r.ResolveOnWay(ds.Fork(), 10, c2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, datastructure.ResolvedVertex, onVertex.Vertex.Kind)
	assert.NotEqual(t, arrival.ID, onVertex.Vertex.ID)
}
