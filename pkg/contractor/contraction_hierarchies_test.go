package contractor

import (
	"testing"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/engine/routingalgorithm"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

/*
https://jlazarsfeld.github.io/ch.150.project/sections/8-contraction/
p=0, v=1, q=2, w=3, r=4

	 p
	  \
	   \
	    10
	     \
		  v -----3----- r
		 /            /
		6            5
	   /    		/
	  q ---5----- w

every edge is bidirectional

after contracting v:

	 p ___
	| \   \___
	|  \      \ 13
	|  10          \__
	16   \            \
	|	  v -----3----- r
	|	 /          /  /
	|	6    _  9    5
	|  / _ /   		/
	 q------5----- w
*/
func newGraph() *ContractedGraph {
	g := NewContractedGraph()
	for i := 0; i < 5; i++ {
		g.AddNode(datastructure.NewCHNode(int32(i), int64(i), datastructure.NewCoordinate(0, float64(i)*0.001)))
	}
	for _, e := range [][3]float64{{0, 1, 10}, {1, 4, 3}, {1, 2, 6}, {2, 3, 5}, {3, 4, 5}} {
		from, to := int32(e[0]), int32(e[1])
		g.AddEdge(datastructure.NewEdgeCHPlain(0, e[2], e[2], to, from))
		g.AddEdge(datastructure.NewEdgeCHPlain(0, e[2], e[2], from, to))
	}
	return g
}

func shortcutsFrom(g *ContractedGraph, node int32) map[int32]float64 {
	out := make(map[int32]float64)
	for _, id := range g.GetNodeFirstOutEdges(node) {
		e := g.GetEdge(id)
		if e.IsShortcut {
			out[e.ToNodeID] = e.Weight
		}
	}
	return out
}

func TestContractNode(t *testing.T) {
	g := newGraph()
	c := NewContractor(g, zap.NewNop(), DefaultOptions())
	c.init()

	c.contractNode(1) // v
	assert.Len(t, g.Edges, 16) // 10 original + 6 shortcuts
	assert.Equal(t, 6, g.Metadata.ShortcutsCount)

	assert.Equal(t, map[int32]float64{2: 16, 4: 13}, shortcutsFrom(g, 0))
	assert.Equal(t, map[int32]float64{0: 16, 4: 9}, shortcutsFrom(g, 2))
	assert.Equal(t, map[int32]float64{0: 13, 2: 9}, shortcutsFrom(g, 4))

	for _, id := range g.GetNodeFirstOutEdges(0) {
		e := g.GetEdge(id)
		if !e.IsShortcut {
			continue
		}
		assert.Equal(t, int32(1), e.ViaNodeID)
		assert.Equal(t, int32(0), g.GetEdge(e.RemovedEdgeOne).FromNodeID)
		assert.Equal(t, e.ToNodeID, g.GetEdge(e.RemovedEdgeTwo).ToNodeID)
	}
}

func TestContractNodeWitness(t *testing.T) {
	// q -> w -> r costs 10, cheaper than q -> v -> r once v -> r costs 6.
	g := NewContractedGraph()
	for i := 0; i < 5; i++ {
		g.AddNode(datastructure.NewCHNode(int32(i), int64(i), datastructure.NewCoordinate(0, float64(i)*0.001)))
	}
	for _, e := range [][3]float64{{0, 1, 10}, {1, 4, 6}, {1, 2, 6}, {2, 3, 5}, {3, 4, 5}} {
		from, to := int32(e[0]), int32(e[1])
		g.AddEdge(datastructure.NewEdgeCHPlain(0, e[2], e[2], to, from))
		g.AddEdge(datastructure.NewEdgeCHPlain(0, e[2], e[2], from, to))
	}
	c := NewContractor(g, zap.NewNop(), DefaultOptions())
	c.init()
	c.contractNode(1)

	assert.Equal(t, map[int32]float64{0: 16}, shortcutsFrom(g, 2))
	assert.Equal(t, map[int32]float64{0: 16}, shortcutsFrom(g, 4))
}

func TestContractionRanksEveryNode(t *testing.T) {
	g := newGraph()
	var calls, last int
	opts := DefaultOptions()
	opts.OnProgress = func(done, total int) {
		calls++
		last = done
		assert.Equal(t, 5, total)
	}
	NewContractor(g, zap.NewNop(), opts).Contraction()

	require.True(t, g.IsChReady())
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, last)

	ranks := make(map[int32]struct{})
	for _, n := range g.Nodes {
		ranks[n.OrderPos] = struct{}{}
	}
	assert.Len(t, ranks, 5)

	// one component, everything reachable.
	assert.Len(t, g.SCCNodesCount, 1)
	assert.True(t, g.SCCReachable(g.SCC[0], g.SCC[4]))
}

func TestContractionKeepsDistances(t *testing.T) {
	g := newGraph()
	want := make(map[[2]int32]float64)
	for s := int32(0); s < 5; s++ {
		for d := int32(0); d < 5; d++ {
			want[[2]int32{s, d}] = plainDistance(t, g, s, d)
		}
	}
	NewContractor(g, zap.NewNop(), DefaultOptions()).Contraction()

	rt := routingalgorithm.NewRouteAlgorithm(g, 8)
	for pair, w := range want {
		path, found := rt.ShortestPath(pair[0], pair[1])
		require.True(t, found, "%v", pair)
		assert.Equal(t, w, path.Weight, "%v", pair)
	}
	assert.Equal(t, 16.0, want[[2]int32{0, 2}])
}

func plainDistance(t *testing.T, g *ContractedGraph, from, to int32) float64 {
	t.Helper()
	tree := routingalgorithm.Dijkstra[int32, int32]([]routingalgorithm.Seed[int32]{{Node: from}},
		func(node int32, visit func(routingalgorithm.Step[int32, int32])) {
			for _, id := range g.OutEdges[node] {
				e := g.Edges[id]
				visit(routingalgorithm.Step[int32, int32]{To: e.ToNodeID, Weight: e.Weight, Edge: id})
			}
		}, routingalgorithm.NewSearchOptions[int32]())
	w, ok := tree.Weight(to)
	require.True(t, ok)
	return w
}

//	1 --- 2 --- 3 ==> 4
//	|           |
//	+---- 5 ----+      way 20 is a primary road, 21 a residential shortcut
func newRoadDataSource(t *testing.T) *graph.DataSource {
	t.Helper()
	b := graph.NewBuilder(nil)
	require.NoError(t, b.AddVertex(1, datastructure.NewCoordinate(0, 0)))
	require.NoError(t, b.AddVertex(2, datastructure.NewCoordinate(0, 0.002)))
	require.NoError(t, b.AddVertex(3, datastructure.NewCoordinate(0, 0.004)))
	require.NoError(t, b.AddVertex(4, datastructure.NewCoordinate(0, 0.006)))
	require.NoError(t, b.AddVertex(5, datastructure.NewCoordinate(-0.001, 0.002)))
	require.NoError(t, b.AddWay(20, []int64{1, 2, 3}, datastructure.NewTagsCollection("highway", "primary")))
	require.NoError(t, b.AddWay(21, []int64{1, 5, 3}, datastructure.NewTagsCollection("highway", "residential")))
	require.NoError(t, b.AddWay(22, []int64{3, 4}, datastructure.NewTagsCollection("highway", "primary", "oneway", "yes")))
	// footway is not part of the car graph.
	require.NoError(t, b.AddVertex(6, datastructure.NewCoordinate(0.001, 0.006)))
	require.NoError(t, b.AddWay(23, []int64{4, 6}, datastructure.NewTagsCollection("highway", "footway")))
	return graph.NewDataSource(b.Build())
}

func TestBuildContractedGraph(t *testing.T) {
	ds := newRoadDataSource(t)
	in := interpreter.NewInterpreter()
	g := BuildContractedGraph(ds, in.Weigher(interpreter.Car))

	require.Equal(t, 5, g.GetNumNodes())
	for i, vertex := range []int64{1, 2, 3, 4, 5} {
		id, ok := g.NodeID(vertex)
		require.True(t, ok)
		assert.Equal(t, int32(i), id)
		assert.Equal(t, vertex, g.GetNode(id).VertexID)
	}
	_, ok := g.NodeID(6)
	assert.False(t, ok)

	// 4 bidirectional segments and one oneway.
	assert.Len(t, g.Edges, 9)
	n3, _ := g.NodeID(3)
	n4, _ := g.NodeID(4)
	assert.Len(t, g.GetNodeFirstInEdges(n4), 1)
	assert.Empty(t, g.GetNodeFirstOutEdges(n4))

	e := g.GetEdge(g.GetNodeFirstInEdges(n4)[0])
	assert.Equal(t, n3, e.FromNodeID)
	assert.Equal(t, int64(22), e.WayID)
	assert.True(t, e.Forward)
	assert.Positive(t, e.Dist)
	assert.Equal(t, ds.Generation(), g.Metadata.Generation)
}

func TestContractedRoadGraphMatchesGraphRouter(t *testing.T) {
	ds := newRoadDataSource(t)
	w := interpreter.NewInterpreter().Weigher(interpreter.Car)
	g := BuildContractedGraph(ds, w)
	NewContractor(g, zap.NewNop(), DefaultOptions()).Contraction()

	plain := routingalgorithm.NewGraphRouter(ds, w)
	rt := routingalgorithm.NewRouteAlgorithm(g, 8)
	for _, from := range []int64{1, 2, 3, 4, 5} {
		for _, to := range []int64{1, 2, 3, 4, 5} {
			want, ok := plain.ShortestPath(from, to)
			s, _ := g.NodeID(from)
			d, _ := g.NodeID(to)
			got, found := rt.ShortestPath(s, d)
			require.Equal(t, ok, found, "%d->%d", from, to)
			if ok {
				assert.InDelta(t, want.Weight, got.Weight, 1e-9, "%d->%d", from, to)
			}
		}
	}

	// 4 is a sink: its component reaches nothing else.
	n1, _ := g.NodeID(1)
	n4, _ := g.NodeID(4)
	assert.True(t, g.SCCReachable(g.SCC[n1], g.SCC[n4]))
	assert.False(t, g.SCCReachable(g.SCC[n4], g.SCC[n1]))
}
