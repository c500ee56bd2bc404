package routingalgorithm_test

import (
	"math"
	"testing"

	lddlch "github.com/LdDl/ch"
	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/engine/routingalgorithm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

type testEdge struct {
	from, to int32
	weight   float64
}

func newContractedGraph(n int, edges []testEdge) *contractor.ContractedGraph {
	g := contractor.NewContractedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(datastructure.NewCHNode(int32(i), int64(i), datastructure.NewCoordinate(0, float64(i)*0.001)))
	}
	for _, e := range edges {
		g.AddEdge(datastructure.NewEdgeCHPlain(0, e.weight, e.weight, e.to, e.from))
	}
	return g
}

func bidirectional(edges ...testEdge) []testEdge {
	out := make([]testEdge, 0, 2*len(edges))
	for _, e := range edges {
		out = append(out, e, testEdge{from: e.to, to: e.from, weight: e.weight})
	}
	return out
}

/*
https://jlazarsfeld.github.io/ch.150.project/sections/8-contraction/
p=0, v=1, q=2, w=3, r=4, f=5

	 p
	  \
	   \
	    10
	     \
		  v -----3----- r
		 /            /
		6            5
	   /    		/
	  q ---5----- w ----15---- f

every edge is bidirectional
*/
func pvqwrfEdges() []testEdge {
	return bidirectional(
		testEdge{0, 1, 10},
		testEdge{1, 4, 3},
		testEdge{1, 2, 6},
		testEdge{2, 3, 5},
		testEdge{3, 4, 5},
		testEdge{3, 5, 15},
	)
}

func contract(t *testing.T, g *contractor.ContractedGraph) {
	t.Helper()
	contractor.NewContractor(g, zap.NewNop(), contractor.DefaultOptions()).Contraction()
	require.True(t, g.IsChReady())
}

// plainDijkstra is the reference: a one-to-one search over the original edges.
func plainDijkstra(g *contractor.ContractedGraph, from, to int32) (float64, bool) {
	tree := routingalgorithm.Dijkstra[int32, int32]([]routingalgorithm.Seed[int32]{{Node: from}},
		func(node int32, visit func(routingalgorithm.Step[int32, int32])) {
			for _, id := range g.GetNodeFirstOutEdges(node) {
				e := g.GetEdge(id)
				if !e.IsShortcut {
					visit(routingalgorithm.Step[int32, int32]{To: e.ToNodeID, Weight: e.Weight, Edge: id})
				}
			}
		}, routingalgorithm.NewSearchOptions[int32]())
	return tree.Weight(to)
}

func TestShortestPathBidirectionalDijkstraCH(t *testing.T) {
	g := newContractedGraph(6, pvqwrfEdges())
	contract(t, g)
	rt := routingalgorithm.NewRouteAlgorithm(g, 16)

	path, found := rt.ShortestPath(0, 5)
	require.True(t, found)
	assert.Equal(t, 33.0, path.Weight)
	assert.InDelta(t, 33.0, path.Dist(), 1e-9)

	// P(0) -> V(1) -> R(4) -> W(3) -> F(5)
	require.Len(t, path.Edges, 4)
	assert.Equal(t, int32(0), path.Edges[0].FromNodeID)
	assert.Equal(t, int32(1), path.Edges[0].ToNodeID)
	assert.Equal(t, int32(4), path.Edges[1].ToNodeID)
	assert.Equal(t, int32(3), path.Edges[2].ToNodeID)
	assert.Equal(t, int32(5), path.Edges[3].ToNodeID)
	for _, e := range path.Edges {
		assert.False(t, e.IsShortcut)
	}
}

func TestShortestPathSameNode(t *testing.T) {
	g := newContractedGraph(6, pvqwrfEdges())
	contract(t, g)
	rt := routingalgorithm.NewRouteAlgorithm(g, 0)

	path, found := rt.ShortestPath(3, 3)
	require.True(t, found)
	assert.Equal(t, 0.0, path.Weight)
	assert.Empty(t, path.Edges)
}

func TestRanksAreUnique(t *testing.T) {
	g := newContractedGraph(6, pvqwrfEdges())
	contract(t, g)

	seen := make(map[int32]struct{})
	for i := 0; i < g.GetNumNodes(); i++ {
		pos := g.GetNode(int32(i)).OrderPos
		assert.GreaterOrEqual(t, pos, int32(0))
		_, dup := seen[pos]
		assert.False(t, dup, "rank %d assigned twice", pos)
		seen[pos] = struct{}{}
	}
}

func TestChainMatchesPlainDijkstra(t *testing.T) {
	// 0 - 1 - 2 - 3 - 4
	g := newContractedGraph(5, bidirectional(
		testEdge{0, 1, 2},
		testEdge{1, 2, 3},
		testEdge{2, 3, 4},
		testEdge{3, 4, 5},
	))
	want, ok := plainDijkstra(g, 0, 4)
	require.True(t, ok)
	contract(t, g)

	path, found := routingalgorithm.NewRouteAlgorithm(g, 16).ShortestPath(0, 4)
	require.True(t, found)
	assert.Equal(t, want, path.Weight)
	assert.Equal(t, 14.0, path.Weight)
	assert.Len(t, path.Edges, 4)
}

func TestNoPathReturnsNotFound(t *testing.T) {
	// 0 -> 1 only.
	g := newContractedGraph(3, []testEdge{{0, 1, 1}, {2, 1, 1}})
	contract(t, g)
	rt := routingalgorithm.NewRouteAlgorithm(g, 16)

	_, found := rt.ShortestPath(0, 1)
	assert.True(t, found)
	_, found = rt.ShortestPath(1, 0)
	assert.False(t, found)
	_, found = rt.ShortestPath(0, 2)
	assert.False(t, found)
}

func TestMultiSeedPicksCheapestPair(t *testing.T) {
	g := newContractedGraph(6, pvqwrfEdges())
	contract(t, g)
	rt := routingalgorithm.NewRouteAlgorithm(g, 16)

	// from p (offset 0) or q (offset 20) to f; q->w->f is 20, p->...->f is 33.
	path, found := rt.ShortestPathBiDijkstraCH(
		[]routingalgorithm.Seed[int32]{{Node: 0, Weight: 0}, {Node: 2, Weight: 20}},
		[]routingalgorithm.Seed[int32]{{Node: 5, Weight: 1}},
	)
	require.True(t, found)
	assert.Equal(t, int32(0), path.Source)
	assert.Equal(t, int32(5), path.Target)
	assert.Equal(t, 34.0, path.Weight)

	path, found = rt.ShortestPathBiDijkstraCH(
		[]routingalgorithm.Seed[int32]{{Node: 0, Weight: 0}, {Node: 2, Weight: 5}},
		[]routingalgorithm.Seed[int32]{{Node: 5}},
	)
	require.True(t, found)
	assert.Equal(t, int32(2), path.Source)
	assert.Equal(t, 25.0, path.Weight)
}

func randomEdges(r *rand.Rand, n, m int) []testEdge {
	seen := make(map[[2]int32]struct{})
	edges := make([]testEdge, 0, m)
	for len(edges) < m {
		from, to := int32(r.Intn(n)), int32(r.Intn(n))
		if from == to {
			continue
		}
		if _, ok := seen[[2]int32{from, to}]; ok {
			continue
		}
		seen[[2]int32{from, to}] = struct{}{}
		edges = append(edges, testEdge{from, to, float64(1 + r.Intn(20))})
	}
	return edges
}

func TestAllPairsMatchPlainDijkstra(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		n := 30
		g := newContractedGraph(n, randomEdges(r, n, 90))

		want := make(map[[2]int32]float64)
		for s := int32(0); s < int32(n); s++ {
			for d := int32(0); d < int32(n); d++ {
				if w, ok := plainDijkstra(g, s, d); ok {
					want[[2]int32{s, d}] = w
				}
			}
		}

		contract(t, g)
		rt := routingalgorithm.NewRouteAlgorithm(g, 64)
		for s := int32(0); s < int32(n); s++ {
			for d := int32(0); d < int32(n); d++ {
				path, found := rt.ShortestPath(s, d)
				w, ok := want[[2]int32{s, d}]
				require.Equal(t, ok, found, "round %d %d->%d", round, s, d)
				if !ok {
					continue
				}
				assert.InDelta(t, w, path.Weight, 1e-9, "round %d %d->%d", round, s, d)

				sum := 0.0
				at := s
				for _, e := range path.Edges {
					assert.Equal(t, at, e.FromNodeID)
					at = e.ToNodeID
					sum += e.Weight
				}
				assert.Equal(t, d, at)
				assert.InDelta(t, w, sum, 1e-9)
			}
		}
	}
}

func TestUnpackShortcutRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	g := newContractedGraph(40, randomEdges(r, 40, 140))
	contract(t, g)
	rt := routingalgorithm.NewRouteAlgorithm(g, 8)

	shortcuts := 0
	for id := int32(0); id < int32(len(g.Edges)); id++ {
		sc := g.GetEdge(id)
		if !sc.IsShortcut {
			continue
		}
		shortcuts++

		parts := rt.UnpackEdge(id)
		require.GreaterOrEqual(t, len(parts), 2)
		assert.Equal(t, sc.FromNodeID, parts[0].FromNodeID)
		assert.Equal(t, sc.ToNodeID, parts[len(parts)-1].ToNodeID)

		sum := 0.0
		for i, p := range parts {
			assert.False(t, p.IsShortcut)
			if i > 0 {
				assert.Equal(t, parts[i-1].ToNodeID, p.FromNodeID)
			}
			sum += p.Weight
		}
		assert.InDelta(t, sc.Weight, sum, 1e-9)
	}
	assert.Positive(t, shortcuts)
}

func TestMatchesReferenceContractionHierarchies(t *testing.T) {
	r := rand.New(rand.NewSource(2024))
	n := 50
	edges := randomEdges(r, n, 200)

	ref := lddlch.Graph{}
	for i := 0; i < n; i++ {
		require.NoError(t, ref.CreateVertex(int64(i)))
	}
	for _, e := range edges {
		require.NoError(t, ref.AddEdge(int64(e.from), int64(e.to), e.weight))
	}
	ref.PrepareContractionHierarchies()

	g := newContractedGraph(n, edges)
	contract(t, g)
	rt := routingalgorithm.NewRouteAlgorithm(g, 64)

	for s := 0; s < n; s++ {
		for d := 0; d < n; d++ {
			if s == d {
				continue
			}
			want, _ := ref.ShortestPath(int64(s), int64(d))
			path, found := rt.ShortestPath(int32(s), int32(d))
			if want < 0 || math.IsInf(want, 1) {
				assert.False(t, found, "%d->%d", s, d)
				continue
			}
			require.True(t, found, "%d->%d", s, d)
			assert.InDelta(t, want, path.Weight, 1e-9, "%d->%d", s, d)
		}
	}
}
