package routingalgorithm

import (
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CHPath is a CH query result with every shortcut unpacked.
type CHPath struct {
	Edges  []datastructure.EdgeCH
	Weight float64
	// Source and Target are the seed nodes the path starts and ends at.
	Source int32
	Target int32
}

func (p CHPath) Dist() float64 {
	d := 0.0
	for _, e := range p.Edges {
		d += e.Dist
	}
	return d
}

type RouteAlgorithm struct {
	ch ContractedGraph
	// unpacked caches the original edge ids behind a shortcut.
	unpacked *lru.Cache[int32, []int32]
}

// NewRouteAlgorithm queries ch. cacheSize bounds the shortcut unpack cache,
// 0 disables it.
func NewRouteAlgorithm(ch ContractedGraph, cacheSize int) *RouteAlgorithm {
	rt := &RouteAlgorithm{ch: ch}
	if cacheSize > 0 {
		// only fails for a non-positive size.
		rt.unpacked, _ = lru.New[int32, []int32](cacheSize)
	}
	return rt
}

func (rt *RouteAlgorithm) rank(node int32) int32 {
	return rt.ch.GetNode(node).OrderPos
}

// upward relaxes the edges leaving node towards higher ranked nodes.
func (rt *RouteAlgorithm) upward(node int32, visit func(Step[int32, int32])) {
	r := rt.rank(node)
	for _, id := range rt.ch.GetNodeFirstOutEdges(node) {
		e := rt.ch.GetEdge(id)
		if rt.rank(e.ToNodeID) > r {
			visit(Step[int32, int32]{To: e.ToNodeID, Weight: e.Weight, Edge: id})
		}
	}
}

// downward walks edges entering node from higher ranked nodes, against
// their direction.
func (rt *RouteAlgorithm) downward(node int32, visit func(Step[int32, int32])) {
	r := rt.rank(node)
	for _, id := range rt.ch.GetNodeFirstInEdges(node) {
		e := rt.ch.GetEdge(id)
		if rt.rank(e.FromNodeID) > r {
			visit(Step[int32, int32]{To: e.FromNodeID, Weight: e.Weight, Edge: id})
		}
	}
}

// ShortestPathBiDijkstraCH runs the upward search from sources and the
// downward search from targets. Seed weights are the cost of reaching a
// source, or of leaving a target, outside of the contracted graph. The
// second result is false when no source connects to any target.
func (rt *RouteAlgorithm) ShortestPathBiDijkstraCH(sources, targets []Seed[int32]) (CHPath, bool) {
	m := Bidirectional[int32, int32](sources, targets, rt.upward, rt.downward, StopEachSide, 0)
	if !m.Found {
		return CHPath{}, false
	}

	ids := make([]int32, 0, len(m.Forward)+len(m.Backward))
	for _, id := range m.Forward {
		ids = rt.unpack(id, ids)
	}
	for _, id := range m.Backward {
		ids = rt.unpack(id, ids)
	}

	edges := make([]datastructure.EdgeCH, len(ids))
	for i, id := range ids {
		edges[i] = rt.ch.GetEdge(id)
	}
	return CHPath{Edges: edges, Weight: m.Weight, Source: m.Source, Target: m.Target}, true
}

// ShortestPath is the single source, single target query.
func (rt *RouteAlgorithm) ShortestPath(from, to int32) (CHPath, bool) {
	return rt.ShortestPathBiDijkstraCH([]Seed[int32]{{Node: from}}, []Seed[int32]{{Node: to}})
}

// UnpackEdge returns the original edges a (shortcut) edge stands for, in
// travel order.
func (rt *RouteAlgorithm) UnpackEdge(edgeID int32) []datastructure.EdgeCH {
	ids := rt.unpack(edgeID, nil)
	edges := make([]datastructure.EdgeCH, len(ids))
	for i, id := range ids {
		edges[i] = rt.ch.GetEdge(id)
	}
	return edges
}

func (rt *RouteAlgorithm) unpack(edgeID int32, out []int32) []int32 {
	e := rt.ch.GetEdge(edgeID)
	if !e.IsShortcut {
		return append(out, edgeID)
	}
	if rt.unpacked != nil {
		if cached, ok := rt.unpacked.Get(edgeID); ok {
			return append(out, cached...)
		}
	}
	parts := rt.unpack(e.RemovedEdgeOne, nil)
	parts = rt.unpack(e.RemovedEdgeTwo, parts)
	if rt.unpacked != nil {
		rt.unpacked.Add(edgeID, parts)
	}
	return append(out, parts...)
}
