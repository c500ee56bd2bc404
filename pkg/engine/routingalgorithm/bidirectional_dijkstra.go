package routingalgorithm

import (
	"github.com/OsmSharp/ui-sub009/pkg/graph"
)

// GraphPath is a path over the uncontracted graph.
type GraphPath struct {
	Arcs   []graph.Arc
	Weight float64
	Source int64
	Target int64
}

// GraphRouter runs plain Dijkstra over the current version of a DataSource,
// overlay included.
type GraphRouter struct {
	ds *graph.DataSource
	w  graph.ArcWeigher
}

func NewGraphRouter(ds *graph.DataSource, w graph.ArcWeigher) *GraphRouter {
	return &GraphRouter{ds: ds, w: w}
}

// Forward is the Expander over arcs leaving node.
func (g *GraphRouter) Forward(node int64, visit func(Step[int64, graph.Arc])) {
	for _, a := range g.ds.WeightedArcs(node, g.w, false) {
		visit(Step[int64, graph.Arc]{To: a.To, Weight: a.Weight, Edge: a})
	}
}

// Backward is the Expander over arcs entering node.
func (g *GraphRouter) Backward(node int64, visit func(Step[int64, graph.Arc])) {
	for _, a := range g.ds.WeightedArcs(node, g.w, true) {
		visit(Step[int64, graph.Arc]{To: a.From, Weight: a.Weight, Edge: a})
	}
}

// ShortestPathBiDijkstra searches from every source towards every target.
// maxSettled bounds the search, 0 for none.
func (g *GraphRouter) ShortestPathBiDijkstra(sources, targets []Seed[int64], maxSettled int) (GraphPath, bool) {
	m := Bidirectional[int64, graph.Arc](sources, targets, g.Forward, g.Backward, StopOnSum, maxSettled)
	if !m.Found {
		return GraphPath{}, false
	}
	arcs := make([]graph.Arc, 0, len(m.Forward)+len(m.Backward))
	arcs = append(arcs, m.Forward...)
	arcs = append(arcs, m.Backward...)
	return GraphPath{Arcs: arcs, Weight: m.Weight, Source: m.Source, Target: m.Target}, true
}

// ShortestPath is the single source, single target query.
func (g *GraphRouter) ShortestPath(from, to int64) (GraphPath, bool) {
	return g.ShortestPathBiDijkstra([]Seed[int64]{{Node: from}}, []Seed[int64]{{Node: to}}, 0)
}

// ShortestPathTree runs a one-to-many search, forward or against arc direction.
func (g *GraphRouter) ShortestPathTree(sources []Seed[int64], reverse bool, opts SearchOptions[int64]) *SearchTree[int64, graph.Arc] {
	if reverse {
		return Dijkstra[int64, graph.Arc](sources, g.Backward, opts)
	}
	return Dijkstra[int64, graph.Arc](sources, g.Forward, opts)
}
