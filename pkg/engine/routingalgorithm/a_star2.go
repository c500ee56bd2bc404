package routingalgorithm

import (
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/geo"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
)

// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/GH05.pdf

// ShortestPathAStar searches from one source towards one target, guided by
// the travel time at topSpeed (km/h) along the great circle. topSpeed must
// not be lower than any speed the weigher assigns.
func (g *GraphRouter) ShortestPathAStar(from, to int64, topSpeed float64) (GraphPath, bool) {
	target, ok := g.ds.Coordinate(to)
	if !ok || topSpeed <= 0 {
		return GraphPath{}, false
	}

	opts := NewSearchOptions[int64]()
	opts.Target = func(n int64) bool { return n == to }
	opts.Heuristic = func(n int64) float64 {
		c, ok := g.ds.Coordinate(n)
		if !ok {
			return 0
		}
		return pathEstimatedCostETA(c, target, topSpeed)
	}

	tree := Dijkstra[int64, graph.Arc]([]Seed[int64]{{Node: from}}, g.Forward, opts)
	if !tree.HasReached {
		return GraphPath{}, false
	}
	weight, _ := tree.Weight(to)
	return GraphPath{Arcs: tree.Edges(to), Weight: weight, Source: from, Target: to}, true
}

// pathEstimatedCostETA is a lower bound of the travel time in seconds.
func pathEstimatedCostETA(from, to datastructure.Coordinate, speed float64) float64 {
	return geo.GreatCircleDistance(from, to) / speed * 3.6
}
