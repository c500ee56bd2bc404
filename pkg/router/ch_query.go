package router

import (
	"github.com/OsmSharp/ui-sub009/pkg/engine/routingalgorithm"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/util"
)

type localSearch = *routingalgorithm.SearchTree[int64, graph.Arc]

/*
connect searches from a resolved vertex until it reaches vertices of the
contracted graph. Those vertices, weighted by the cost to reach them, seed
the CH query. The search only passes through vertices the contracted graph
does not know, so it stays on the few overlay vertices around the point.
*/
func (r *Router) connect(fork *graph.DataSource, p *profile, start int64, reverse bool) (localSearch, []routingalgorithm.Seed[int32]) {
	g := routingalgorithm.NewGraphRouter(fork, r.in.Weigher(p.vehicle))
	opts := routingalgorithm.NewSearchOptions[int64]()
	opts.MaxSettled = r.cfg.MaxLocalSettled

	expand := g.Forward
	if reverse {
		expand = g.Backward
	}
	tree := routingalgorithm.Dijkstra[int64, graph.Arc]([]routingalgorithm.Seed[int64]{{Node: start}},
		func(node int64, visit func(routingalgorithm.Step[int64, graph.Arc])) {
			if _, core := p.ch.NodeID(node); core && node != start {
				return
			}
			expand(node, visit)
		}, opts)

	seeds := make([]routingalgorithm.Seed[int32], 0)
	for _, node := range tree.SettledNodes() {
		id, core := p.ch.NodeID(node)
		if !core {
			continue
		}
		w, _ := tree.Weight(node)
		seeds = append(seeds, routingalgorithm.Seed[int32]{Node: id, Weight: w})
	}
	return tree, seeds
}

// reachable reports whether some target component can be reached from some
// source component.
func reachable(p *profile, sources, targets []routingalgorithm.Seed[int32]) bool {
	if len(p.ch.SCC) == 0 {
		return true
	}
	for _, s := range sources {
		for _, t := range targets {
			if p.ch.SCCReachable(p.ch.SCC[s.Node], p.ch.SCC[t.Node]) {
				return true
			}
		}
	}
	return false
}

func (r *Router) calculateCH(fork *graph.DataSource, p *profile, from, to int64) ([]leg, error) {
	fwd, sources := r.connect(fork, p, from, false)
	bwd, targets := r.connect(fork, p, to, true)

	// both points on one segment, or one leading straight to the other.
	direct, hasDirect := fwd.Weight(to)
	if hasDirect && !fwd.Settled(to) {
		hasDirect = false
	}

	if len(sources) == 0 || len(targets) == 0 || !reachable(p, sources, targets) {
		if hasDirect {
			return arcLegs(fork, fwd.Edges(to)), nil
		}
		return nil, r.noPath(p.vehicle, from, to)
	}

	path, found := p.query.ShortestPathBiDijkstraCH(sources, targets)
	switch {
	case hasDirect && (!found || direct <= path.Weight):
		return arcLegs(fork, fwd.Edges(to)), nil
	case !found:
		return nil, r.noPath(p.vehicle, from, to)
	}

	head := fwd.Edges(p.ch.GetNode(path.Source).VertexID)
	tail := util.ReverseG(bwd.Edges(p.ch.GetNode(path.Target).VertexID))

	legs := make([]leg, 0, len(head)+len(path.Edges)+len(tail))
	legs = append(legs, arcLegs(fork, head)...)
	legs = append(legs, chLegs(p.ch, path.Edges)...)
	legs = append(legs, arcLegs(fork, tail)...)
	return legs, nil
}
