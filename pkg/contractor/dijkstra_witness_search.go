package contractor

import (
	"github.com/OsmSharp/ui-sub009/pkg/engine/routingalgorithm"
)

/*
dijkstraWitnessSearch runs a bounded search from u that never enters the node
being contracted (ignore) or any contracted node. It stops once every target
is settled, once acceptedWeight is exceeded, or after maxSettled nodes, and
returns the best known weight per reached target. A bound that cuts the
search short only costs an unnecessary shortcut, never a wrong one.
*/
func (c *Contractor) dijkstraWitnessSearch(u, ignore int32, targets map[int32]struct{},
	acceptedWeight float64, maxSettled int) map[int32]float64 {
	remaining := len(targets)

	opts := routingalgorithm.NewSearchOptions[int32]()
	opts.MaxWeight = acceptedWeight
	opts.MaxSettled = maxSettled
	opts.MaxHops = c.opts.MaxHops
	opts.Ignore = func(n int32) bool {
		return n == ignore || c.contracted[n]
	}
	opts.Target = func(n int32) bool {
		if _, ok := targets[n]; ok {
			remaining--
		}
		return remaining == 0
	}

	tree := routingalgorithm.Dijkstra[int32, int32]([]routingalgorithm.Seed[int32]{{Node: u}}, c.expandOut, opts)

	found := make(map[int32]float64, len(targets))
	for w := range targets {
		if d, ok := tree.Weight(w); ok {
			found[w] = d
		}
	}
	return found
}

func (c *Contractor) expandOut(node int32, visit func(routingalgorithm.Step[int32, int32])) {
	for _, id := range c.ch.OutEdges[node] {
		e := c.ch.Edges[id]
		visit(routingalgorithm.Step[int32, int32]{To: e.ToNodeID, Weight: e.Weight, Edge: id})
	}
}
