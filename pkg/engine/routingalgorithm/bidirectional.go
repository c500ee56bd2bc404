package routingalgorithm

import (
	"math"

	"github.com/OsmSharp/ui-sub009/pkg/util"
	"golang.org/x/exp/constraints"
)

// StopRule decides when a bidirectional search has proven its best meeting.
type StopRule uint8

const (
	// StopOnSum ends once the two queue minimums add up to the best weight.
	// Correct for searches over the full graph.
	StopOnSum StopRule = iota
	// StopEachSide retires a side once its own minimum reaches the best
	// weight. Required by searches over an upward graph.
	StopEachSide
)

// Meeting is the result of a bidirectional search.
type Meeting[K constraints.Integer, E any] struct {
	Found  bool
	Node   K
	Weight float64
	// Forward holds the edges from a source to Node, Backward the edges from
	// Node to a target, both in travel order.
	Forward  []E
	Backward []E
	// Source and Target are the seeds the path starts and ends at.
	Source K
	Target K
}

// Bidirectional searches from sources and targets at once until the rule
// proves the best meeting node. backward expands predecessors. maxSettled
// bounds the total number of settled nodes, 0 for no bound.
func Bidirectional[K constraints.Integer, E any](sources, targets []Seed[K], forward, backward Expander[K, E],
	rule StopRule, maxSettled int) Meeting[K, E] {
	fwd := newSearchTree[K, E]()
	bwd := newSearchTree[K, E]()
	fwd.seed(sources, nil)
	bwd.seed(targets, nil)

	best := math.Inf(1)
	var meet K
	found := false
	consider := func(node K, weight float64) {
		if weight < best || (weight == best && found && node < meet) {
			best = weight
			meet = node
			found = true
		}
	}

	settled := 0
	for {
		fMin, fOk := fwd.min()
		bMin, bOk := bwd.min()
		if rule == StopOnSum && fOk && bOk && fMin+bMin >= best {
			break
		}
		fActive := fOk && fMin < best
		bActive := bOk && bMin < best
		if !fActive && !bActive {
			break
		}

		side, other, expand := fwd, bwd, forward
		if !fActive || (bActive && bMin < fMin) {
			side, other, expand = bwd, fwd, backward
		}

		u, lu := side.settleNext()
		settled++
		if w, ok := other.Weight(u); ok {
			consider(u, lu.Weight+w)
		}
		if maxSettled > 0 && settled >= maxSettled {
			break
		}
		expand(u, func(s Step[K, E]) {
			w, improved := side.relax(u, lu, s, nil)
			if !improved {
				return
			}
			if ow, ok := other.Weight(s.To); ok {
				consider(s.To, w+ow)
			}
		})
	}

	if !found {
		return Meeting[K, E]{}
	}
	back := util.ReverseG(bwd.Edges(meet))
	return Meeting[K, E]{
		Found:    true,
		Node:     meet,
		Weight:   best,
		Forward:  fwd.Edges(meet),
		Backward: back,
		Source:   fwd.Root(meet),
		Target:   bwd.Root(meet),
	}
}
