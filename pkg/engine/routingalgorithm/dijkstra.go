package routingalgorithm

import (
	"math"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Seed starts a search at Node with an initial Weight.
type Seed[K constraints.Integer] struct {
	Node   K
	Weight float64
}

// Step is one relaxation candidate produced by an Expander.
type Step[K constraints.Integer, E any] struct {
	To     K
	Weight float64
	Edge   E
}

// Expander calls visit for every step leaving node. Backward searches expand
// predecessors: To is the predecessor and Edge the edge into node.
type Expander[K constraints.Integer, E any] func(node K, visit func(Step[K, E]))

type Label[K constraints.Integer, E any] struct {
	Weight float64
	Hops   int
	Parent K
	Edge   E
	Root   bool
}

// SearchOptions bound a search. MaxWeight is always applied, use
// NewSearchOptions for an unbounded search.
type SearchOptions[K constraints.Integer] struct {
	MaxWeight  float64
	MaxHops    int
	MaxSettled int
	// Ignore hides nodes from the search.
	Ignore func(K) bool
	// Target stops the search once it returns true for a settled node.
	Target func(K) bool
	// Heuristic turns the search into A*. It must be consistent, a lower
	// bound that never drops by more than an edge weight along an edge.
	Heuristic func(K) float64
}

func NewSearchOptions[K constraints.Integer]() SearchOptions[K] {
	return SearchOptions[K]{MaxWeight: math.Inf(1)}
}

// SearchTree holds the labels of a finished search.
type SearchTree[K constraints.Integer, E any] struct {
	labels  map[K]Label[K, E]
	settled map[K]struct{}
	pq      *datastructure.MinHeap[K]
	// Reached is the node that satisfied SearchOptions.Target.
	Reached    K
	HasReached bool
}

func newSearchTree[K constraints.Integer, E any]() *SearchTree[K, E] {
	return &SearchTree[K, E]{
		labels:  make(map[K]Label[K, E]),
		settled: make(map[K]struct{}),
		pq:      datastructure.NewMinHeap[K](),
	}
}

func (t *SearchTree[K, E]) seed(seeds []Seed[K], opts *SearchOptions[K]) {
	for _, s := range seeds {
		if opts != nil && opts.Ignore != nil && opts.Ignore(s.Node) {
			continue
		}
		if l, ok := t.labels[s.Node]; ok && l.Weight <= s.Weight {
			continue
		}
		t.labels[s.Node] = Label[K, E]{Weight: s.Weight, Parent: s.Node, Root: true}
		t.pq.Insert(datastructure.PriorityQueueNode[K]{Rank: s.Weight + opts.estimate(s.Node), Item: s.Node})
	}
}

func (o *SearchOptions[K]) estimate(node K) float64 {
	if o == nil || o.Heuristic == nil {
		return 0
	}
	return o.Heuristic(node)
}

func (t *SearchTree[K, E]) min() (float64, bool) {
	item, err := t.pq.GetMin()
	if err != nil {
		return math.Inf(1), false
	}
	return item.Rank, true
}

// settleNext pops the closest queued node.
func (t *SearchTree[K, E]) settleNext() (K, Label[K, E]) {
	item, _ := t.pq.ExtractMin()
	t.settled[item.Item] = struct{}{}
	return item.Item, t.labels[item.Item]
}

// relax applies step from a settled node u and reports whether the label of
// step.To improved.
func (t *SearchTree[K, E]) relax(u K, lu Label[K, E], s Step[K, E], opts *SearchOptions[K]) (float64, bool) {
	if _, done := t.settled[s.To]; done {
		return 0, false
	}
	if opts != nil && opts.Ignore != nil && opts.Ignore(s.To) {
		return 0, false
	}
	w := lu.Weight + s.Weight
	if opts != nil && w > opts.MaxWeight {
		return 0, false
	}
	if l, ok := t.labels[s.To]; ok && l.Weight <= w {
		return w, false
	}
	t.labels[s.To] = Label[K, E]{Weight: w, Hops: lu.Hops + 1, Parent: u, Edge: s.Edge}
	t.pq.Insert(datastructure.PriorityQueueNode[K]{Rank: w + opts.estimate(s.To), Item: s.To})
	return w, true
}

// Weight returns the best known weight of node.
func (t *SearchTree[K, E]) Weight(node K) (float64, bool) {
	l, ok := t.labels[node]
	return l.Weight, ok
}

func (t *SearchTree[K, E]) Settled(node K) bool {
	_, ok := t.settled[node]
	return ok
}

// SettledNodes returns the settled nodes, ascending.
func (t *SearchTree[K, E]) SettledNodes() []K {
	nodes := make([]K, 0, len(t.settled))
	for n := range t.settled {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

func (t *SearchTree[K, E]) Label(node K) (Label[K, E], bool) {
	l, ok := t.labels[node]
	return l, ok
}

// Edges returns the edges from the root of node's branch to node, in order.
func (t *SearchTree[K, E]) Edges(node K) []E {
	edges := make([]E, 0)
	for {
		l, ok := t.labels[node]
		if !ok || l.Root {
			break
		}
		edges = append(edges, l.Edge)
		node = l.Parent
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges
}

// Root returns the seed node whose branch contains node.
func (t *SearchTree[K, E]) Root(node K) K {
	for {
		l, ok := t.labels[node]
		if !ok || l.Root {
			return node
		}
		node = l.Parent
	}
}

// Dijkstra runs a one-to-many search from seeds. Ties are settled by lowest
// node key.
func Dijkstra[K constraints.Integer, E any](seeds []Seed[K], expand Expander[K, E], opts SearchOptions[K]) *SearchTree[K, E] {
	tree := newSearchTree[K, E]()
	tree.seed(seeds, &opts)

	settledCount := 0
	for tree.pq.Size() > 0 {
		u, lu := tree.settleNext()
		settledCount++
		if opts.Target != nil && opts.Target(u) {
			tree.Reached = u
			tree.HasReached = true
			break
		}
		if opts.MaxSettled > 0 && settledCount >= opts.MaxSettled {
			break
		}
		if opts.MaxHops > 0 && lu.Hops >= opts.MaxHops {
			continue
		}
		expand(u, func(s Step[K, E]) {
			tree.relax(u, lu, s, &opts)
		})
	}
	return tree
}
