package contractor

import (
	"sort"
	"time"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/geo"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"go.uber.org/zap"
)

type Metadata struct {
	NodeCount      int
	EdgeCount      int
	ShortcutsCount int
	// Generation of the DataSource the graph was built from.
	Generation uint64
}

// ContractedGraph stores every edge once. OutEdges[v] and InEdges[v] index
// into Edges, so an edge id is valid in both directions.
type ContractedGraph struct {
	Metadata Metadata
	Ready    bool
	Nodes    []datastructure.CHNode
	Edges    []datastructure.EdgeCH
	OutEdges [][]int32
	InEdges  [][]int32

	SCC                []int32
	SCCNodesCount      []int32
	SCCCondensationAdj [][]int32

	nodeIndex map[int64]int32
}

func NewContractedGraph() *ContractedGraph {
	return &ContractedGraph{
		Nodes:     make([]datastructure.CHNode, 0),
		Edges:     make([]datastructure.EdgeCH, 0),
		OutEdges:  make([][]int32, 0),
		InEdges:   make([][]int32, 0),
		nodeIndex: make(map[int64]int32),
	}
}

// BuildContractedGraph turns the legal arcs of ds into an uncontracted graph.
// Dense node indices follow ascending vertex id. Of several parallel arcs only
// the cheapest one is kept.
func BuildContractedGraph(ds *graph.DataSource, w graph.ArcWeigher) *ContractedGraph {
	arcs := ds.AllArcs(w)

	vertexIDs := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, a := range arcs {
		for _, id := range [2]int64{a.From, a.To} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			vertexIDs = append(vertexIDs, id)
		}
	}
	sort.Slice(vertexIDs, func(i, j int) bool { return vertexIDs[i] < vertexIDs[j] })

	ch := NewContractedGraph()
	for _, id := range vertexIDs {
		coord, _ := ds.Coordinate(id)
		ch.AddNode(datastructure.NewCHNode(int32(len(ch.Nodes)), id, coord))
	}

	type pair struct{ from, to int32 }
	cheapest := make(map[pair]int)
	order := make([]pair, 0, len(arcs))
	for i, a := range arcs {
		if a.From == a.To {
			continue
		}
		p := pair{ch.nodeIndex[a.From], ch.nodeIndex[a.To]}
		prev, ok := cheapest[p]
		if !ok {
			order = append(order, p)
			cheapest[p] = i
			continue
		}
		if a.Weight < arcs[prev].Weight {
			cheapest[p] = i
		}
	}

	for _, p := range order {
		a := arcs[cheapest[p]]
		from, to := ch.Nodes[p.from], ch.Nodes[p.to]
		edge := datastructure.NewEdgeCHPlain(0, a.Weight, geo.GreatCircleDistance(from.Coord(), to.Coord()), p.to, p.from)
		edge.WayID = a.WayID
		edge.OverlayEdgeID = a.EdgeID
		edge.TagsID = a.TagsID
		edge.Forward = a.Forward
		edge.Flags = a.Flags
		ch.AddEdge(edge)
	}
	ch.Metadata.Generation = ds.Generation()
	return ch
}

func (ch *ContractedGraph) AddNode(node datastructure.CHNode) {
	if ch.nodeIndex == nil {
		ch.nodeIndex = make(map[int64]int32)
	}
	ch.Nodes = append(ch.Nodes, node)
	ch.OutEdges = append(ch.OutEdges, []int32{})
	ch.InEdges = append(ch.InEdges, []int32{})
	ch.nodeIndex[node.VertexID] = node.ID
	ch.Metadata.NodeCount = len(ch.Nodes)
}

// AddEdge appends edge under the next edge id and returns that id.
func (ch *ContractedGraph) AddEdge(edge datastructure.EdgeCH) int32 {
	id := int32(len(ch.Edges))
	edge.EdgeID = id
	ch.Edges = append(ch.Edges, edge)
	ch.OutEdges[edge.FromNodeID] = append(ch.OutEdges[edge.FromNodeID], id)
	ch.InEdges[edge.ToNodeID] = append(ch.InEdges[edge.ToNodeID], id)
	ch.Metadata.EdgeCount = len(ch.Edges)
	if edge.IsShortcut {
		ch.Metadata.ShortcutsCount++
	}
	return id
}

// NodeID maps a graph vertex id to its dense index.
func (ch *ContractedGraph) NodeID(vertexID int64) (int32, bool) {
	if ch.nodeIndex == nil {
		ch.rebuildNodeIndex()
	}
	id, ok := ch.nodeIndex[vertexID]
	return id, ok
}

func (ch *ContractedGraph) rebuildNodeIndex() {
	ch.nodeIndex = make(map[int64]int32, len(ch.Nodes))
	for _, n := range ch.Nodes {
		ch.nodeIndex[n.VertexID] = n.ID
	}
}

func (ch *ContractedGraph) IsChReady() bool {
	return ch.Ready
}

func (ch *ContractedGraph) SetCHReady() {
	ch.Ready = true
}

func (ch *ContractedGraph) GetNodeFirstOutEdges(nodeID int32) []int32 {
	return ch.OutEdges[nodeID]
}

func (ch *ContractedGraph) GetNodeFirstInEdges(nodeID int32) []int32 {
	return ch.InEdges[nodeID]
}

func (ch *ContractedGraph) GetEdge(edgeID int32) datastructure.EdgeCH {
	return ch.Edges[edgeID]
}

func (ch *ContractedGraph) GetNode(nodeID int32) datastructure.CHNode {
	return ch.Nodes[nodeID]
}

func (ch *ContractedGraph) GetNumNodes() int {
	return len(ch.Nodes)
}

// SCCReachable reports whether any node of the component to is reachable
// from component from in the condensation DAG.
func (ch *ContractedGraph) SCCReachable(from, to int32) bool {
	if from == to {
		return true
	}
	if len(ch.SCCCondensationAdj) == 0 {
		return true
	}
	visited := make(map[int32]struct{})
	stack := []int32{from}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c == to {
			return true
		}
		if _, ok := visited[c]; ok {
			continue
		}
		visited[c] = struct{}{}
		stack = append(stack, ch.SCCCondensationAdj[c]...)
	}
	return false
}

type Options struct {
	// settled-node limits of the witness search while estimating priorities
	// and while contracting.
	MaxSettledHeuristic   int
	MaxSettledContraction int
	MaxHops               int
	ProgressEvery         int
	OnProgress            func(done, total int)
}

func DefaultOptions() Options {
	return Options{
		MaxSettledHeuristic:   50,
		MaxSettledContraction: 500,
		MaxHops:               0,
		ProgressEvery:         10000,
	}
}

type Contractor struct {
	ch   *ContractedGraph
	log  *zap.Logger
	opts Options

	contracted []bool
	depth      []int
	// origEdges counts the original edges an edge stands for.
	origEdges []int
}

func NewContractor(ch *ContractedGraph, log *zap.Logger, opts Options) *Contractor {
	return &Contractor{ch: ch, log: log, opts: opts}
}

// Contraction ranks every node and inserts the shortcuts needed to keep
// upward/downward searches exact. Ties in priority go to the lowest node index.
func (c *Contractor) Contraction() {
	st := time.Now()
	n := c.ch.GetNumNodes()
	c.init()

	c.log.Info("contracting graph", zap.Int("nodes", n), zap.Int("edges", len(c.ch.Edges)))

	nq := datastructure.NewMinHeap[int32]()
	for v := int32(0); v < int32(n); v++ {
		nq.Insert(datastructure.PriorityQueueNode[int32]{Item: v, Rank: c.calculatePriority(v)})
	}

	orderNum := int32(0)
	for nq.Size() != 0 {
		polled, _ := nq.ExtractMin()
		v := polled.Item

		// lazy update
		priority := c.calculatePriority(v)
		if next, err := nq.GetMin(); err == nil && priority > next.Rank {
			nq.Insert(datastructure.PriorityQueueNode[int32]{Item: v, Rank: priority})
			continue
		}

		c.ch.Nodes[v].OrderPos = orderNum
		orderNum++
		c.contractNode(v)

		for _, u := range c.activeNeighbours(v) {
			c.depth[u] = max(c.depth[u], c.depth[v]+1)
			nq.Insert(datastructure.PriorityQueueNode[int32]{Item: u, Rank: c.calculatePriority(u)})
		}

		if c.opts.ProgressEvery > 0 && int(orderNum)%c.opts.ProgressEvery == 0 {
			c.log.Info("contracting node", zap.Int32("done", orderNum), zap.Int("total", n))
		}
		if c.opts.OnProgress != nil {
			c.opts.OnProgress(int(orderNum), n)
		}
	}

	c.ch.kosarajuSCC(c.log)
	c.ch.SetCHReady()
	c.log.Info("contraction done",
		zap.Int("shortcuts", c.ch.Metadata.ShortcutsCount),
		zap.Duration("took", time.Since(st)))
}

func (c *Contractor) init() {
	n := c.ch.GetNumNodes()
	c.contracted = make([]bool, n)
	c.depth = make([]int, n)
	c.origEdges = make([]int, len(c.ch.Edges))
	for i, e := range c.ch.Edges {
		if e.IsShortcut {
			c.origEdges[i] = 2
		} else {
			c.origEdges[i] = 1
		}
	}
}

func (c *Contractor) contractNode(v int32) {
	c.contracted[v] = true
	for _, sc := range c.findShortcuts(v, c.opts.MaxSettledContraction) {
		c.addShortcut(sc)
	}
}

type shortcut struct {
	in, out int32
	via     int32
	weight  float64
}

// activeEdges returns, per uncontracted neighbour, the cheapest edge between
// v and that neighbour in one direction. Lower edge ids win ties.
func (c *Contractor) activeEdges(v int32, incoming bool) map[int32]int32 {
	ids := c.ch.OutEdges[v]
	if incoming {
		ids = c.ch.InEdges[v]
	}
	best := make(map[int32]int32)
	for _, id := range ids {
		e := c.ch.Edges[id]
		other := e.ToNodeID
		if incoming {
			other = e.FromNodeID
		}
		if other == v || c.contracted[other] {
			continue
		}
		prev, ok := best[other]
		if !ok || e.Weight < c.ch.Edges[prev].Weight {
			best[other] = id
		}
	}
	return best
}

func sortedKeys(m map[int32]int32) []int32 {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (c *Contractor) activeNeighbours(v int32) []int32 {
	set := c.activeEdges(v, false)
	for u, id := range c.activeEdges(v, true) {
		set[u] = id
	}
	return sortedKeys(set)
}

/*
findShortcuts, for every pair (u, w) with edges u->v and v->w it searches a
path u->w avoiding v. A shortcut is only needed when no such path is at most
as expensive as u->v->w.
*/
func (c *Contractor) findShortcuts(v int32, maxSettled int) []shortcut {
	ins := c.activeEdges(v, true)
	outs := c.activeEdges(v, false)
	if len(ins) == 0 || len(outs) == 0 {
		return nil
	}

	outMax := 0.0
	for _, id := range outs {
		outMax = max(outMax, c.ch.Edges[id].Weight)
	}

	shortcuts := make([]shortcut, 0)
	for _, u := range sortedKeys(ins) {
		inEdge := c.ch.Edges[ins[u]]
		targets := make(map[int32]struct{}, len(outs))
		for w := range outs {
			if w != u {
				targets[w] = struct{}{}
			}
		}
		if len(targets) == 0 {
			continue
		}

		witness := c.dijkstraWitnessSearch(u, v, targets, inEdge.Weight+outMax, maxSettled)
		for _, w := range sortedKeys(outs) {
			if w == u {
				continue
			}
			outEdge := c.ch.Edges[outs[w]]
			viaWeight := inEdge.Weight + outEdge.Weight
			if d, ok := witness[w]; ok && d <= viaWeight {
				continue
			}
			shortcuts = append(shortcuts, shortcut{in: inEdge.EdgeID, out: outEdge.EdgeID, via: v, weight: viaWeight})
		}
	}
	return shortcuts
}

// addShortcut inserts sc unless an edge at least as cheap already connects
// its endpoints. Existing edges are never modified, earlier shortcuts may
// already be referenced by others.
func (c *Contractor) addShortcut(sc shortcut) {
	in, out := c.ch.Edges[sc.in], c.ch.Edges[sc.out]
	for _, id := range c.ch.OutEdges[in.FromNodeID] {
		e := c.ch.Edges[id]
		if e.ToNodeID == out.ToNodeID && e.Weight <= sc.weight {
			return
		}
	}
	c.ch.AddEdge(datastructure.NewShortcutEdgeCH(0, in, out, sc.via))
	c.origEdges = append(c.origEdges, c.origEdges[sc.in]+c.origEdges[sc.out])
}

// calculatePriority: 10*edgeDifference + original edges covered by the
// shortcuts + hierarchy depth.
func (c *Contractor) calculatePriority(v int32) float64 {
	shortcuts := c.findShortcuts(v, c.opts.MaxSettledHeuristic)
	degree := len(c.activeEdges(v, true)) + len(c.activeEdges(v, false))
	originalEdges := 0
	for _, sc := range shortcuts {
		originalEdges += c.origEdges[sc.in] + c.origEdges[sc.out]
	}
	edgeDifference := len(shortcuts) - degree
	return float64(10*edgeDifference + originalEdges + c.depth[v])
}
