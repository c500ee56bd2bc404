package contractor

import (
	"sort"
	"strconv"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WeightedNodeConverter replaces vertices whose routing rules live on the
// vertex itself (turn restrictions, barriers). Every way end meeting such a
// vertex gets an arrival endpoint that ends its way piece, and a departure
// endpoint with an explicit edge along the first segment of the piece. Every
// legal turn becomes a zero length edge from an arrival to a departure
// endpoint. Arrival endpoints are never left along their way, so a plain
// vertex-based search cannot chain two turns at the same junction.
type WeightedNodeConverter struct {
	in      *interpreter.Interpreter
	vehicle interpreter.Vehicle
	log     *zap.Logger
}

func NewWeightedNodeConverter(in *interpreter.Interpreter, vehicle interpreter.Vehicle, log *zap.Logger) *WeightedNodeConverter {
	return &WeightedNodeConverter{in: in, vehicle: vehicle, log: log}
}

type ConversionStats struct {
	Vertices   int
	Endpoints  int
	TurnEdges  int
	Departures int
}

// conversionState is carried through one conversion run.
type conversionState struct {
	done  map[int64]struct{}
	queue []int64
	stats ConversionStats
}

func (s *conversionState) push(v int64) {
	if _, ok := s.done[v]; ok {
		return
	}
	s.queue = append(s.queue, v)
}

// IsWeighted reports whether vertex carries point-level routing rules for
// the converter's vehicle.
func (c *WeightedNodeConverter) IsWeighted(ds *graph.DataSource, vertex int64) bool {
	if len(ds.RestrictionsVia(vertex)) > 0 {
		return true
	}
	return c.in.IsBlockingBarrier(ds.NodeTags(vertex), c.vehicle)
}

// WeightedVertices lists every weighted vertex on a current way, ascending.
func (c *WeightedNodeConverter) WeightedVertices(ds *graph.DataSource) []int64 {
	out := make([]int64, 0)
	for _, v := range ds.VertexIDs() {
		if c.IsWeighted(ds, v) {
			out = append(out, v)
		}
	}
	return out
}

// ConvertAll converts every weighted vertex of ds.
func (c *WeightedNodeConverter) ConvertAll(ds *graph.DataSource) (ConversionStats, error) {
	return c.Convert(ds, c.WeightedVertices(ds)...)
}

// Convert processes vertices, and any weighted vertex uncovered on the way
// pieces it creates, until the worklist is empty. Converting a vertex twice
// is a no-op: once converted no way passes through it any more.
func (c *WeightedNodeConverter) Convert(ds *graph.DataSource, vertices ...int64) (ConversionStats, error) {
	state := &conversionState{done: make(map[int64]struct{})}
	sorted := append([]int64(nil), vertices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, v := range sorted {
		state.push(v)
	}

	for len(state.queue) > 0 {
		v := state.queue[0]
		state.queue = state.queue[1:]
		if _, ok := state.done[v]; ok {
			continue
		}
		state.done[v] = struct{}{}
		if err := c.convertVertex(ds, state, v); err != nil {
			return state.stats, errors.Wrapf(err, "convert vertex %d", v)
		}
	}

	c.log.Info("weighted vertices converted",
		zap.Stringer("vehicle", c.vehicle),
		zap.Int("vertices", state.stats.Vertices),
		zap.Int("endpoints", state.stats.Endpoints),
		zap.Int("turn_edges", state.stats.TurnEdges),
		zap.Int("departures", state.stats.Departures))
	return state.stats, nil
}

// arm is one way end meeting the converted vertex.
type arm struct {
	wayID     int64
	tagsID    uint32
	index     int
	neighbor  int64
	// arriving on the way before index, or leaving after it.
	before    bool
	endpoint  int64
	departure int64
}

func (c *WeightedNodeConverter) convertVertex(ds *graph.DataSource, state *conversionState, v int64) error {
	if len(ds.WaysAt(v)) == 0 {
		return nil
	}
	coord, _ := ds.Coordinate(v)
	if err := c.separateWeightedNeighbours(ds, v, coord); err != nil {
		return err
	}
	ways := ds.WaysAt(v)

	arms := make([]*arm, 0, 2*len(ways))
	for _, way := range ways {
		for _, i := range way.IndexOf(v) {
			if i > 0 && way.Nodes[i-1] != v {
				arms = append(arms, &arm{wayID: way.ID, tagsID: way.TagsID, index: i, neighbor: way.Nodes[i-1], before: true})
			}
			if i+1 < len(way.Nodes) && way.Nodes[i+1] != v {
				arms = append(arms, &arm{wayID: way.ID, tagsID: way.TagsID, index: i, neighbor: way.Nodes[i+1]})
			}
		}
	}

	// turns are judged on the ways as they are before the split.
	type turn struct{ from, to *arm }
	turns := make([]turn, 0)
	for _, a := range arms {
		for _, b := range arms {
			if a == b {
				continue
			}
			if c.in.CanBeTraversed(ds, c.vehicle, a.neighbor, a.wayID, v, b.wayID, b.neighbor) {
				turns = append(turns, turn{from: a, to: b})
			}
		}
	}

	for _, a := range arms {
		clone := ds.AddVertex(coord, datastructure.EndpointVertex, datastructure.ResolvedOrigin{
			WayID:        a.wayID,
			SegmentIndex: a.index,
			CloneOf:      v,
		})
		a.endpoint = clone.ID
		state.stats.Endpoints++
	}

	// arms nothing turns into need no departure.
	for _, t := range turns {
		if t.to.departure != 0 {
			continue
		}
		if err := c.addDeparture(ds, state, coord, v, t.to); err != nil {
			return err
		}
	}

	for _, way := range ways {
		pieces, err := c.splitWay(ds, way, v, arms)
		if err != nil {
			return err
		}
		for _, p := range pieces {
			for _, n := range p.Nodes {
				if n != v && c.IsWeighted(ds, n) {
					state.push(n)
				}
			}
		}
	}

	marker := strconv.FormatInt(v, 10)
	for _, t := range turns {
		tags := ds.Tags().Get(t.to.tagsID).Set(interpreter.WeightedNodeMarkerKey, marker)
		_, err := ds.AddEdge(datastructure.Edge{
			From:   t.from.endpoint,
			To:     t.to.departure,
			TagsID: ds.Tags().Add(tags),
			Flags:  datastructure.EdgeWeightedNodeShortcut | datastructure.EdgeOneWayForward,
		})
		if err != nil {
			return err
		}
		state.stats.TurnEdges++
	}
	state.stats.Vertices++
	return nil
}

// addDeparture clones v once more for a and connects the clone to a's
// neighbour. Both clones of an arm share the same origin, which is how the
// point resolver finds the departure of an arrival endpoint.
func (c *WeightedNodeConverter) addDeparture(ds *graph.DataSource, state *conversionState,
	coord datastructure.Coordinate, v int64, a *arm) error {
	clone := ds.AddVertex(coord, datastructure.EndpointVertex, datastructure.ResolvedOrigin{
		WayID:        a.wayID,
		SegmentIndex: a.index,
		CloneOf:      v,
	})
	a.departure = clone.ID
	_, err := ds.AddEdge(datastructure.Edge{
		From:   clone.ID,
		To:     a.neighbor,
		TagsID: a.tagsID,
		Flags:  datastructure.EdgeWeightedNodeDeparture | datastructure.EdgeOneWayForward,
	})
	if err != nil {
		return err
	}
	state.stats.Departures++
	return nil
}

// separateWeightedNeighbours puts a midpoint between v and every adjacent
// vertex that is weighted too, so departure edges never end on a vertex that
// a later conversion removes from its ways.
func (c *WeightedNodeConverter) separateWeightedNeighbours(ds *graph.DataSource, v int64, coord datastructure.Coordinate) error {
	for _, way := range ds.WaysAt(v) {
		nodes := make([]int64, 0, len(way.Nodes)+2)
		changed := false
		for i, n := range way.Nodes {
			if i > 0 {
				prev := way.Nodes[i-1]
				if (prev == v && n != v && c.IsWeighted(ds, n)) || (n == v && prev != v && c.IsWeighted(ds, prev)) {
					other := n
					if n == v {
						other = prev
					}
					oc, _ := ds.Coordinate(other)
					mid := ds.AddVertex(datastructure.NewCoordinate((coord.Lat+oc.Lat)/2, (coord.Lon+oc.Lon)/2),
						datastructure.ResolvedVertex, datastructure.ResolvedOrigin{WayID: way.ID, SegmentIndex: i - 1, Fraction: 0.5})
					nodes = append(nodes, mid.ID)
					changed = true
				}
			}
			nodes = append(nodes, n)
		}
		if !changed {
			continue
		}
		way.Nodes = nodes
		if err := ds.PutWay(way); err != nil {
			return err
		}
	}
	return nil
}

// splitWay cuts way at every occurrence of v and swaps v for the endpoint of
// the matching arm. The first piece keeps the way id.
func (c *WeightedNodeConverter) splitWay(ds *graph.DataSource, way datastructure.Way, v int64, arms []*arm) ([]datastructure.Way, error) {
	endpoint := func(index int, before bool) (int64, bool) {
		for _, a := range arms {
			if a.wayID == way.ID && a.index == index && a.before == before {
				return a.endpoint, true
			}
		}
		return 0, false
	}

	last := len(way.Nodes) - 1
	cuts := []int{0}
	for _, i := range way.IndexOf(v) {
		if i != 0 && i != last {
			cuts = append(cuts, i)
		}
	}
	cuts = append(cuts, last)

	pieces := make([]datastructure.Way, 0, len(cuts)-1)
	for k := 0; k+1 < len(cuts); k++ {
		p, q := cuts[k], cuts[k+1]
		nodes := append([]int64(nil), way.Nodes[p:q+1]...)
		if nodes[0] == v {
			if e, ok := endpoint(p, false); ok {
				nodes[0] = e
			}
		}
		if nodes[len(nodes)-1] == v {
			if e, ok := endpoint(q, true); ok {
				nodes[len(nodes)-1] = e
			}
		}
		pieces = append(pieces, datastructure.Way{Nodes: nodes, TagsID: way.TagsID})
	}

	for k := range pieces {
		if k == 0 {
			pieces[k].ID = way.ID
			if err := ds.PutWay(pieces[k]); err != nil {
				return nil, err
			}
			continue
		}
		added, err := ds.AddWay(pieces[k], way.ID)
		if err != nil {
			return nil, err
		}
		pieces[k] = added
	}
	return pieces, nil
}
