package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
)

// ErrInconsistentOverlayState means an adjacency index references an entity
// that no layer holds. It is a programming error and is raised with panic.
var ErrInconsistentOverlayState = errors.New("inconsistent overlay state")

type slot[T any] struct {
	value      T
	generation uint64
}

// DataSource is a mutable overlay over an immutable BaseGraph. Overlay
// entities live in id-keyed arenas stamped with the generation that wrote
// them. Adjacency indexes store ids only, so replacing a way is visible from
// every vertex without touching other entries (last writer wins).
//
// A DataSource is owned by one goroutine. Fork freezes it and returns a
// private child layer, which is how concurrent requests share one
// preprocessed overlay.
type DataSource struct {
	base   *BaseGraph
	parent *DataSource
	frozen atomic.Bool

	generation  uint64
	vertices    map[int64]slot[datastructure.Vertex]
	ways        map[int64]slot[datastructure.Way]
	edges       map[int64]slot[datastructure.Edge]
	vertexWays  map[int64][]int64
	vertexEdges map[int64][]int64
	// pieces maps a way id to the ways split off from it.
	pieces  map[int64][]int64
	derived map[int64]int64

	nextVertexID int64
	nextWayID    int64
	nextEdgeID   int64
}

func NewDataSource(base *BaseGraph) *DataSource {
	return &DataSource{
		base:         base,
		vertices:     make(map[int64]slot[datastructure.Vertex]),
		ways:         make(map[int64]slot[datastructure.Way]),
		edges:        make(map[int64]slot[datastructure.Edge]),
		vertexWays:   make(map[int64][]int64),
		vertexEdges:  make(map[int64][]int64),
		pieces:       make(map[int64][]int64),
		derived:      make(map[int64]int64),
		nextVertexID: -1,
		nextWayID:    -1,
		nextEdgeID:   -1,
	}
}

// Fork freezes ds and returns a new writable layer on top of it.
func (ds *DataSource) Fork() *DataSource {
	ds.frozen.Store(true)
	child := NewDataSource(ds.base)
	child.parent = ds
	child.generation = ds.generation
	child.nextVertexID = ds.nextVertexID
	child.nextWayID = ds.nextWayID
	child.nextEdgeID = ds.nextEdgeID
	return child
}

func (ds *DataSource) Freeze() {
	ds.frozen.Store(true)
}

func (ds *DataSource) Frozen() bool {
	return ds.frozen.Load()
}

func (ds *DataSource) mustBeMutable() {
	if ds.frozen.Load() {
		panic("graph: mutation of a frozen DataSource")
	}
}

func (ds *DataSource) Base() *BaseGraph {
	return ds.base
}

func (ds *DataSource) Tags() *datastructure.TagsIndex {
	return ds.base.tags
}

// Generation increases with every overlay write.
func (ds *DataSource) Generation() uint64 {
	return ds.generation
}

func (ds *DataSource) Vertex(id int64) (datastructure.Vertex, bool) {
	for layer := ds; layer != nil; layer = layer.parent {
		if s, ok := layer.vertices[id]; ok {
			return s.value, true
		}
	}
	return ds.base.Vertex(id)
}

func (ds *DataSource) Coordinate(id int64) (datastructure.Coordinate, bool) {
	v, ok := ds.Vertex(id)
	return v.Coord, ok
}

func (ds *DataSource) lookupWay(id int64) (slot[datastructure.Way], bool) {
	for layer := ds; layer != nil; layer = layer.parent {
		if s, ok := layer.ways[id]; ok {
			return s, true
		}
	}
	if w, ok := ds.base.ways[id]; ok {
		return slot[datastructure.Way]{value: w}, true
	}
	return slot[datastructure.Way]{}, false
}

// Way returns the current version of a way.
func (ds *DataSource) Way(id int64) (datastructure.Way, bool) {
	s, ok := ds.lookupWay(id)
	return s.value, ok
}

// WayGeneration returns the generation that wrote the current version, 0 for base ways.
func (ds *DataSource) WayGeneration(id int64) (uint64, bool) {
	s, ok := ds.lookupWay(id)
	return s.generation, ok
}

func (ds *DataSource) Edge(id int64) (datastructure.Edge, bool) {
	for layer := ds; layer != nil; layer = layer.parent {
		if s, ok := layer.edges[id]; ok {
			return s.value, true
		}
	}
	return datastructure.Edge{}, false
}

func (ds *DataSource) NodeTags(id int64) datastructure.TagsCollection {
	tagsID, ok := ds.base.nodeTags[id]
	if !ok {
		return datastructure.TagsCollection{}
	}
	return ds.base.tags.Get(tagsID)
}

// RestrictionsVia returns the turn restriction relations whose via member is vertex.
func (ds *DataSource) RestrictionsVia(vertex int64) []datastructure.Relation {
	ids := ds.base.viaRelations[vertex]
	rels := make([]datastructure.Relation, 0, len(ids))
	for _, id := range ids {
		rels = append(rels, ds.base.relations[id])
	}
	return rels
}

func mergeIDs(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for _, l := range lists {
		for _, id := range l {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func (ds *DataSource) adjacentWayIDs(vertex int64) []int64 {
	lists := [][]int64{ds.base.vertexWays[vertex]}
	for layer := ds; layer != nil; layer = layer.parent {
		lists = append(lists, layer.vertexWays[vertex])
	}
	return mergeIDs(lists...)
}

// WaysAt returns the current version of every way passing through vertex,
// ordered by way id. Ways whose current version no longer contains the vertex
// are skipped and pruned from this layer's index.
func (ds *DataSource) WaysAt(vertex int64) []datastructure.Way {
	ids := ds.adjacentWayIDs(vertex)
	ways := make([]datastructure.Way, 0, len(ids))
	for _, id := range ids {
		s, ok := ds.lookupWay(id)
		if !ok {
			panic(fmt.Errorf("%w: way %d indexed at vertex %d", ErrInconsistentOverlayState, id, vertex))
		}
		if !containsID(s.value.Nodes, vertex) {
			if !ds.frozen.Load() {
				if local, ok := ds.vertexWays[vertex]; ok {
					ds.vertexWays[vertex] = removeID(local, id)
				}
			}
			continue
		}
		ways = append(ways, s.value)
	}
	return ways
}

// EdgesAt returns the current version of every explicit overlay edge
// starting or ending at vertex.
func (ds *DataSource) EdgesAt(vertex int64) []datastructure.Edge {
	lists := make([][]int64, 0, 2)
	for layer := ds; layer != nil; layer = layer.parent {
		lists = append(lists, layer.vertexEdges[vertex])
	}
	ids := mergeIDs(lists...)
	edges := make([]datastructure.Edge, 0, len(ids))
	for _, id := range ids {
		e, ok := ds.Edge(id)
		if !ok {
			panic(fmt.Errorf("%w: edge %d indexed at vertex %d", ErrInconsistentOverlayState, id, vertex))
		}
		if e.From != vertex && e.To != vertex {
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// AddVertex synthesizes a vertex with a fresh negative id.
func (ds *DataSource) AddVertex(coord datastructure.Coordinate, kind datastructure.VertexKind,
	origin datastructure.ResolvedOrigin) datastructure.Vertex {
	ds.mustBeMutable()
	id := ds.nextVertexID
	ds.nextVertexID--
	ds.generation++

	v := datastructure.Vertex{ID: id, Coord: coord, Kind: kind, Origin: origin}
	ds.vertices[id] = slot[datastructure.Vertex]{value: v, generation: ds.generation}
	return v
}

// PutWay stores way as the current version of way.ID, superseding any
// previous version in this layer, its ancestors or the base graph.
func (ds *DataSource) PutWay(way datastructure.Way) error {
	ds.mustBeMutable()
	if len(way.Nodes) < 2 {
		return fmt.Errorf("way %d: needs at least 2 vertices, got %d", way.ID, len(way.Nodes))
	}
	for _, n := range way.Nodes {
		if _, ok := ds.Vertex(n); !ok {
			return fmt.Errorf("way %d: unknown vertex %d", way.ID, n)
		}
	}

	prev, hadPrev := ds.lookupWay(way.ID)

	ds.generation++
	ds.ways[way.ID] = slot[datastructure.Way]{value: way.Clone(), generation: ds.generation}

	for _, n := range way.Nodes {
		if !containsID(ds.vertexWays[n], way.ID) {
			ds.vertexWays[n] = append(ds.vertexWays[n], way.ID)
		}
	}
	if hadPrev {
		for _, n := range prev.value.Nodes {
			if containsID(way.Nodes, n) {
				continue
			}
			if local, ok := ds.vertexWays[n]; ok {
				ds.vertexWays[n] = removeID(local, way.ID)
			}
		}
	}
	return nil
}

// AddWay stores way under a fresh negative id, recording it as a piece of derivedFrom.
func (ds *DataSource) AddWay(way datastructure.Way, derivedFrom int64) (datastructure.Way, error) {
	ds.mustBeMutable()
	way.ID = ds.nextWayID
	if err := ds.PutWay(way); err != nil {
		return datastructure.Way{}, err
	}
	ds.nextWayID--
	ds.pieces[derivedFrom] = append(ds.pieces[derivedFrom], way.ID)
	ds.derived[way.ID] = derivedFrom
	return way, nil
}

// OriginWayID follows split pieces back to the way they were cut from.
func (ds *DataSource) OriginWayID(id int64) int64 {
	for {
		parent, ok := ds.derivedFrom(id)
		if !ok {
			return id
		}
		id = parent
	}
}

func (ds *DataSource) derivedFrom(id int64) (int64, bool) {
	for layer := ds; layer != nil; layer = layer.parent {
		if parent, ok := layer.derived[id]; ok {
			return parent, true
		}
	}
	return 0, false
}

// WayPieces returns the current version of id followed by every way split
// off from it, directly or transitively.
func (ds *DataSource) WayPieces(id int64) []datastructure.Way {
	out := make([]datastructure.Way, 0, 1)
	seen := map[int64]struct{}{}
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		if w, ok := ds.Way(cur); ok {
			out = append(out, w)
		}
		for layer := ds; layer != nil; layer = layer.parent {
			queue = append(queue, layer.pieces[cur]...)
		}
	}
	return out
}

// AddEdge stores an explicit directed edge under a fresh negative id.
func (ds *DataSource) AddEdge(e datastructure.Edge) (datastructure.Edge, error) {
	ds.mustBeMutable()
	if _, ok := ds.Vertex(e.From); !ok {
		return datastructure.Edge{}, fmt.Errorf("edge: unknown vertex %d", e.From)
	}
	if _, ok := ds.Vertex(e.To); !ok {
		return datastructure.Edge{}, fmt.Errorf("edge: unknown vertex %d", e.To)
	}
	e.ID = ds.nextEdgeID
	ds.nextEdgeID--
	ds.generation++
	ds.edges[e.ID] = slot[datastructure.Edge]{value: e, generation: ds.generation}
	ds.vertexEdges[e.From] = append(ds.vertexEdges[e.From], e.ID)
	if e.To != e.From {
		ds.vertexEdges[e.To] = append(ds.vertexEdges[e.To], e.ID)
	}
	return e, nil
}

// PutEdge stores e as the current version of e.ID, superseding the version
// held by this layer or its ancestors.
func (ds *DataSource) PutEdge(e datastructure.Edge) error {
	ds.mustBeMutable()
	if _, ok := ds.Edge(e.ID); !ok {
		return fmt.Errorf("edge %d: unknown edge", e.ID)
	}
	for _, n := range []int64{e.From, e.To} {
		if _, ok := ds.Vertex(n); !ok {
			return fmt.Errorf("edge %d: unknown vertex %d", e.ID, n)
		}
	}
	ds.generation++
	ds.edges[e.ID] = slot[datastructure.Edge]{value: e, generation: ds.generation}
	for _, n := range []int64{e.From, e.To} {
		if !containsID(ds.vertexEdges[n], e.ID) {
			ds.vertexEdges[n] = append(ds.vertexEdges[n], e.ID)
		}
	}
	return nil
}

// WayIDs returns the ids of all current ways, overlay ways first, ascending.
func (ds *DataSource) WayIDs() []int64 {
	lists := [][]int64{ds.base.wayIDs}
	for layer := ds; layer != nil; layer = layer.parent {
		ids := make([]int64, 0, len(layer.ways))
		for id := range layer.ways {
			ids = append(ids, id)
		}
		lists = append(lists, ids)
	}
	return mergeIDs(lists...)
}

// EdgeIDs returns the ids of all explicit overlay edges, ascending.
func (ds *DataSource) EdgeIDs() []int64 {
	lists := make([][]int64, 0, 2)
	for layer := ds; layer != nil; layer = layer.parent {
		ids := make([]int64, 0, len(layer.edges))
		for id := range layer.edges {
			ids = append(ids, id)
		}
		lists = append(lists, ids)
	}
	return mergeIDs(lists...)
}

// VertexIDs returns every vertex referenced by a current way or an explicit edge, ascending.
func (ds *DataSource) VertexIDs() []int64 {
	seen := make(map[int64]struct{})
	for _, id := range ds.WayIDs() {
		w, _ := ds.Way(id)
		for _, n := range w.Nodes {
			seen[n] = struct{}{}
		}
	}
	for _, id := range ds.EdgeIDs() {
		e, _ := ds.Edge(id)
		seen[e.From] = struct{}{}
		seen[e.To] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WayCoordinates resolves the coordinates of way's vertices.
func (ds *DataSource) WayCoordinates(way datastructure.Way) ([]datastructure.Coordinate, error) {
	coords := make([]datastructure.Coordinate, len(way.Nodes))
	for i, n := range way.Nodes {
		c, ok := ds.Coordinate(n)
		if !ok {
			return nil, fmt.Errorf("way %d: unknown vertex %d", way.ID, n)
		}
		coords[i] = c
	}
	return coords, nil
}
