package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
)

// GraphLoader produces the immutable base graph from a persisted store.
type GraphLoader interface {
	Load(ctx context.Context) (*BaseGraph, error)
}

// BaseGraph is the loaded road network. It is never modified after Build and
// is shared by every DataSource without locking.
type BaseGraph struct {
	vertices     map[int64]datastructure.Vertex
	ways         map[int64]datastructure.Way
	relations    map[int64]datastructure.Relation
	nodeTags     map[int64]uint32
	vertexWays   map[int64][]int64
	viaRelations map[int64][]int64
	wayIDs       []int64
	tags         *datastructure.TagsIndex
}

func (g *BaseGraph) Vertex(id int64) (datastructure.Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

func (g *BaseGraph) Way(id int64) (datastructure.Way, bool) {
	w, ok := g.ways[id]
	return w, ok
}

func (g *BaseGraph) Relation(id int64) (datastructure.Relation, bool) {
	r, ok := g.relations[id]
	return r, ok
}

// WayIDs returns every way id in ascending order.
func (g *BaseGraph) WayIDs() []int64 {
	return g.wayIDs
}

func (g *BaseGraph) NumVertices() int {
	return len(g.vertices)
}

func (g *BaseGraph) NumWays() int {
	return len(g.ways)
}

func (g *BaseGraph) Tags() *datastructure.TagsIndex {
	return g.tags
}

// Builder assembles a BaseGraph. It is not safe for concurrent use.
type Builder struct {
	g     *BaseGraph
	built bool
}

func NewBuilder(tags *datastructure.TagsIndex) *Builder {
	if tags == nil {
		tags = datastructure.NewTagsIndex()
	}
	return &Builder{
		g: &BaseGraph{
			vertices:     make(map[int64]datastructure.Vertex),
			ways:         make(map[int64]datastructure.Way),
			relations:    make(map[int64]datastructure.Relation),
			nodeTags:     make(map[int64]uint32),
			vertexWays:   make(map[int64][]int64),
			viaRelations: make(map[int64][]int64),
			tags:         tags,
		},
	}
}

func (b *Builder) AddVertex(id int64, coord datastructure.Coordinate) error {
	if id < 0 {
		return fmt.Errorf("base vertex id must be non-negative, got %d", id)
	}
	if !coord.Valid() {
		return fmt.Errorf("vertex %d: invalid coordinate %v", id, coord)
	}
	b.g.vertices[id] = datastructure.Vertex{ID: id, Coord: coord, Kind: datastructure.BaseVertex}
	return nil
}

func (b *Builder) SetNodeTags(id int64, tags datastructure.TagsCollection) {
	if len(tags) == 0 {
		return
	}
	b.g.nodeTags[id] = b.g.tags.Add(tags)
}

// AddWay registers a way, every referenced vertex must already exist.
func (b *Builder) AddWay(id int64, nodes []int64, tags datastructure.TagsCollection) error {
	if id < 0 {
		return fmt.Errorf("base way id must be non-negative, got %d", id)
	}
	if len(nodes) < 2 {
		return fmt.Errorf("way %d: needs at least 2 vertices, got %d", id, len(nodes))
	}
	for _, n := range nodes {
		if _, ok := b.g.vertices[n]; !ok {
			return fmt.Errorf("way %d: unknown vertex %d", id, n)
		}
	}
	if _, ok := b.g.ways[id]; ok {
		return fmt.Errorf("way %d: duplicate id", id)
	}

	way := datastructure.Way{ID: id, Nodes: append([]int64(nil), nodes...), TagsID: b.g.tags.Add(tags)}
	b.g.ways[id] = way
	b.g.wayIDs = append(b.g.wayIDs, id)

	seen := make(map[int64]struct{}, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		b.g.vertexWays[n] = append(b.g.vertexWays[n], id)
	}
	return nil
}

// AddRelation registers a relation. Turn restrictions are indexed by their via node.
func (b *Builder) AddRelation(id int64, members []datastructure.Member, tags datastructure.TagsCollection) {
	rel := datastructure.Relation{ID: id, TagsID: b.g.tags.Add(tags), Members: members}
	b.g.relations[id] = rel
	if tags.Find("type") != "restriction" {
		return
	}
	for _, via := range rel.MembersByRole(datastructure.NodePrimitive, "via") {
		b.g.viaRelations[via] = append(b.g.viaRelations[via], id)
	}
}

// Build freezes the graph. The builder must not be used afterwards.
func (b *Builder) Build() *BaseGraph {
	if b.built {
		panic("graph: Build called twice")
	}
	b.built = true
	sort.Slice(b.g.wayIDs, func(i, j int) bool {
		return b.g.wayIDs[i] < b.g.wayIDs[j]
	})
	for v := range b.g.vertexWays {
		ids := b.g.vertexWays[v]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	for v := range b.g.viaRelations {
		ids := b.g.viaRelations[v]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return b.g
}
