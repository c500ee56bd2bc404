package datastructure

type PrimitiveKind uint8

const (
	NodePrimitive PrimitiveKind = iota
	WayPrimitive
	RelationPrimitive
)

func (k PrimitiveKind) String() string {
	switch k {
	case NodePrimitive:
		return "node"
	case WayPrimitive:
		return "way"
	case RelationPrimitive:
		return "relation"
	default:
		return "unknown"
	}
}

// Primitive is the closed set {Node, Way, Relation}. Only this package can
// add implementations, callers switch on the concrete type.
type Primitive interface {
	Kind() PrimitiveKind
	PrimitiveID() int64
	Tags() uint32
	isPrimitive()
}

type Node struct {
	ID     int64
	Coord  Coordinate
	TagsID uint32
}

func (n Node) Kind() PrimitiveKind { return NodePrimitive }
func (n Node) PrimitiveID() int64  { return n.ID }
func (n Node) Tags() uint32        { return n.TagsID }
func (Node) isPrimitive()          {}

// Way is an ordered vertex sequence sharing one tag set. Consecutive vertices
// form the segments that routing traverses.
type Way struct {
	ID     int64
	Nodes  []int64
	TagsID uint32
}

func (w Way) Kind() PrimitiveKind { return WayPrimitive }
func (w Way) PrimitiveID() int64  { return w.ID }
func (w Way) Tags() uint32        { return w.TagsID }
func (Way) isPrimitive()          {}

// IsClosed reports whether the way is a ring (first vertex == last vertex).
func (w Way) IsClosed() bool {
	return len(w.Nodes) > 3 && w.Nodes[0] == w.Nodes[len(w.Nodes)-1]
}

func (w Way) Clone() Way {
	nodes := make([]int64, len(w.Nodes))
	copy(nodes, w.Nodes)
	return Way{ID: w.ID, Nodes: nodes, TagsID: w.TagsID}
}

// IndexOf returns every position of vertex in the way.
func (w Way) IndexOf(vertex int64) []int {
	pos := make([]int, 0, 1)
	for i, n := range w.Nodes {
		if n == vertex {
			pos = append(pos, i)
		}
	}
	return pos
}

type Member struct {
	Type PrimitiveKind
	Ref  int64
	Role string
}

type Relation struct {
	ID      int64
	TagsID  uint32
	Members []Member
}

func (r Relation) Kind() PrimitiveKind { return RelationPrimitive }
func (r Relation) PrimitiveID() int64  { return r.ID }
func (r Relation) Tags() uint32        { return r.TagsID }
func (Relation) isPrimitive()          {}

// MembersByRole returns the refs of members with the given type and role.
func (r Relation) MembersByRole(kind PrimitiveKind, role string) []int64 {
	refs := make([]int64, 0, 1)
	for _, m := range r.Members {
		if m.Type == kind && m.Role == role {
			refs = append(refs, m.Ref)
		}
	}
	return refs
}
