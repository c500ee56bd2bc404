package datastructure

type VertexKind uint8

const (
	// BaseVertex comes from the loaded dataset, ids are >= 0.
	BaseVertex VertexKind = iota
	// ResolvedVertex is a projection of a query coordinate onto a way.
	ResolvedVertex
	// EndpointVertex is a per-way clone of a weighted vertex. Arrival
	// endpoints end a way piece, departure endpoints only carry edges.
	EndpointVertex
)

func (k VertexKind) String() string {
	switch k {
	case BaseVertex:
		return "base"
	case ResolvedVertex:
		return "resolved"
	case EndpointVertex:
		return "endpoint"
	default:
		return "unknown"
	}
}

// ResolvedOrigin records where a synthesized vertex came from.
type ResolvedOrigin struct {
	WayID        int64
	SegmentIndex int
	Fraction     float64
	// CloneOf is the vertex an EndpointVertex was cloned from.
	CloneOf int64
}

// Vertex ids of synthesized vertices are negative, so they never collide with base ids.
type Vertex struct {
	ID     int64
	Coord  Coordinate
	Kind   VertexKind
	Origin ResolvedOrigin
}

func NewBaseVertex(id int64, lat, lon float64) Vertex {
	return Vertex{ID: id, Coord: NewCoordinate(lat, lon), Kind: BaseVertex}
}

func IsSynthesizedID(id int64) bool {
	return id < 0
}

type EdgeFlags uint8

const (
	EdgeOneWayForward EdgeFlags = 1 << iota
	EdgeOneWayBackward
	// EdgeWeightedNodeShortcut marks the turn edges created by weighted-node
	// conversion. Each one runs from an arrival endpoint to the departure
	// endpoint of the way it turns into, both sit on the converted vertex.
	EdgeWeightedNodeShortcut
	// EdgeWeightedNodeDeparture marks the edge leaving a departure endpoint
	// along the first segment of its way.
	EdgeWeightedNodeDeparture
)

func (f EdgeFlags) Has(flag EdgeFlags) bool {
	return f&flag != 0
}

// Edge is a directed connection stored explicitly in an overlay. Edges implied
// by consecutive way vertices are not materialized, see graph.Arc.
type Edge struct {
	ID     int64
	From   int64
	To     int64
	TagsID uint32
	Flags  EdgeFlags
}
