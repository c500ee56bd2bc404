package datastructure

// CHNode is a vertex of the contracted graph addressed by its dense index.
type CHNode struct {
	ID       int32
	VertexID int64
	Lat      float64
	Lon      float64
	OrderPos int32
}

func NewCHNode(id int32, vertexID int64, coord Coordinate) CHNode {
	return CHNode{
		ID:       id,
		VertexID: vertexID,
		Lat:      coord.Lat,
		Lon:      coord.Lon,
		OrderPos: -1,
	}
}

func (n CHNode) Coord() Coordinate {
	return NewCoordinate(n.Lat, n.Lon)
}

// EdgeCH is a directed edge of the contracted graph. An original edge
// remembers the graph arc it came from, a shortcut remembers the bypassed
// node and the two edges it replaces.
type EdgeCH struct {
	EdgeID     int32
	Weight     float64 // second
	Dist       float64 // meter
	FromNodeID int32
	ToNodeID   int32

	IsShortcut     bool
	ViaNodeID      int32
	RemovedEdgeOne int32
	RemovedEdgeTwo int32

	WayID         int64
	OverlayEdgeID int64
	TagsID        uint32
	Forward       bool
	Flags         EdgeFlags
}

func NewEdgeCHPlain(edgeID int32, weight, dist float64, toNodeID, fromNodeID int32) EdgeCH {
	return EdgeCH{
		EdgeID:         edgeID,
		Weight:         weight,
		Dist:           dist,
		ToNodeID:       toNodeID,
		FromNodeID:     fromNodeID,
		ViaNodeID:      -1,
		RemovedEdgeOne: -1,
		RemovedEdgeTwo: -1,
	}
}

func NewShortcutEdgeCH(edgeID int32, in, out EdgeCH, viaNodeID int32) EdgeCH {
	return EdgeCH{
		EdgeID:         edgeID,
		Weight:         in.Weight + out.Weight,
		Dist:           in.Dist + out.Dist,
		FromNodeID:     in.FromNodeID,
		ToNodeID:       out.ToNodeID,
		IsShortcut:     true,
		ViaNodeID:      viaNodeID,
		RemovedEdgeOne: in.EdgeID,
		RemovedEdgeTwo: out.EdgeID,
	}
}
