package routingalgorithm

import "github.com/OsmSharp/ui-sub009/pkg/datastructure"

// ContractedGraph is the read side of a contracted graph. Edge ids index one
// shared edge array, in-edge lists hold the ids of edges ending at a node.
type ContractedGraph interface {
	GetNumNodes() int
	GetNode(nodeID int32) datastructure.CHNode
	GetNodeFirstOutEdges(nodeID int32) []int32
	GetNodeFirstInEdges(nodeID int32) []int32
	GetEdge(edgeID int32) datastructure.EdgeCH
}
