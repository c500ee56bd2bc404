package graph

import (
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
)

// ArcWeigher decides whether a directed step is legal and what it costs.
// forward reports whether the step follows the way's vertex order.
type ArcWeigher interface {
	ArcWeight(tags datastructure.TagsCollection, flags datastructure.EdgeFlags, forward bool,
		from, to datastructure.Coordinate) (float64, bool)
}

// Arc is one legal directed step between adjacent vertices. Way arcs come
// from consecutive way vertices, explicit overlay edges carry EdgeID < 0.
type Arc struct {
	From    int64
	To      int64
	WayID   int64
	EdgeID  int64
	TagsID  uint32
	Flags   datastructure.EdgeFlags
	Forward bool
	Weight  float64
}

func (a Arc) IsExplicitEdge() bool {
	return a.EdgeID < 0
}

// WeightedArcs returns the legal arcs leaving v, or entering v when reverse is set.
func (ds *DataSource) WeightedArcs(v int64, w ArcWeigher, reverse bool) []Arc {
	arcs := make([]Arc, 0, 4)
	for _, way := range ds.WaysAt(v) {
		tags := ds.Tags().Get(way.TagsID)
		for i, n := range way.Nodes {
			if n != v {
				continue
			}
			if i+1 < len(way.Nodes) {
				if reverse {
					// way.Nodes[i+1] -> v runs against the way.
					arcs = ds.appendWayArc(arcs, w, way, tags, way.Nodes[i+1], v, false)
				} else {
					arcs = ds.appendWayArc(arcs, w, way, tags, v, way.Nodes[i+1], true)
				}
			}
			if i > 0 {
				if reverse {
					arcs = ds.appendWayArc(arcs, w, way, tags, way.Nodes[i-1], v, true)
				} else {
					arcs = ds.appendWayArc(arcs, w, way, tags, v, way.Nodes[i-1], false)
				}
			}
		}
	}

	for _, e := range ds.EdgesAt(v) {
		if (!reverse && e.From != v) || (reverse && e.To != v) {
			continue
		}
		arcs = ds.appendEdgeArc(arcs, w, e)
	}
	return arcs
}

// appendWayArc skips arcs leaving an arrival endpoint, a converted vertex is
// only left through its turn edges.
func (ds *DataSource) appendWayArc(arcs []Arc, w ArcWeigher, way datastructure.Way,
	tags datastructure.TagsCollection, from, to int64, forward bool) []Arc {
	fromVertex, ok := ds.Vertex(from)
	if !ok || fromVertex.Kind == datastructure.EndpointVertex {
		return arcs
	}
	fromCoord := fromVertex.Coord
	toCoord, ok := ds.Coordinate(to)
	if !ok {
		return arcs
	}
	weight, legal := w.ArcWeight(tags, 0, forward, fromCoord, toCoord)
	if !legal {
		return arcs
	}
	return append(arcs, Arc{
		From:    from,
		To:      to,
		WayID:   way.ID,
		TagsID:  way.TagsID,
		Forward: forward,
		Weight:  weight,
	})
}

func (ds *DataSource) appendEdgeArc(arcs []Arc, w ArcWeigher, e datastructure.Edge) []Arc {
	fromCoord, ok := ds.Coordinate(e.From)
	if !ok {
		return arcs
	}
	toCoord, ok := ds.Coordinate(e.To)
	if !ok {
		return arcs
	}
	weight, legal := w.ArcWeight(ds.Tags().Get(e.TagsID), e.Flags, true, fromCoord, toCoord)
	if !legal {
		return arcs
	}
	return append(arcs, Arc{
		From:    e.From,
		To:      e.To,
		EdgeID:  e.ID,
		TagsID:  e.TagsID,
		Flags:   e.Flags,
		Forward: true,
		Weight:  weight,
	})
}

// AllArcs enumerates every legal arc of the current graph, way arcs first in
// way id order, then explicit edges.
func (ds *DataSource) AllArcs(w ArcWeigher) []Arc {
	arcs := make([]Arc, 0)
	for _, id := range ds.WayIDs() {
		way, _ := ds.Way(id)
		tags := ds.Tags().Get(way.TagsID)
		for i := 0; i+1 < len(way.Nodes); i++ {
			arcs = ds.appendWayArc(arcs, w, way, tags, way.Nodes[i], way.Nodes[i+1], true)
			arcs = ds.appendWayArc(arcs, w, way, tags, way.Nodes[i+1], way.Nodes[i], false)
		}
	}
	for _, id := range ds.EdgeIDs() {
		e, _ := ds.Edge(id)
		arcs = ds.appendEdgeArc(arcs, w, e)
	}
	return arcs
}
