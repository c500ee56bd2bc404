package snap

import (
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/geo"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// SpatialIndex returns the ids of ways that may intersect bound.
type SpatialIndex interface {
	Query(bound orb.Bound) []int64
}

// WayMatcher optionally narrows the candidate ways.
type WayMatcher func(way datastructure.Way, tags datastructure.TagsCollection) bool

const (
	// projections closer than this to a segment end reuse that vertex.
	endpointSnapDistance = 0.01 // meter
)

// Resolution is the outcome of snapping a coordinate onto the road network.
// Way is the matched way as it was before the new vertex was spliced in.
type Resolution struct {
	Way        datastructure.Way
	Vertex     datastructure.Vertex
	Projection geo.Projection
}

type PointResolver struct {
	index       SpatialIndex
	interpreter *interpreter.Interpreter
	log         *zap.Logger
}

func NewPointResolver(index SpatialIndex, in *interpreter.Interpreter, log *zap.Logger) *PointResolver {
	return &PointResolver{index: index, interpreter: in, log: log}
}

type candidate struct {
	way  datastructure.Way
	proj geo.Projection
}

// closestWay scans the current versions of the indexed ways inside the search
// box and keeps the closest one accepted by accept.
func (r *PointResolver) closestWay(ds *graph.DataSource, coord datastructure.Coordinate, radius float64,
	accept func(datastructure.Way, datastructure.TagsCollection) bool) (candidate, bool) {
	var (
		best  candidate
		found bool
	)
	seen := make(map[int64]struct{})
	for _, id := range r.index.Query(geo.BoundingBox(coord, radius)) {
		for _, way := range ds.WayPieces(id) {
			if _, ok := seen[way.ID]; ok {
				continue
			}
			seen[way.ID] = struct{}{}

			if !accept(way, ds.Tags().Get(way.TagsID)) {
				continue
			}
			proj, ok := r.project(ds, way, coord)
			if !ok || proj.Distance > radius {
				continue
			}
			if !found || proj.Distance < best.proj.Distance ||
				(proj.Distance == best.proj.Distance && way.ID < best.way.ID) {
				best = candidate{way: way, proj: proj}
				found = true
			}
		}
	}
	return best, found
}

func (r *PointResolver) project(ds *graph.DataSource, way datastructure.Way, coord datastructure.Coordinate) (geo.Projection, bool) {
	coords, err := ds.WayCoordinates(way)
	if err == nil {
		var proj geo.Projection
		proj, err = geo.ClosestPointOnLine(coords, coord, way.IsClosed())
		if err == nil {
			return proj, true
		}
	}
	r.log.Warn("skipping malformed way geometry", zap.Int64("way_id", way.ID), zap.Error(err))
	return geo.Projection{}, false
}

// ResolveAndAddNode snaps coord onto the closest way vehicle may use within
// radius meters and splices a vertex for it into ds. The second result is
// false when no way qualifies, which is not an error.
func (r *PointResolver) ResolveAndAddNode(ds *graph.DataSource, vehicle interpreter.Vehicle, coord datastructure.Coordinate,
	radius float64, matcher WayMatcher) (Resolution, bool, error) {
	best, found := r.closestWay(ds, coord, radius, func(way datastructure.Way, tags datastructure.TagsCollection) bool {
		if !r.interpreter.CanTraverse(tags, vehicle) {
			return false
		}
		return matcher == nil || matcher(way, tags)
	})
	if !found {
		return Resolution{}, false, nil
	}
	v, err := r.splice(ds, best.way, best.proj)
	if err != nil {
		return Resolution{}, false, err
	}
	return Resolution{Way: best.way, Vertex: v, Projection: best.proj}, true, nil
}

// ResolveOnWay splices coord onto wayID, or onto whichever piece of it the
// coordinate now lies on. It replays an earlier resolution in another DataSource.
func (r *PointResolver) ResolveOnWay(ds *graph.DataSource, wayID int64, coord datastructure.Coordinate) (Resolution, bool, error) {
	var (
		best  candidate
		found bool
	)
	for _, way := range ds.WayPieces(wayID) {
		proj, ok := r.project(ds, way, coord)
		if !ok {
			continue
		}
		if !found || proj.Distance < best.proj.Distance {
			best = candidate{way: way, proj: proj}
			found = true
		}
	}
	if !found {
		return Resolution{}, false, nil
	}
	v, err := r.splice(ds, best.way, best.proj)
	if err != nil {
		return Resolution{}, false, err
	}
	return Resolution{Way: best.way, Vertex: v, Projection: best.proj}, true, nil
}

// splice inserts a resolved vertex at proj into a copy of way, or returns the
// segment end the projection coincides with. Endpoints of converted vertices
// are never reused, a point on them gets its own vertex on the piece.
func (r *PointResolver) splice(ds *graph.DataSource, way datastructure.Way, proj geo.Projection) (datastructure.Vertex, error) {
	seg := proj.SegmentIndex
	p, q := way.Nodes[seg], way.Nodes[seg+1]
	for _, end := range []int64{p, q} {
		v, _ := ds.Vertex(end)
		if v.Kind != datastructure.EndpointVertex && geo.GreatCircleDistance(v.Coord, proj.Coord) <= endpointSnapDistance {
			return v, nil
		}
	}

	v := ds.AddVertex(proj.Coord, datastructure.ResolvedVertex, datastructure.ResolvedOrigin{
		WayID:        way.ID,
		SegmentIndex: seg,
		Fraction:     proj.Fraction,
	})

	nodes := make([]int64, 0, len(way.Nodes)+1)
	nodes = append(nodes, way.Nodes[:seg+1]...)
	nodes = append(nodes, v.ID)
	nodes = append(nodes, way.Nodes[seg+1:]...)

	tags := ds.Tags().Get(way.TagsID).Set(interpreter.ResolvedMarkerKey, "yes")
	err := ds.PutWay(datastructure.Way{ID: way.ID, Nodes: nodes, TagsID: ds.Tags().Add(tags)})
	if err != nil {
		return datastructure.Vertex{}, err
	}
	if err := splitDeparture(ds, p, q, v.ID); err != nil {
		return datastructure.Vertex{}, err
	}
	if err := splitDeparture(ds, q, p, v.ID); err != nil {
		return datastructure.Vertex{}, err
	}
	return v, nil
}

// splitDeparture shortens the departure edge running from arrival's
// converted vertex to other so it ends at the spliced vertex. Arrival
// endpoints are never left along their way, without this the spliced vertex
// would only be reachable from other.
func splitDeparture(ds *graph.DataSource, arrival, other, spliced int64) error {
	a, ok := ds.Vertex(arrival)
	if !ok || a.Kind != datastructure.EndpointVertex {
		return nil
	}
	for _, e := range ds.EdgesAt(other) {
		if e.To != other || !e.Flags.Has(datastructure.EdgeWeightedNodeDeparture) {
			continue
		}
		// both clones of an arm share their origin.
		if d, _ := ds.Vertex(e.From); d.Origin != a.Origin {
			continue
		}
		e.To = spliced
		return ds.PutEdge(e)
	}
	return nil
}
