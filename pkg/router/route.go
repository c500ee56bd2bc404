package router

import (
	"strings"

	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/geo"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
)

// internal tags are added by the overlay and never leave the router.
const internalTagPrefix = "_router:"

// leg is one traversed step of a route.
type leg struct {
	to     datastructure.Coordinate
	weight float64 // second
	dist   float64 // meter
	tagsID uint32
}

func arcLegs(ds *graph.DataSource, arcs []graph.Arc) []leg {
	legs := make([]leg, 0, len(arcs))
	for _, a := range arcs {
		from, _ := ds.Coordinate(a.From)
		to, _ := ds.Coordinate(a.To)
		legs = append(legs, leg{to: to, weight: a.Weight, dist: geo.GreatCircleDistance(from, to), tagsID: a.TagsID})
	}
	return legs
}

func chLegs(ch *contractor.ContractedGraph, edges []datastructure.EdgeCH) []leg {
	legs := make([]leg, 0, len(edges))
	for _, e := range edges {
		legs = append(legs, leg{to: ch.GetNode(e.ToNodeID).Coord(), weight: e.Weight, dist: e.Dist, tagsID: e.TagsID})
	}
	return legs
}

func publicTags(tags datastructure.TagsCollection) datastructure.TagsCollection {
	out := make(datastructure.TagsCollection, 0, len(tags))
	for _, t := range tags {
		if strings.HasPrefix(t.Key, internalTagPrefix) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// assembleRoute accumulates distance and time along legs starting at start.
// Zero length legs, the turns across a converted vertex, add no point.
func assembleRoute(v interpreter.Vehicle, start datastructure.Coordinate, legs []leg, tags *datastructure.TagsIndex) datastructure.Route {
	route := datastructure.Route{
		Vehicle: v.String(),
		Points:  make([]datastructure.RoutePoint, 0, len(legs)+1),
	}
	route.Points = append(route.Points, datastructure.RoutePoint{Coord: start})

	dist, time := 0.0, 0.0
	for _, l := range legs {
		if l.dist == 0 && l.weight == 0 {
			continue
		}
		dist += l.dist
		time += l.weight
		route.Points = append(route.Points, datastructure.RoutePoint{
			Coord:    l.to,
			Distance: dist,
			Time:     time,
			Tags:     publicTags(tags.Get(l.tagsID)),
		})
	}
	route.TotalDistance = dist
	route.TotalTime = time
	return route
}

// Simplify drops points that lie within geo's Douglas-Peucker tolerance of
// the remaining line. Cumulative values of kept points are unchanged.
func Simplify(route datastructure.Route) datastructure.Route {
	if len(route.Points) < 3 {
		return route
	}
	kept := geo.RamerDouglasPeucker(route.Coordinates())
	out := route
	out.Points = make([]datastructure.RoutePoint, 0, len(kept))
	i := 0
	for _, c := range kept {
		for i < len(route.Points) && route.Points[i].Coord != c {
			i++
		}
		if i == len(route.Points) {
			break
		}
		out.Points = append(out.Points, route.Points[i])
		i++
	}
	return out
}
