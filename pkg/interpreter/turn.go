package interpreter

import (
	"strings"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
)

// TurnContext gives CanBeTraversed the node tags, restriction relations and
// current ways it needs. graph.DataSource implements it.
type TurnContext interface {
	Way(id int64) (datastructure.Way, bool)
	OriginWayID(id int64) int64
	NodeTags(vertex int64) datastructure.TagsCollection
	RestrictionsVia(vertex int64) []datastructure.Relation
	Tags() *datastructure.TagsIndex
}

var (
	barriersBlockingAll = map[string]struct{}{
		"wall": {}, "fence": {}, "hedge": {}, "retaining_wall": {}, "city_wall": {}, "ditch": {},
	}
	barriersBlockingMotor = map[string]struct{}{
		"bollard": {}, "block": {}, "jersey_barrier": {}, "kissing_gate": {}, "stile": {},
		"turnstile": {}, "cycle_barrier": {}, "log": {}, "planter": {}, "chain": {},
	}
	barriersBlockingBicycle = map[string]struct{}{
		"stile": {}, "turnstile": {}, "kissing_gate": {},
	}
)

// IsBlockingBarrier reports whether a node with tags stops v from passing.
func (i *Interpreter) IsBlockingBarrier(tags datastructure.TagsCollection, v Vehicle) bool {
	barrier := tags.Find("barrier")
	if barrier == "" {
		return false
	}
	for _, key := range v.AccessKeys() {
		if isGranted(tags.Find(key)) {
			return false
		}
	}
	if _, ok := barriersBlockingAll[barrier]; ok {
		return true
	}
	switch {
	case v.IsMotorVehicle():
		_, ok := barriersBlockingMotor[barrier]
		return ok || isRestricted(tags.Find("access"))
	case v == Bicycle:
		_, ok := barriersBlockingBicycle[barrier]
		return ok
	}
	return false
}

// stepDirection reports whether a->b follows way's vertex order.
func stepDirection(way datastructure.Way, a, b int64) (forward bool, found bool) {
	for i := 0; i+1 < len(way.Nodes); i++ {
		if way.Nodes[i] == a && way.Nodes[i+1] == b {
			return true, true
		}
	}
	for i := 0; i+1 < len(way.Nodes); i++ {
		if way.Nodes[i] == b && way.Nodes[i+1] == a {
			return false, true
		}
	}
	return false, false
}

func (i *Interpreter) canStep(ctx TurnContext, v Vehicle, wayID, a, b int64) bool {
	way, ok := ctx.Way(wayID)
	if !ok {
		return false
	}
	forward, found := stepDirection(way, a, b)
	if !found {
		return false
	}
	tags := ctx.Tags().Get(way.TagsID)
	if !i.CanTraverse(tags, v) {
		return false
	}
	if dir, oneway := i.IsOneWay(tags, v); oneway && (dir == Forward) != forward {
		return false
	}
	return true
}

func restrictionValue(tags datastructure.TagsCollection, v Vehicle) string {
	for _, key := range v.AccessKeys() {
		if val := tags.Find("restriction:" + key); val != "" {
			return val
		}
	}
	if v == Pedestrian {
		return ""
	}
	return tags.Find("restriction")
}

func exempted(tags datastructure.TagsCollection, v Vehicle) bool {
	except := tags.Find("except")
	if except == "" {
		return false
	}
	for _, e := range strings.Split(except, ";") {
		e = strings.TrimSpace(e)
		for _, key := range v.AccessKeys() {
			if e == key {
				return true
			}
		}
	}
	return false
}

func containsRef(refs []int64, id int64) bool {
	for _, r := range refs {
		if r == id {
			return true
		}
	}
	return false
}

// CanBeTraversed reports whether v may arrive at via from `from` on wayFrom
// and leave it towards `to` on wayTo. from and to are the vertices adjacent
// to via on the respective ways.
func (i *Interpreter) CanBeTraversed(ctx TurnContext, v Vehicle, from, wayFrom, via, wayTo, to int64) bool {
	if i.IsBlockingBarrier(ctx.NodeTags(via), v) {
		return false
	}
	if wayFrom == wayTo && from == to {
		return false
	}
	if !i.canStep(ctx, v, wayFrom, from, via) || !i.canStep(ctx, v, wayTo, via, to) {
		return false
	}

	originFrom := ctx.OriginWayID(wayFrom)
	originTo := ctx.OriginWayID(wayTo)
	for _, rel := range ctx.RestrictionsVia(via) {
		tags := ctx.Tags().Get(rel.TagsID)
		restriction := restrictionValue(tags, v)
		if restriction == "" || exempted(tags, v) {
			continue
		}
		if !containsRef(rel.MembersByRole(datastructure.WayPrimitive, "from"), originFrom) {
			continue
		}
		toMatches := containsRef(rel.MembersByRole(datastructure.WayPrimitive, "to"), originTo)
		switch {
		case strings.HasPrefix(restriction, "no_") && toMatches:
			return false
		case strings.HasPrefix(restriction, "only_") && !toMatches:
			return false
		}
	}
	return true
}
