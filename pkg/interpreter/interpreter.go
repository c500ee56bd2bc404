package interpreter

import (
	"strings"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/geo"
)

// ResolvedMarkerKey tags ways the point resolver has split. It carries no
// routing meaning and is ignored by every rule below.
const ResolvedMarkerKey = "_router:resolved"

// WeightedNodeMarkerKey tags the turn edges created by weighted-node
// conversion. Its value is the id of the converted vertex.
const WeightedNodeMarkerKey = "_router:weighted_node"

type Direction uint8

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Interpreter turns way tags into legality, direction, speed and weight for
// a vehicle. It holds no mutable state after construction and is safe for
// concurrent use.
type Interpreter struct {
	speeds SpeedTable
}

type Option func(*Interpreter)

// WithSpeeds installs per-vehicle speed overrides.
func WithSpeeds(speeds SpeedTable) Option {
	return func(i *Interpreter) {
		copied := make(SpeedTable, len(speeds))
		for v, row := range speeds {
			r := make(map[string]float64, len(row))
			for k, s := range row {
				r[k] = s
			}
			copied[v] = r
		}
		i.speeds = copied
	}
}

func NewInterpreter(opts ...Option) *Interpreter {
	i := &Interpreter{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func isRestricted(value string) bool {
	switch value {
	case "no", "restricted", "military", "emergency", "private", "permit", "agricultural", "forestry":
		return true
	}
	return false
}

func isGranted(value string) bool {
	switch value {
	case "yes", "designated", "permissive", "destination", "delivery", "customers":
		return true
	}
	return false
}

func hasConditional(tags datastructure.TagsCollection, v Vehicle) bool {
	if tags.Has("access:conditional") {
		return true
	}
	for _, key := range v.AccessKeys() {
		if tags.Has(key + ":conditional") {
			return true
		}
	}
	return false
}

// CanTraverse reports whether v may use a way with tags. Overrides are
// evaluated in a fixed order: motor_vehicle veto, conditional access,
// bicycle/foot designation, vehicle specific access, generic access and
// finally the highway class table.
func (i *Interpreter) CanTraverse(tags datastructure.TagsCollection, v Vehicle) bool {
	if !v.Valid() {
		return false
	}
	highway := tags.Find("highway")
	classAllowed, known := highwayAccess[highway]
	if !known {
		return false
	}

	if v.IsMotorVehicle() && isRestricted(tags.Find("motor_vehicle")) {
		return false
	}

	// Time and season conditions are not evaluated, any conditional
	// restriction is treated as permissive.
	if hasConditional(tags, v) {
		return true
	}

	switch v {
	case Bicycle:
		if val := tags.Find("bicycle"); isGranted(val) {
			return true
		} else if isRestricted(val) {
			return false
		}
	case Pedestrian:
		if val := tags.Find("foot"); isGranted(val) {
			return true
		} else if isRestricted(val) {
			return false
		}
	}

	for _, key := range v.AccessKeys() {
		val := tags.Find(key)
		if isGranted(val) {
			return true
		}
		if isRestricted(val) {
			return false
		}
	}

	if isRestricted(tags.Find("access")) {
		return false
	}
	return classAllowed.has(v)
}

// IsOneWay returns the single allowed direction for v, or false when the way
// can be used both ways.
func (i *Interpreter) IsOneWay(tags datastructure.TagsCollection, v Vehicle) (Direction, bool) {
	if v == Pedestrian {
		return onewayValue(tags.Find("oneway:foot"))
	}
	if v == Bicycle {
		if val := tags.Find("oneway:bicycle"); val != "" {
			return onewayValue(val)
		}
		if strings.HasPrefix(tags.Find("cycleway"), "opposite") {
			return Forward, false
		}
	}

	if v.IsMotorVehicle() || v == Bicycle {
		forwardBlocked := isRestricted(tags.Find("vehicle:forward"))
		backwardBlocked := isRestricted(tags.Find("vehicle:backward"))
		if v.IsMotorVehicle() {
			forwardBlocked = forwardBlocked || isRestricted(tags.Find("motor_vehicle:forward"))
			backwardBlocked = backwardBlocked || isRestricted(tags.Find("motor_vehicle:backward"))
		}
		if forwardBlocked && !backwardBlocked {
			return Backward, true
		}
		if backwardBlocked && !forwardBlocked {
			return Forward, true
		}
	}

	if val := tags.Find("oneway"); val != "" {
		return onewayValue(val)
	}
	if i.IsRoundabout(tags) {
		return Forward, true
	}
	switch tags.Find("highway") {
	case "motorway", "motorway_link":
		return Forward, true
	}
	return Forward, false
}

func onewayValue(val string) (Direction, bool) {
	switch val {
	case "yes", "true", "1":
		return Forward, true
	case "-1", "reverse":
		return Backward, true
	}
	return Forward, false
}

func (i *Interpreter) IsRoundabout(tags datastructure.TagsCollection) bool {
	switch tags.Find("junction") {
	case "roundabout", "circular":
		return true
	}
	return false
}

// IsOnlyLocalAccessible reports ways that may be used to reach a destination
// on them but not as a through route.
func (i *Interpreter) IsOnlyLocalAccessible(tags datastructure.TagsCollection) bool {
	for _, key := range []string{"access", "motor_vehicle", "vehicle", "motorcar"} {
		switch tags.Find(key) {
		case "destination", "delivery", "customers", "private":
			return true
		}
	}
	switch tags.Find("service") {
	case "driveway", "parking_aisle":
		return true
	}
	return false
}

// MaxSpeed returns the speed v travels on a way with tags, in km/h.
func (i *Interpreter) MaxSpeed(v Vehicle, tags datastructure.TagsCollection) float64 {
	if !v.Valid() {
		return 0
	}
	if speed, ok := ParseMaxSpeed(tags.Find("maxspeed")); ok {
		return min(speed, vehicleMaxSpeed[v])
	}
	if tags.Find("maxspeed") == "none" {
		return vehicleMaxSpeed[v]
	}
	highway := tags.Find("highway")
	if speed, ok := i.speeds.lookup(v, highway); ok {
		return min(speed, vehicleMaxSpeed[v])
	}
	return DefaultSpeed(v, highway)
}

// TopSpeed is the highest speed MaxSpeed can return for v, in km/h.
func TopSpeed(v Vehicle) float64 {
	if !v.Valid() {
		return 0
	}
	return vehicleMaxSpeed[v]
}

// Weight is the travel time in seconds between two consecutive way vertices.
func (i *Interpreter) Weight(tags datastructure.TagsCollection, v Vehicle, from, to datastructure.Coordinate) float64 {
	speed := i.MaxSpeed(v, tags)
	if speed <= 0 {
		return 0
	}
	return geo.GreatCircleDistance(from, to) / speed * 3.6
}

// Weigher binds the interpreter to one vehicle for graph arc enumeration.
func (i *Interpreter) Weigher(v Vehicle) VehicleWeigher {
	return VehicleWeigher{interpreter: i, vehicle: v}
}

type VehicleWeigher struct {
	interpreter *Interpreter
	vehicle     Vehicle
}

func (w VehicleWeigher) Vehicle() Vehicle {
	return w.vehicle
}

func (w VehicleWeigher) Interpreter() *Interpreter {
	return w.interpreter
}

// ArcWeight implements graph.ArcWeigher. Weighted-node turn and departure
// edges were checked for legality when they were created; they carry the tags
// of the way they leave on and may only be used in their stored direction.
func (w VehicleWeigher) ArcWeight(tags datastructure.TagsCollection, flags datastructure.EdgeFlags, forward bool,
	from, to datastructure.Coordinate) (float64, bool) {
	if flags.Has(datastructure.EdgeWeightedNodeShortcut | datastructure.EdgeWeightedNodeDeparture) {
		if !forward {
			return 0, false
		}
		return w.interpreter.Weight(tags, w.vehicle, from, to), true
	}
	if !w.interpreter.CanTraverse(tags, w.vehicle) {
		return 0, false
	}
	if flags.Has(datastructure.EdgeOneWayForward) && !forward {
		return 0, false
	}
	if flags.Has(datastructure.EdgeOneWayBackward) && forward {
		return 0, false
	}
	if dir, oneway := w.interpreter.IsOneWay(tags, w.vehicle); oneway {
		if (dir == Forward) != forward {
			return 0, false
		}
	}
	if w.interpreter.MaxSpeed(w.vehicle, tags) <= 0 {
		return 0, false
	}
	return w.interpreter.Weight(tags, w.vehicle, from, to), true
}
