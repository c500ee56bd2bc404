package interpreter

type vehicleSet uint16

func setOf(vs ...Vehicle) vehicleSet {
	var s vehicleSet
	for _, v := range vs {
		s |= 1 << v
	}
	return s
}

func (s vehicleSet) has(v Vehicle) bool {
	return s&(1<<v) != 0
}

var (
	motorVehicles = setOf(Moped, MotorCycle, Car, SmallTruck, BigTruck, Bus)
	everyone      = motorVehicles | setOf(Pedestrian, Bicycle)
	fastMotor     = setOf(MotorCycle, Car, SmallTruck, BigTruck, Bus)
)

// highwayAccess is the class legality matrix keyed by the highway tag value.
var highwayAccess = map[string]vehicleSet{
	"motorway":       fastMotor,
	"motorway_link":  fastMotor,
	"trunk":          motorVehicles,
	"trunk_link":     motorVehicles,
	"primary":        everyone,
	"primary_link":   everyone,
	"secondary":      everyone,
	"secondary_link": everyone,
	"tertiary":       everyone,
	"tertiary_link":  everyone,
	"unclassified":   everyone,
	"residential":    everyone,
	"road":           everyone,
	"service":        everyone,
	"living_street":  everyone,
	"track":          setOf(Pedestrian, Bicycle, Moped, MotorCycle, Car),
	"cycleway":       setOf(Pedestrian, Bicycle),
	"path":           setOf(Pedestrian, Bicycle),
	"footway":        setOf(Pedestrian),
	"pedestrian":     setOf(Pedestrian),
	"steps":          setOf(Pedestrian),
	"corridor":       setOf(Pedestrian),
	"bridleway":      setOf(Pedestrian),
	"busway":         setOf(Bus),
	"bus_guideway":   setOf(Bus),
}

// roadClassSpeed is the default car speed per highway value in km/h.
func roadClassSpeed(roadType string) float64 {
	switch roadType {
	case "motorway":
		return 100
	case "trunk":
		return 70
	case "primary":
		return 65
	case "secondary":
		return 60
	case "tertiary":
		return 50
	case "unclassified":
		return 30
	case "residential":
		return 30
	case "service":
		return 20
	case "motorway_link":
		return 70
	case "trunk_link":
		return 65
	case "primary_link":
		return 60
	case "secondary_link":
		return 50
	case "tertiary_link":
		return 40
	case "living_street":
		return 10
	case "road":
		return 20
	case "track":
		return 15
	default:
		return 40
	}
}

// vehicleMaxSpeed caps every resolved speed, km/h.
var vehicleMaxSpeed = [...]float64{
	Pedestrian: 5,
	Bicycle:    15,
	Moped:      45,
	MotorCycle: 130,
	Car:        130,
	SmallTruck: 100,
	BigTruck:   80,
	Bus:        90,
}

// SpeedTable overrides default speeds per vehicle and highway value, km/h.
// Missing entries fall back to the built-in road class speeds.
type SpeedTable map[Vehicle]map[string]float64

func (t SpeedTable) lookup(v Vehicle, highway string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	speed, ok := t[v][highway]
	return speed, ok && speed > 0
}

// DefaultSpeed is the regulatory default for highway and v, before any override.
func DefaultSpeed(v Vehicle, highway string) float64 {
	return min(roadClassSpeed(highway), vehicleMaxSpeed[v])
}
