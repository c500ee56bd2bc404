package interpreter

import (
	"fmt"
	"strings"
)

// Vehicle selects the row of the interpreter tables that applies to a query.
type Vehicle uint8

const (
	Pedestrian Vehicle = iota
	Bicycle
	Moped
	MotorCycle
	Car
	SmallTruck
	BigTruck
	Bus
)

var vehicleNames = [...]string{"pedestrian", "bicycle", "moped", "motorcycle", "car", "smalltruck", "bigtruck", "bus"}

// osm access key of each vehicle, most specific first.
var vehicleAccessKeys = [...][]string{
	Pedestrian: {"foot"},
	Bicycle:    {"bicycle", "vehicle"},
	Moped:      {"moped", "mofa", "motor_vehicle", "vehicle"},
	MotorCycle: {"motorcycle", "motor_vehicle", "vehicle"},
	Car:        {"motorcar", "motor_vehicle", "vehicle"},
	SmallTruck: {"goods", "motor_vehicle", "vehicle"},
	BigTruck:   {"hgv", "motor_vehicle", "vehicle"},
	Bus:        {"bus", "psv", "motor_vehicle", "vehicle"},
}

func (v Vehicle) String() string {
	if int(v) >= len(vehicleNames) {
		return "unknown"
	}
	return vehicleNames[v]
}

func (v Vehicle) Valid() bool {
	return int(v) < len(vehicleNames)
}

// IsMotorVehicle reports whether motor_vehicle tags apply to v.
func (v Vehicle) IsMotorVehicle() bool {
	return v >= Moped && v.Valid()
}

// AccessKeys returns the osm access keys of v, most specific first.
func (v Vehicle) AccessKeys() []string {
	if !v.Valid() {
		return nil
	}
	return vehicleAccessKeys[v]
}

func (v Vehicle) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("unknown vehicle %d", v)
	}
	return []byte(v.String()), nil
}

func (v *Vehicle) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicle(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func ParseVehicle(name string) (Vehicle, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range vehicleNames {
		if n == name {
			return Vehicle(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vehicle %q", name)
}

func AllVehicles() []Vehicle {
	vs := make([]Vehicle, len(vehicleNames))
	for i := range vehicleNames {
		vs[i] = Vehicle(i)
	}
	return vs
}
