package interpreter

import (
	"strconv"
	"strings"
)

const (
	mphToKmh   = 1.60934
	knotsToKmh = 1.852
	walkSpeed  = 5.0
)

// ParseMaxSpeed converts a maxspeed tag value into km/h. Values such as
// "RU:urban" or "signals" are not understood and report false.
func ParseMaxSpeed(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if value == "walk" {
		return walkSpeed, true
	}

	factor := 1.0
	switch {
	case strings.HasSuffix(value, "mph"):
		factor = mphToKmh
		value = strings.TrimSuffix(value, "mph")
	case strings.HasSuffix(value, "km/h"):
		value = strings.TrimSuffix(value, "km/h")
	case strings.HasSuffix(value, "kmh"):
		value = strings.TrimSuffix(value, "kmh")
	case strings.HasSuffix(value, "knots"):
		factor = knotsToKmh
		value = strings.TrimSuffix(value, "knots")
	}

	speed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || speed <= 0 {
		return 0, false
	}
	return speed * factor, true
}
