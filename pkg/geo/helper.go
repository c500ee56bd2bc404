package geo

import (
	"container/list"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/paulmach/orb"
)

const (
	DOUGLAS_PEUCKER_THRESHOLDS = 7.0 // 7 meter
)

// BoundingBox returns the box around center with a half-width of radius meters.
func BoundingBox(center datastructure.Coordinate, radius float64) orb.Bound {
	radiusKm := radius / 1000
	north, _ := GetDestinationPoint(center.Lat, center.Lon, 0, radiusKm)
	_, east := GetDestinationPoint(center.Lat, center.Lon, 90, radiusKm)
	south, _ := GetDestinationPoint(center.Lat, center.Lon, 180, radiusKm)
	_, west := GetDestinationPoint(center.Lat, center.Lon, 270, radiusKm)

	return orb.Bound{
		Min: orb.Point{west, south},
		Max: orb.Point{east, north},
	}
}

// RamerDouglasPeucker simplifies a route geometry, dropping points closer
// than DOUGLAS_PEUCKER_THRESHOLDS meters to the simplified line.
// https://cartography-playground.gitlab.io/playgrounds/douglas-peucker-algorithm/
func RamerDouglasPeucker(coords []datastructure.Coordinate) []datastructure.Coordinate {
	size := len(coords)
	if size < 3 {
		return coords
	}

	kept := make([]bool, size)
	kept[0] = true
	kept[size-1] = true

	stack := list.New()
	stack.PushBack([2]int{0, size - 1})

	for stack.Len() > 0 {
		pair := stack.Remove(stack.Back()).([2]int)
		left, right := pair[0], pair[1]
		var maxDist float64
		farthestIndex := left

		for i := left + 1; i < right; i++ {
			dist := PointLinePerpendicularDistance(coords[left], coords[right], coords[i])
			if dist > maxDist {
				maxDist = dist
				farthestIndex = i
			}
		}

		if maxDist > DOUGLAS_PEUCKER_THRESHOLDS {
			kept[farthestIndex] = true
			stack.PushBack([2]int{left, farthestIndex})
			stack.PushBack([2]int{farthestIndex, right})
		}
	}

	simplified := make([]datastructure.Coordinate, 0, size)
	for i, necessary := range kept {
		if necessary {
			simplified = append(simplified, coords[i])
		}
	}
	return simplified
}
