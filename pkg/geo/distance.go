package geo

import (
	"math"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/golang/geo/s2"
)

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = 6371007
)

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func radiansToDegree(angle float64) float64 {
	return angle * (180.0 / math.Pi)
}

func latLng(c datastructure.Coordinate) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}

func s2Point(c datastructure.Coordinate) s2.Point {
	return s2.PointFromLatLng(latLng(c))
}

// GreatCircleDistance returns the distance between from and to in meters.
func GreatCircleDistance(from, to datastructure.Coordinate) float64 {
	return latLng(from).Distance(latLng(to)).Radians() * earthRadiusM
}

// GetDestinationPoint returns the coordinate reached by travelling dist
// kilometers from (lat, lon) with the given bearing in degrees.
func GetDestinationPoint(lat, lon, bearing, dist float64) (float64, float64) {
	lat = degreeToRadians(lat)
	lon = degreeToRadians(lon)
	bearing = degreeToRadians(bearing)
	angular := dist / earthRadiusKM

	destLat := math.Asin(math.Sin(lat)*math.Cos(angular) + math.Cos(lat)*math.Sin(angular)*math.Cos(bearing))
	destLon := lon + math.Atan2(math.Sin(bearing)*math.Sin(angular)*math.Cos(lat),
		math.Cos(angular)-math.Sin(lat)*math.Sin(destLat))

	return radiansToDegree(destLat), radiansToDegree(destLon)
}
