package utils

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean earth radius used for all distance math.
const EarthRadiusMeters = 6371000.0

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ValidateCoordinate checks that a coordinate is within the valid ranges.
func ValidateCoordinate(coord Coordinate) error {
	if coord.Lat < -90 || coord.Lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", coord.Lat)
	}
	if coord.Lng < -180 || coord.Lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", coord.Lng)
	}
	return nil
}

// HaversineDistance returns the great-circle distance between two points in meters.
func HaversineDistance(a, b Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// InsideGeofence reports whether a point falls within a circular geofence.
func InsideGeofence(point, center Coordinate, radiusMeters float64) bool {
	return HaversineDistance(point, center) <= radiusMeters
}

// CalculateCentroid returns the centroid of a set of points. Used when a
// circular geofence is derived from an imported polygon boundary.
func CalculateCentroid(coordinates []Coordinate) Coordinate {
	if len(coordinates) == 0 {
		return Coordinate{}
	}
	var sumLat, sumLng float64
	for _, coord := range coordinates {
		sumLat += coord.Lat
		sumLng += coord.Lng
	}
	return Coordinate{
		Lat: sumLat / float64(len(coordinates)),
		Lng: sumLng / float64(len(coordinates)),
	}
}

// BoundingRadius returns the largest distance from the centroid to any of the
// given points, in meters. Paired with CalculateCentroid to turn an imported
// boundary into a circle that covers it.
func BoundingRadius(center Coordinate, coordinates []Coordinate) float64 {
	var max float64
	for _, coord := range coordinates {
		if d := HaversineDistance(center, coord); d > max {
			max = d
		}
	}
	return max
}
