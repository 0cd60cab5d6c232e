// Package geo provides great-circle distance and the proximity clustering
// used to place photos on the map.
package geo

import (
	"math"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// EarthRadiusM is the mean Earth radius used by Haversine.
const EarthRadiusM = 6371000

// Haversine calculates the distance between two points on Earth in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// Distance returns the Haversine distance between two points in meters.
func Distance(a, b models.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}
