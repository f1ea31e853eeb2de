package util

import "math"

// EarthRadiusKm is the mean earth radius used for all distance calculations
const EarthRadiusKm = 6372.7976

// --------------------------------------------------------------------------
// Geo Functions
// --------------------------------------------------------------------------

// HaversineKm returns the great-circle distance between two points in kilometers.
// All coordinates are given in degrees.
func HaversineKm(lon1, lat1, lon2, lat2 float64) float64 {
	lat1r := degToRad(lat1)
	lat2r := degToRad(lat2)
	u := math.Sin((lat2r - lat1r) / 2)
	v := math.Sin(degToRad(lon2-lon1) / 2)
	a := u*u + math.Cos(lat1r)*math.Cos(lat2r)*v*v
	return 2.0 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
