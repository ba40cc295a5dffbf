package matching

import "math"

const earthRadiusMetres = 6371000.0

// haversineMetres returns the great-circle distance between two
// longitude/latitude points in metres. No third-party geodesy library
// appears anywhere in the retrieved corpus, so this is implemented directly
// against the standard formula rather than reached for as a dependency.
func haversineMetres(longA, latA, longB, latB float64) float64 {
	const deg2rad = math.Pi / 180

	lat1 := latA * deg2rad
	lat2 := latB * deg2rad
	dLat := (latB - latA) * deg2rad
	dLong := (longB - longA) * deg2rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLong/2)*math.Sin(dLong/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMetres * c
}
