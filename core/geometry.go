package core

import "math"

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LatLonDeg returns the geocentric latitude and longitude of the vector's
// direction, in degrees. The zero vector maps to (0, 0).
func (v Vec3) LatLonDeg() (latDeg, lonDeg float64) {
	r := v.Norm()
	if r == 0 {
		return 0, 0
	}
	lat := math.Asin(v.Z/r) * 180 / math.Pi
	lon := math.Atan2(v.Y, v.X) * 180 / math.Pi
	return lat, lon
}
