package mathutil

import "math"

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// WrapDegrees wraps an angle into (-180, 180]. A non-finite angle has no
// direction and wraps to 0.
func WrapDegrees(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	r := math.Mod(a+180, 360)
	if r <= 0 {
		r += 360
	}
	return r - 180
}

// WrapEuler wraps each component of a pitch/yaw/roll triple into (-180, 180].
func WrapEuler(e Vec3) Vec3 {
	return Vec3{WrapDegrees(e[0]), WrapDegrees(e[1]), WrapDegrees(e[2])}
}
