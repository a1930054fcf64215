package geom

import "math"

// NormalizeAngle wraps an angle into [-π, π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// AngularDiff returns the signed shortest difference a-b in [-π, π).
func AngularDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

// Bearing returns the heading of the horizontal vector from a to b.
// Coincident horizontal positions have no bearing; the fallback is 0
// (world +X), so callers degrade to "straight ahead" rather than failing.
func Bearing(a, b Transform) float64 {
	dx := b.T[0] - a.T[0]
	dy := b.T[1] - a.T[1]
	if dx*dx+dy*dy < minHorizontalNorm {
		return 0
	}
	return math.Atan2(dy, dx)
}

// MeanAngle returns the circular mean of two angles, computed via the vector
// sum so that averaging across the ±π seam behaves correctly.
func MeanAngle(a, b float64) float64 {
	sa, ca := math.Sincos(a)
	sb, cb := math.Sincos(b)
	return math.Atan2(sa+sb, ca+cb)
}
