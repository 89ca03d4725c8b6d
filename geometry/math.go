// Package geometry provides the 2D math shared by the layout engine and the renderers.
package geometry

import "math"

// Epsilon is the tolerance used when comparing computed coordinates.
const Epsilon = 1e-9

// NormalizeAngle maps x into [0, modulus). Unlike the % operator it never
// returns a negative value for negative input.
func NormalizeAngle(x, modulus float64) float64 {
	r := math.Mod(x, modulus)
	if r < 0 {
		r += modulus
	}
	if r >= modulus {
		r -= modulus
	}
	return r
}

// FullTurn normalizes an angle in radians into [0, 2π).
func FullTurn(angle float64) float64 {
	return NormalizeAngle(angle, 2*math.Pi)
}

// AlmostEqual reports whether a and b differ by less than tol.
func AlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}
