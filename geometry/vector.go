package geometry

import (
	"fmt"
	"math"
)

// Vec2 is an immutable 2D vector. Y grows downward, matching screen space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v multiplied by k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{v.X * k, v.Y * k}
}

// Length returns the Euclidean norm of v.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Unit returns v scaled to length 1. The caller must guarantee v is not the
// zero vector; the result is NaN otherwise.
func (v Vec2) Unit() Vec2 {
	return v.Scale(1 / v.Length())
}

// Midpoint returns the point halfway between v and o.
func (v Vec2) Midpoint(o Vec2) Vec2 {
	return Vec2{(v.X + o.X) / 2, (v.Y + o.Y) / 2}
}

// Near reports whether v and o are within tol on both axes.
func (v Vec2) Near(o Vec2, tol float64) bool {
	return AlmostEqual(v.X, o.X, tol) && AlmostEqual(v.Y, o.Y, tol)
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}
