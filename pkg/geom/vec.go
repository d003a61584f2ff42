// Package geom provides the 2D geometric primitives for Strawbuild Studio.
// All coordinates are millimeters in screen orientation: x grows to the
// right, y grows downward. A polygon whose shoelace sum is positive is
// clockwise in this orientation.
package geom

import "math"

// Epsilon is the tolerance used for coordinate comparisons.
// Coordinates are millimeters, so a nanometer is far below any
// construction-relevant difference.
const Epsilon = 1e-6

// Vec2 is an immutable 2D point or direction in millimeters.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for constructing a Vec2.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

func (a Vec2) Scale(f float64) Vec2 {
	return Vec2{a.X * f, a.Y * f}
}

func (a Vec2) Neg() Vec2 {
	return Vec2{-a.X, -a.Y}
}

func (a Vec2) Dot(b Vec2) float64 {
	return a.X*b.X + a.Y*b.Y
}

// Cross returns the z component of the 3D cross product of a and b.
func (a Vec2) Cross(b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

func (a Vec2) Length() float64 {
	return math.Hypot(a.X, a.Y)
}

func (a Vec2) LengthSq() float64 {
	return a.X*a.X + a.Y*a.Y
}

func (a Vec2) Distance(b Vec2) float64 {
	return b.Sub(a).Length()
}

// Normalize returns the unit vector in the direction of a.
// The zero vector is returned unchanged.
func (a Vec2) Normalize() Vec2 {
	l := a.Length()
	if l < Epsilon {
		return a
	}
	return Vec2{a.X / l, a.Y / l}
}

// Perp returns a rotated 90 degrees counter-clockwise in screen
// orientation, which is the left-hand perpendicular (-y, x).
func (a Vec2) Perp() Vec2 {
	return Vec2{-a.Y, a.X}
}

// Lerp returns the point a + t*(b-a).
func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Equals reports whether a and b coincide within Epsilon per coordinate.
func (a Vec2) Equals(b Vec2) bool {
	return math.Abs(a.X-b.X) < Epsilon && math.Abs(a.Y-b.Y) < Epsilon
}

// IsZero reports whether a is the zero vector within Epsilon.
func (a Vec2) IsZero() bool {
	return math.Abs(a.X) < Epsilon && math.Abs(a.Y) < Epsilon
}

// Angle returns the angle in radians between the positive x axis and a,
// in (-pi, pi].
func (a Vec2) Angle() float64 {
	return math.Atan2(a.Y, a.X)
}
