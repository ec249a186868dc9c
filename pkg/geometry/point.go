// Package geometry implements the points, shapes, and rectangles that every
// other package in the floorplanner builds on: intersection, containment,
// overlap-area, splitting, and grid tiling.
package geometry

import "math"

// Point is a pair of real-valued coordinates.
type Point struct {
	X, Y float64
}

// PointFromScalar returns the point (s, s).
func PointFromScalar(s float64) Point {
	return Point{X: s, Y: s}
}

// PointFromPair returns the point (x, y).
func PointFromPair(x, y float64) Point {
	return Point{X: x, Y: y}
}

// PointFromTuple returns the point described by the (x, y) tuple.
func PointFromTuple(t [2]float64) Point {
	return Point{X: t[0], Y: t[1]}
}

// PointFromPoint returns a copy of p.
func PointFromPoint(p Point) Point {
	return p
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Mul returns the componentwise product of p and q.
func (p Point) Mul(q Point) Point {
	return Point{X: p.X * q.X, Y: p.Y * q.Y}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Norm returns the Euclidean norm of p.
func (p Point) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}
