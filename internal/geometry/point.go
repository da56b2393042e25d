// Package geometry models the walkable 2D world: subrooms, walls,
// obstacles, doors and the visibility/containment queries the rest of the
// engine needs every tick.
package geometry

import "math"

// Point is a location or vector in the walking plane.
type Point struct {
	X, Y float64
}

// Pt is a shorthand constructor.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p * s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D scalar cross product p × q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// NormSquare returns the squared Euclidean length of p.
func (p Point) NormSquare() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Normalized returns the unit vector in the direction of p, or the zero
// vector if p is (numerically) the origin.
func (p Point) Normalized() Point {
	n := p.Norm()
	if n < 1e-12 {
		return Point{}
	}
	return Point{p.X / n, p.Y / n}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Norm()
}

// Rotate90 returns p rotated 90 degrees counter-clockwise.
func (p Point) Rotate90() Point {
	return Point{-p.Y, p.X}
}
