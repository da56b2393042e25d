package geometry

import "math"

// Segment is a directed line segment, used for walls, obstacle edges,
// transitions and crossings alike.
type Segment struct {
	P1, P2 Point
}

// NewSegment builds a segment between two points.
func NewSegment(p1, p2 Point) Segment {
	return Segment{P1: p1, P2: p2}
}

// Vector returns P2 - P1.
func (s Segment) Vector() Point {
	return s.P2.Sub(s.P1)
}

// Length returns the segment's length.
func (s Segment) Length() float64 {
	return s.Vector().Norm()
}

// Midpoint returns the segment's midpoint, used as the target point of a
// navigation line.
func (s Segment) Midpoint() Point {
	return Point{(s.P1.X + s.P2.X) / 2, (s.P1.Y + s.P2.Y) / 2}
}

// ShortestPoint returns the point on the segment closest to p.
func (s Segment) ShortestPoint(p Point) Point {
	v := s.Vector()
	length2 := v.NormSquare()
	if length2 < 1e-12 {
		return s.P1
	}
	t := p.Sub(s.P1).Dot(v) / length2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return s.P1.Add(v.Scale(t))
}

// DistTo returns the distance from p to the segment.
func (s Segment) DistTo(p Point) float64 {
	return p.Distance(s.ShortestPoint(p))
}

// DistToSquare returns the squared distance from p to the segment, avoiding
// a sqrt when only a threshold comparison is needed.
func (s Segment) DistToSquare(p Point) float64 {
	d := p.Sub(s.ShortestPoint(p))
	return d.NormSquare()
}

// SignedSide returns > 0 if p is to the left of the directed segment,
// < 0 if to the right, 0 if p is on the line through the segment.
func (s Segment) SignedSide(p Point) float64 {
	return s.Vector().Cross(p.Sub(s.P1))
}

// Intersects reports whether segments s and other intersect, including at
// an endpoint. Used by IsVisible to test a sightline against walls.
func (s Segment) Intersects(other Segment) bool {
	d1 := other.P1.Sub(other.P2).Cross(s.P1.Sub(other.P2))
	d2 := other.P1.Sub(other.P2).Cross(s.P2.Sub(other.P2))
	d3 := s.P1.Sub(s.P2).Cross(other.P1.Sub(s.P2))
	d4 := s.P1.Sub(s.P2).Cross(other.P2.Sub(s.P2))

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if math.Abs(d1) < 1e-9 && onSegment(other.P1, other.P2, s.P1) {
		return true
	}
	if math.Abs(d2) < 1e-9 && onSegment(other.P1, other.P2, s.P2) {
		return true
	}
	if math.Abs(d3) < 1e-9 && onSegment(s.P1, s.P2, other.P1) {
		return true
	}
	if math.Abs(d4) < 1e-9 && onSegment(s.P1, s.P2, other.P2) {
		return true
	}
	return false
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X)-1e-9 <= p.X && p.X <= math.Max(a.X, b.X)+1e-9 &&
		math.Min(a.Y, b.Y)-1e-9 <= p.Y && p.Y <= math.Max(a.Y, b.Y)+1e-9
}
