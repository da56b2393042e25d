package geometry

import "math"

// Polygon is a closed polygon given by its vertices in order. Used for
// obstacles, Exit stages and the AgentsInPolygon query.
type Polygon struct {
	Vertices []Point
}

// NewPolygon builds a polygon from the given vertices.
func NewPolygon(pts ...Point) Polygon {
	return Polygon{Vertices: pts}
}

// Edge returns the i-th edge as a segment; wraps around.
func (p Polygon) Edge(i int) Segment {
	n := len(p.Vertices)
	return Segment{p.Vertices[i%n], p.Vertices[(i+1)%n]}
}

// SignedArea returns the shoelace signed area; positive for
// counter-clockwise winding.
func (p Polygon) SignedArea() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += p.Vertices[i].X*p.Vertices[j].Y - p.Vertices[j].X*p.Vertices[i].Y
	}
	return area / 2
}

// Centroid returns the polygon's area-weighted centroid.
func (p Polygon) Centroid() Point {
	n := len(p.Vertices)
	if n == 0 {
		return Point{}
	}
	var cx, cy, area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := p.Vertices[i].X*p.Vertices[j].Y - p.Vertices[j].X*p.Vertices[i].Y
		cx += (p.Vertices[i].X + p.Vertices[j].X) * cross
		cy += (p.Vertices[i].Y + p.Vertices[j].Y) * cross
		area += cross
	}
	area /= 2
	if math.Abs(area) < 1e-12 {
		// Degenerate polygon (collinear points): fall back to the
		// arithmetic mean of vertices.
		var sx, sy float64
		for _, v := range p.Vertices {
			sx += v.X
			sy += v.Y
		}
		return Point{sx / float64(n), sy / float64(n)}
	}
	return Point{cx / (6 * area), cy / (6 * area)}
}

// Contains reports whether p lies inside the polygon (ray casting).
// Points exactly on the boundary are considered inside.
func (poly Polygon) Contains(p Point) bool {
	n := len(poly.Vertices)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		if poly.Edge(i).DistTo(p) < 1e-9 {
			return true
		}
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := poly.Vertices[i], poly.Vertices[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xIntersect := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// IsConvex reports whether the polygon is simple and convex, required by
// AgentsInPolygon.
func (poly Polygon) IsConvex() bool {
	n := len(poly.Vertices)
	if n < 3 {
		return false
	}
	sign := 0
	turning := 0.0
	for i := 0; i < n; i++ {
		a := poly.Vertices[i]
		b := poly.Vertices[(i+1)%n]
		c := poly.Vertices[(i+2)%n]
		cross := b.Sub(a).Cross(c.Sub(b))
		turning += math.Atan2(cross, b.Sub(a).Dot(c.Sub(b)))
		if math.Abs(cross) < 1e-12 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if sign != s {
			return false
		}
	}
	// Same-sign turns that wind more than once (a star) are not simple.
	return sign != 0 && math.Abs(turning) < 2*math.Pi+1e-6
}

// ContainingCircle returns a circle (center, radius) guaranteed to fully
// contain the polygon, used to pre-filter neighborhood queries before an
// exact AgentsInPolygon test.
func (poly Polygon) ContainingCircle() (Point, float64) {
	center := poly.Centroid()
	maxDist := 0.0
	for _, v := range poly.Vertices {
		if d := center.Distance(v); d > maxDist {
			maxDist = d
		}
	}
	return center, maxDist
}

// BoundingBox returns the axis-aligned bounding box (min, max corners).
func (poly Polygon) BoundingBox() (Point, Point) {
	if len(poly.Vertices) == 0 {
		return Point{}, Point{}
	}
	min, max := poly.Vertices[0], poly.Vertices[0]
	for _, v := range poly.Vertices[1:] {
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
	}
	return min, max
}
