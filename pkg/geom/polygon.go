package geom

import "math"

// Polygon is an ordered sequence of vertices, implicitly closed: the last
// vertex connects back to the first.
type Polygon []Vec2

// Len returns the number of vertices.
func (p Polygon) Len() int {
	return len(p)
}

// Edge returns the i-th directed edge as a segment, cyclic.
func (p Polygon) Edge(i int) Segment {
	return Segment{A: p[i], B: p[(i+1)%len(p)]}
}

// SignedArea returns half the shoelace sum. In screen orientation
// (y down) a clockwise polygon has positive signed area.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// IsClockwise reports whether the polygon winds clockwise in screen
// orientation.
func (p Polygon) IsClockwise() bool {
	return p.SignedArea() > 0
}

// Reverse returns a copy with the vertex order reversed.
func (p Polygon) Reverse() Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// EnsureClockwise returns the polygon wound clockwise, reversing if needed.
// The offset engine consumes outer boundaries in clockwise order only.
func (p Polygon) EnsureClockwise() Polygon {
	if p.IsClockwise() {
		return p
	}
	return p.Reverse()
}

// IsSelfIntersecting reports whether any two non-adjacent edges of the
// closed polygon intersect, or two adjacent edges overlap beyond their
// shared endpoint.
func (p Polygon) IsSelfIntersecting() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		ei := p.Edge(i)
		for j := i + 1; j < n; j++ {
			ej := p.Edge(j)
			adjacent := j == i+1 || (i == 0 && j == n-1)
			if adjacent {
				// Adjacent edges always share a vertex; they only
				// self-intersect when they fold back onto each other.
				if edgesFoldBack(ei, ej) {
					return true
				}
				continue
			}
			if ei.Intersects(ej) {
				return true
			}
		}
	}
	return false
}

// edgesFoldBack reports whether two edges sharing an endpoint are collinear
// and run in opposite directions, i.e. the boundary doubles back on itself.
func edgesFoldBack(a, b Segment) bool {
	da := a.Dir()
	db := b.Dir()
	return math.Abs(da.Cross(db)) < Epsilon && da.Dot(db) < 0
}

// Contains reports whether q lies strictly inside the polygon, using the
// even-odd ray-crossing rule. Points on the boundary are not inside.
func (p Polygon) Contains(q Vec2) bool {
	n := len(p)
	if n < 3 {
		return false
	}
	inside := false
	for i := 0; i < n; i++ {
		e := p.Edge(i)
		if e.ContainsPoint(q) {
			return false
		}
		a, b := e.A, e.B
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := a.X + (q.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if x > q.X {
				inside = !inside
			}
		}
	}
	return inside
}

// Centroid returns the arithmetic mean of the vertices.
func (p Polygon) Centroid() Vec2 {
	var c Vec2
	if len(p) == 0 {
		return c
	}
	for _, v := range p {
		c = c.Add(v)
	}
	return c.Scale(1 / float64(len(p)))
}
