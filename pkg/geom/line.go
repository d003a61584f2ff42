package geom

import "math"

// Line is an infinite line given by a point on the line and a direction.
// The direction need not be normalized.
type Line struct {
	Point Vec2 `json:"point"`
	Dir   Vec2 `json:"dir"`
}

// LineThrough returns the line through a and b.
func LineThrough(a, b Vec2) Line {
	return Line{Point: a, Dir: b.Sub(a)}
}

// Offset returns the line translated by d perpendicular to its direction.
// Positive d translates toward the left-hand perpendicular of Dir.
func (l Line) Offset(d float64) Line {
	n := l.Dir.Normalize().Perp()
	return Line{Point: l.Point.Add(n.Scale(d)), Dir: l.Dir}
}

// Intersect returns the intersection point of two lines.
// ok is false when the lines are parallel within Epsilon.
func (l Line) Intersect(m Line) (Vec2, bool) {
	denom := l.Dir.Cross(m.Dir)
	if math.Abs(denom) < Epsilon {
		return Vec2{}, false
	}
	t := m.Point.Sub(l.Point).Cross(m.Dir) / denom
	return l.Point.Add(l.Dir.Scale(t)), true
}

// Project returns the closest point on the line to p.
func (l Line) Project(p Vec2) Vec2 {
	d := l.Dir.Normalize()
	t := p.Sub(l.Point).Dot(d)
	return l.Point.Add(d.Scale(t))
}

// DistanceTo returns the perpendicular distance from p to the line.
func (l Line) DistanceTo(p Vec2) float64 {
	return p.Distance(l.Project(p))
}

// Segment is a finite line segment between two points.
type Segment struct {
	A Vec2 `json:"a"`
	B Vec2 `json:"b"`
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// Dir returns the unnormalized direction B-A.
func (s Segment) Dir() Vec2 {
	return s.B.Sub(s.A)
}

// Line returns the infinite carrier line of the segment.
func (s Segment) Line() Line {
	return Line{Point: s.A, Dir: s.Dir()}
}

// Midpoint returns the segment midpoint.
func (s Segment) Midpoint() Vec2 {
	return s.A.Lerp(s.B, 0.5)
}

// ClosestPoint returns the point on the segment closest to p.
func (s Segment) ClosestPoint(p Vec2) Vec2 {
	d := s.Dir()
	lsq := d.LengthSq()
	if lsq < Epsilon*Epsilon {
		return s.A
	}
	t := p.Sub(s.A).Dot(d) / lsq
	t = math.Max(0, math.Min(1, t))
	return s.A.Add(d.Scale(t))
}

// DistanceTo returns the distance from p to the closest point on the segment.
func (s Segment) DistanceTo(p Vec2) float64 {
	return p.Distance(s.ClosestPoint(p))
}

// ContainsPoint reports whether p lies on the segment within Epsilon.
func (s Segment) ContainsPoint(p Vec2) bool {
	return s.DistanceTo(p) < Epsilon
}

// Intersects reports whether two segments share at least one point.
// Touching endpoints count as intersecting; collinear overlap counts too.
func (s Segment) Intersects(t Segment) bool {
	d1 := t.Dir().Cross(s.A.Sub(t.A))
	d2 := t.Dir().Cross(s.B.Sub(t.A))
	d3 := s.Dir().Cross(t.A.Sub(s.A))
	d4 := s.Dir().Cross(t.B.Sub(s.A))

	if ((d1 > Epsilon && d2 < -Epsilon) || (d1 < -Epsilon && d2 > Epsilon)) &&
		((d3 > Epsilon && d4 < -Epsilon) || (d3 < -Epsilon && d4 > Epsilon)) {
		return true
	}

	// Collinear or touching cases.
	if math.Abs(d1) < Epsilon && t.onSpan(s.A) {
		return true
	}
	if math.Abs(d2) < Epsilon && t.onSpan(s.B) {
		return true
	}
	if math.Abs(d3) < Epsilon && s.onSpan(t.A) {
		return true
	}
	if math.Abs(d4) < Epsilon && s.onSpan(t.B) {
		return true
	}
	return false
}

// onSpan reports whether p, already known to be collinear with the segment,
// lies within its bounding span.
func (s Segment) onSpan(p Vec2) bool {
	return p.X >= math.Min(s.A.X, s.B.X)-Epsilon && p.X <= math.Max(s.A.X, s.B.X)+Epsilon &&
		p.Y >= math.Min(s.A.Y, s.B.Y)-Epsilon && p.Y <= math.Max(s.A.Y, s.B.Y)+Epsilon
}
