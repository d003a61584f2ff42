package snap

import (
	"math"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
)

// WouldPolygonSelfIntersect reports whether appending candidate to the
// in-progress polygon would make the new edge cross any non-adjacent
// existing edge, or place the candidate on top of a non-adjacent existing
// vertex. The shared endpoint with the preceding edge never counts as an
// intersection; a zero-length new edge always does.
func WouldPolygonSelfIntersect(points []geom.Vec2, candidate geom.Vec2) bool {
	n := len(points)
	if n == 0 {
		return false
	}
	last := points[n-1]
	if candidate.Equals(last) {
		return true // degenerate zero-length edge
	}
	for i := 0; i < n-1; i++ {
		if candidate.Equals(points[i]) {
			return true
		}
	}
	if n == 1 {
		return false
	}

	newEdge := geom.Segment{A: last, B: candidate}
	for i := 0; i < n-1; i++ {
		edge := geom.Segment{A: points[i], B: points[i+1]}
		if i == n-2 {
			// Adjacent edge: only a fold-back onto itself counts.
			if foldsBack(edge, newEdge) {
				return true
			}
			continue
		}
		if newEdge.Intersects(edge) {
			return true
		}
	}
	return false
}

// WouldClosingPolygonSelfIntersect reports whether the implicit closing
// edge from the last point back to the first would cross any non-adjacent
// edge of the in-progress polygon. Fewer than three points cannot form a
// closed polygon and always report true.
func WouldClosingPolygonSelfIntersect(points []geom.Vec2) bool {
	n := len(points)
	if n < 3 {
		return true
	}

	closing := geom.Segment{A: points[n-1], B: points[0]}
	if closing.Length() < geom.Epsilon {
		return true
	}
	for i := 0; i < n-1; i++ {
		edge := geom.Segment{A: points[i], B: points[i+1]}
		if i == 0 || i == n-2 {
			// Shares the first or last vertex with the closing edge.
			if foldsBack(edge, closing) {
				return true
			}
			continue
		}
		if closing.Intersects(edge) {
			return true
		}
	}
	return false
}

// foldsBack reports whether two consecutive chain edges (the end of one is
// the start of the other) are collinear and reverse direction, i.e. the
// boundary doubles back over itself beyond the shared vertex. A collinear
// continuation in the same direction is merely a redundant vertex, not an
// intersection.
func foldsBack(a, b geom.Segment) bool {
	da := a.Dir().Normalize()
	db := b.Dir().Normalize()
	return math.Abs(da.Cross(db)) < geom.Epsilon && da.Dot(db) < 0
}
