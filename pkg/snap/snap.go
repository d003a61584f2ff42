// Package snap implements the interactive snapping service used while the
// user draws a new perimeter: proximity snapping to existing points,
// alignment to axis-aligned and reference-parallel guide lines, and the
// self-intersection guards for in-progress polygons.
package snap

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
)

// DefaultTolerance is the snap radius in world millimeters used when the
// context does not specify one.
const DefaultTolerance = 100.0

// Config carries the geometry a snapping context is built from. Snap
// points win outright when the pointer comes within tolerance; align
// points generate horizontal/vertical guide lines and, when reference
// segments are present, guide lines parallel to those segments.
type Config struct {
	SnapPoints        []geom.Vec2
	AlignPoints       []geom.Vec2
	ReferencePoint    *geom.Vec2
	ReferenceSegments []geom.Segment
	Tolerance         float64
}

// Context is an immutable snapping context prepared once per interaction
// (e.g. when a drawing tool becomes active) and queried on every pointer
// move. Snap points are indexed in an R-tree so a query does not scan the
// whole drawing.
type Context struct {
	tree        *rtreego.Rtree
	snapCount   int
	alignPoints []geom.Vec2
	refDirs     []geom.Vec2
	tolerance   float64
}

// snapEntry is a single indexed snap point.
type snapEntry struct {
	pt     geom.Vec2
	bounds rtreego.Rect
}

func (e *snapEntry) Bounds() rtreego.Rect {
	return e.bounds
}

// NewContext builds a snapping context from the given geometry.
func NewContext(cfg Config) *Context {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	c := &Context{
		tree:      rtreego.NewTree(2, 4, 16),
		tolerance: tol,
	}
	for _, p := range cfg.SnapPoints {
		c.tree.Insert(&snapEntry{
			pt:     p,
			bounds: rtreego.Point{p.X, p.Y}.ToRect(geom.Epsilon),
		})
		c.snapCount++
	}

	c.alignPoints = append(c.alignPoints, cfg.AlignPoints...)
	if cfg.ReferencePoint != nil {
		c.alignPoints = append(c.alignPoints, *cfg.ReferencePoint)
	}
	for _, s := range cfg.ReferenceSegments {
		d := s.Dir().Normalize()
		if d.IsZero() || isAxisAligned(d) {
			continue
		}
		c.refDirs = append(c.refDirs, d)
	}
	return c
}

func isAxisAligned(d geom.Vec2) bool {
	return math.Abs(d.X) < geom.Epsilon || math.Abs(d.Y) < geom.Epsilon
}

// Result is the transient outcome of a single pointer move. Position is
// always usable: the snapped point when Snapped is true, the raw pointer
// otherwise. Lines lists the alignment guide lines that produced the
// position, for rendering.
type Result struct {
	Position geom.Vec2   `json:"position"`
	Snapped  bool        `json:"snapped"`
	Lines    []geom.Line `json:"lines,omitempty"`
}

// Find resolves the snap result for a pointer position. An exact
// proximity snap to an indexed snap point wins outright; otherwise the
// nearest alignment line within tolerance snaps one coordinate, and a
// second non-parallel line within tolerance pins the other coordinate at
// the lines' intersection. With no snap the raw pointer comes back
// unchanged.
func (c *Context) Find(pointer geom.Vec2) Result {
	if c.snapCount > 0 {
		nearest := c.tree.NearestNeighbor(rtreego.Point{pointer.X, pointer.Y})
		if e, ok := nearest.(*snapEntry); ok && pointer.Distance(e.pt) <= c.tolerance {
			return Result{Position: e.pt, Snapped: true}
		}
	}

	lines := c.candidateLines(pointer)
	if len(lines) == 0 {
		return Result{Position: pointer}
	}

	first := lines[0]
	pos := first.line.Project(pointer)
	used := []geom.Line{first.line}
	for _, cand := range lines[1:] {
		if math.Abs(first.line.Dir.Cross(cand.line.Dir)) < geom.Epsilon {
			continue // parallel to the first line, cannot pin the other axis
		}
		if ip, ok := first.line.Intersect(cand.line); ok && pointer.Distance(ip) <= c.tolerance*math.Sqrt2 {
			pos = ip
			used = append(used, cand.line)
		}
		break
	}
	return Result{Position: pos, Snapped: true, Lines: used}
}

type scoredLine struct {
	line geom.Line
	dist float64
}

// candidateLines collects every guide line within tolerance of the
// pointer, nearest first. Guide lines run horizontally and vertically
// through each align point, and parallel to each reference segment
// direction through each align point.
func (c *Context) candidateLines(pointer geom.Vec2) []scoredLine {
	var out []scoredLine
	consider := func(l geom.Line) {
		d := l.DistanceTo(pointer)
		if d <= c.tolerance {
			out = append(out, scoredLine{line: l, dist: d})
		}
	}
	for _, ap := range c.alignPoints {
		consider(geom.Line{Point: ap, Dir: geom.V(1, 0)})
		consider(geom.Line{Point: ap, Dir: geom.V(0, 1)})
		for _, d := range c.refDirs {
			consider(geom.Line{Point: ap, Dir: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].dist < out[j].dist })
	return out
}
