package geom_test

import (
	"math"
	"testing"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func vecAlmostEqual(a, b geom.Vec2) bool {
	return almostEqual(a.X, b.X) && almostEqual(a.Y, b.Y)
}

func TestVec2Ops(t *testing.T) {
	a := geom.V(3, 4)
	b := geom.V(1, -2)

	if got := a.Add(b); !vecAlmostEqual(got, geom.V(4, 2)) {
		t.Errorf("Add: got %v", got)
	}
	if got := a.Sub(b); !vecAlmostEqual(got, geom.V(2, 6)) {
		t.Errorf("Sub: got %v", got)
	}
	if got := a.Length(); !almostEqual(got, 5) {
		t.Errorf("Length: got %v", got)
	}
	if got := a.Dot(b); !almostEqual(got, -5) {
		t.Errorf("Dot: got %v", got)
	}
	if got := a.Cross(b); !almostEqual(got, -10) {
		t.Errorf("Cross: got %v", got)
	}
	if got := a.Normalize().Length(); !almostEqual(got, 1) {
		t.Errorf("Normalize length: got %v", got)
	}
}

// Perp rotates a direction so that it points into the interior of a
// clockwise boundary in screen coordinates (y down).
func TestVec2Perp(t *testing.T) {
	tests := []struct {
		name string
		dir  geom.Vec2
		want geom.Vec2
	}{
		{"east edge points south", geom.V(1, 0), geom.V(0, 1)},
		{"south edge points west", geom.V(0, 1), geom.V(-1, 0)},
		{"west edge points north", geom.V(-1, 0), geom.V(0, -1)},
		{"north edge points east", geom.V(0, -1), geom.V(1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dir.Perp(); !vecAlmostEqual(got, tt.want) {
				t.Errorf("Perp(%v) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestLineIntersect(t *testing.T) {
	tests := []struct {
		name   string
		a, b   geom.Line
		want   geom.Vec2
		wantOK bool
	}{
		{
			name:   "axes cross at origin",
			a:      geom.Line{Point: geom.V(0, 5), Dir: geom.V(0, 1)},
			b:      geom.Line{Point: geom.V(5, 0), Dir: geom.V(1, 0)},
			want:   geom.V(0, 0),
			wantOK: true,
		},
		{
			name:   "diagonals",
			a:      geom.Line{Point: geom.V(0, 0), Dir: geom.V(1, 1)},
			b:      geom.Line{Point: geom.V(4, 0), Dir: geom.V(-1, 1)},
			want:   geom.V(2, 2),
			wantOK: true,
		},
		{
			name:   "parallel lines never meet",
			a:      geom.Line{Point: geom.V(0, 0), Dir: geom.V(1, 0)},
			b:      geom.Line{Point: geom.V(0, 10), Dir: geom.V(1, 0)},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !vecAlmostEqual(got, tt.want) {
				t.Errorf("intersection = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLineOffsetAndProject(t *testing.T) {
	l := geom.Line{Point: geom.V(0, 0), Dir: geom.V(1, 0)}

	off := l.Offset(440)
	if !almostEqual(off.Point.Y, 440) {
		t.Errorf("Offset: got point %v", off.Point)
	}

	p := l.Project(geom.V(123, 456))
	if !vecAlmostEqual(p, geom.V(123, 0)) {
		t.Errorf("Project: got %v", p)
	}
	if d := l.DistanceTo(geom.V(123, 456)); !almostEqual(d, 456) {
		t.Errorf("DistanceTo: got %v", d)
	}
}

func TestSegmentIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.Segment
		want bool
	}{
		{
			name: "crossing",
			a:    geom.Segment{A: geom.V(0, 0), B: geom.V(10, 10)},
			b:    geom.Segment{A: geom.V(0, 10), B: geom.V(10, 0)},
			want: true,
		},
		{
			name: "disjoint",
			a:    geom.Segment{A: geom.V(0, 0), B: geom.V(10, 0)},
			b:    geom.Segment{A: geom.V(0, 5), B: geom.V(10, 5)},
			want: false,
		},
		{
			name: "touching at endpoint",
			a:    geom.Segment{A: geom.V(0, 0), B: geom.V(10, 0)},
			b:    geom.Segment{A: geom.V(10, 0), B: geom.V(20, 5)},
			want: true,
		},
		{
			name: "collinear overlapping",
			a:    geom.Segment{A: geom.V(0, 0), B: geom.V(10, 0)},
			b:    geom.Segment{A: geom.V(5, 0), B: geom.V(15, 0)},
			want: true,
		},
		{
			name: "collinear disjoint",
			a:    geom.Segment{A: geom.V(0, 0), B: geom.V(10, 0)},
			b:    geom.Segment{A: geom.V(11, 0), B: geom.V(20, 0)},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonWinding(t *testing.T) {
	// Screen coordinates, y down: this traversal is clockwise on screen.
	cw := geom.Polygon{geom.V(0, 0), geom.V(6000, 0), geom.V(6000, 4000), geom.V(0, 4000)}

	if !cw.IsClockwise() {
		t.Error("expected clockwise winding")
	}
	if got := cw.Area(); !almostEqual(got, 24e6) {
		t.Errorf("Area = %v, want 24e6", got)
	}

	ccw := cw.Reverse()
	if ccw.IsClockwise() {
		t.Error("reversed polygon must be counter-clockwise")
	}
	if got := ccw.EnsureClockwise(); !got.IsClockwise() {
		t.Error("EnsureClockwise must restore clockwise winding")
	}
}

func TestPolygonSelfIntersecting(t *testing.T) {
	tests := []struct {
		name string
		poly geom.Polygon
		want bool
	}{
		{
			name: "rectangle",
			poly: geom.Polygon{geom.V(0, 0), geom.V(6000, 0), geom.V(6000, 4000), geom.V(0, 4000)},
			want: false,
		},
		{
			name: "L-shape",
			poly: geom.Polygon{
				geom.V(0, 0), geom.V(6000, 0), geom.V(6000, 2000),
				geom.V(3000, 2000), geom.V(3000, 4000), geom.V(0, 4000),
			},
			want: false,
		},
		{
			name: "bowtie",
			poly: geom.Polygon{geom.V(0, 0), geom.V(4000, 3000), geom.V(4000, 0), geom.V(0, 3000)},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.poly.IsSelfIntersecting(); got != tt.want {
				t.Errorf("IsSelfIntersecting = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonContains(t *testing.T) {
	poly := geom.Polygon{geom.V(0, 0), geom.V(6000, 0), geom.V(6000, 4000), geom.V(0, 4000)}

	tests := []struct {
		name string
		pt   geom.Vec2
		want bool
	}{
		{"center", geom.V(3000, 2000), true},
		{"outside", geom.V(7000, 2000), false},
		{"near edge inside", geom.V(5999, 2000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := poly.Contains(tt.pt); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}
