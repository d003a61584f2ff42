package main

import (
	"os"
	"strings"
	"testing"
)

// TestE2EBungalowExample exercises the full pipeline: plan source → engine
// → perimeter → solver → frontend DTOs. This is the same path that the
// Wails Evaluate binding takes, but without the Wails runtime.
func TestE2EBungalowExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/bungalow.plan")
	if err != nil {
		t.Fatalf("failed to read bungalow.plan: %v", err)
	}

	result := app.Evaluate(string(source))

	// No errors expected.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	if len(result.Perimeters) != 1 {
		t.Fatalf("expected 1 perimeter, got %d", len(result.Perimeters))
	}
	p := result.Perimeters[0]

	if len(p.Boundary) != 4 {
		t.Errorf("expected 4 boundary points, got %d", len(p.Boundary))
	}
	if len(p.Corners) != 4 {
		t.Errorf("expected 4 corners, got %d", len(p.Corners))
	}
	if len(p.Walls) != 4 {
		t.Fatalf("expected 4 walls, got %d", len(p.Walls))
	}

	// Every wall carries a color and both face segments.
	for _, w := range p.Walls {
		if w.Color == "" {
			t.Errorf("wall %d: no color assigned", w.Index)
		}
		if w.InsideLength <= 0 || w.OutsideLength <= 0 {
			t.Errorf("wall %d: degenerate face lengths %.1f / %.1f",
				w.Index, w.InsideLength, w.OutsideLength)
		}
	}

	// The door and both windows sit on the south wall.
	if got := len(p.Walls[0].Openings); got != 3 {
		t.Errorf("expected 3 openings on wall 0, got %d", got)
	}
	for _, o := range p.Walls[0].Openings {
		if len(o.Footprint) != 4 {
			t.Errorf("opening %s: expected 4 footprint points, got %d", o.ID, len(o.Footprint))
		}
	}

	// The script solves a fully satisfiable system.
	if p.SolveStatus != "converged" {
		t.Errorf("expected solve status converged, got %q", p.SolveStatus)
	}
	if len(p.Constraints) != 5 {
		t.Errorf("expected 5 constraints, got %d", len(p.Constraints))
	}
	for _, c := range p.Constraints {
		if c.Status != "satisfied" {
			t.Errorf("constraint %s: expected satisfied, got %q", c.ID, c.Status)
		}
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Perimeters) != 0 {
		t.Errorf("expected 0 perimeters for empty source, got %d", len(result.Perimeters))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(perimeter :thickness 440")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Perimeters) != 0 {
		t.Errorf("expected 0 perimeters on error, got %d", len(result.Perimeters))
	}
}

// TestE2EOverlappingOpenings ensures a placement conflict in the script
// surfaces as an eval error.
func TestE2EOverlappingOpenings(t *testing.T) {
	app := NewApp()
	source := `
(def p (perimeter :thickness 440
  (point 0 0) (point 6000 0) (point 6000 4000) (point 0 4000)))
(door p 0 :at 1000 :width 800 :height 2100)
(door p 0 :at 1500 :width 800 :height 2100)
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected an eval error for overlapping openings")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "overlap") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an overlap message, got %v", result.Errors)
	}
}

// TestSnapBinding ensures the pointer snap binding resolves a proximity
// snap and reports guides for an alignment snap.
func TestSnapBinding(t *testing.T) {
	app := NewApp()

	res := app.Snap(SnapRequest{
		SnapPoints: []PointData{{X: 1000, Y: 1000}},
		Pointer:    PointData{X: 1040, Y: 980},
		Tolerance:  100,
	})
	if !res.Snapped {
		t.Fatal("expected a proximity snap")
	}
	if res.Position.X != 1000 || res.Position.Y != 1000 {
		t.Errorf("expected snap to (1000, 1000), got (%.1f, %.1f)", res.Position.X, res.Position.Y)
	}

	res = app.Snap(SnapRequest{
		AlignPoints: []PointData{{X: 0, Y: 2000}},
		Pointer:     PointData{X: 3000, Y: 2030},
		Tolerance:   100,
	})
	if !res.Snapped {
		t.Fatal("expected an alignment snap")
	}
	if res.Position.Y != 2000 {
		t.Errorf("expected pointer pulled onto y=2000, got y=%.1f", res.Position.Y)
	}
	if len(res.Guides) == 0 {
		t.Error("expected at least one guide line")
	}
}

// TestSelfIntersectBindings covers the polygon drawing guards.
func TestSelfIntersectBindings(t *testing.T) {
	app := NewApp()

	chain := []PointData{{X: 0, Y: 0}, {X: 4000, Y: 0}, {X: 4000, Y: 3000}}
	if app.WouldSelfIntersect(chain, PointData{X: 0, Y: 3000}) {
		t.Error("appending a convex corner must not self-intersect")
	}
	if !app.WouldSelfIntersect(chain, PointData{X: 2000, Y: -1000}) {
		t.Error("crossing the first edge must self-intersect")
	}

	if app.WouldCloseSelfIntersect(chain) {
		t.Error("closing a triangle must be valid")
	}
	if !app.WouldCloseSelfIntersect(chain[:2]) {
		t.Error("two points cannot close into a polygon")
	}
}
