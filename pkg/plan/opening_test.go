package plan_test

import (
	"errors"
	"testing"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
	"github.com/wheerd/strawbuild-studio-sub000/pkg/plan"
)

func buildRect(t *testing.T) *plan.Perimeter {
	t.Helper()
	p, err := plan.BuildPerimeter(rect(), uniformEdges(4, 440))
	if err != nil {
		t.Fatalf("BuildPerimeter: %v", err)
	}
	return p
}

func TestAddOpeningPlacement(t *testing.T) {
	p := buildRect(t)

	// The south wall's inside face runs 6000 - 2*440 = 5120mm.
	if !almostEqual(p.Walls[0].InsideLength, 5120) {
		t.Fatalf("inside length %.1f, want 5120", p.Walls[0].InsideLength)
	}

	// An 800mm door at offset 1000 fits.
	id, err := p.AddOpening(0, plan.OpeningParams{
		Type: plan.OpeningDoor, OffsetFromStart: 1000, Width: 800, Height: 2100,
	})
	if err != nil {
		t.Fatalf("AddOpening: %v", err)
	}

	// A second opening at 1500 overlaps [1000, 1800).
	_, err = p.AddOpening(0, plan.OpeningParams{
		Type: plan.OpeningWindow, OffsetFromStart: 1500, Width: 800, Height: 1200,
	})
	var overlap plan.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %T (%v)", err, err)
	}
	if overlap.Existing != id {
		t.Errorf("overlap reports opening %s, want %s", overlap.Existing, id)
	}

	// Touching edge to edge at 1800 is allowed.
	if _, err := p.AddOpening(0, plan.OpeningParams{
		Type: plan.OpeningWindow, OffsetFromStart: 1800, Width: 800, Height: 1200,
	}); err != nil {
		t.Fatalf("touching openings must be allowed: %v", err)
	}

	// Openings stay sorted by offset.
	ops := p.Walls[0].Openings
	if len(ops) != 2 {
		t.Fatalf("expected 2 openings, got %d", len(ops))
	}
	if ops[0].OffsetFromStart > ops[1].OffsetFromStart {
		t.Error("openings not sorted by offset")
	}
}

func TestAddOpeningOutOfBounds(t *testing.T) {
	p := buildRect(t)

	_, err := p.AddOpening(0, plan.OpeningParams{
		Type: plan.OpeningDoor, OffsetFromStart: 4500, Width: 800, Height: 2100,
	})
	var oob plan.OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("expected OutOfBoundsError, got %T (%v)", err, err)
	}
	if !almostEqual(oob.InsideLength, 5120) {
		t.Errorf("error reports inside length %.1f", oob.InsideLength)
	}
	if len(p.Walls[0].Openings) != 0 {
		t.Error("failed placement must not mutate the wall")
	}
}

func TestRemoveOpening(t *testing.T) {
	p := buildRect(t)
	id, err := p.AddOpening(0, plan.OpeningParams{
		Type: plan.OpeningDoor, OffsetFromStart: 1000, Width: 800, Height: 2100,
	})
	if err != nil {
		t.Fatalf("AddOpening: %v", err)
	}

	if err := p.RemoveOpening(0, id); err != nil {
		t.Fatalf("RemoveOpening: %v", err)
	}
	if len(p.Walls[0].Openings) != 0 {
		t.Error("opening not removed")
	}
	if err := p.RemoveOpening(0, id); err == nil {
		t.Error("expected removing an unknown opening to fail")
	}
}

func TestFindNearestValidOpeningPosition(t *testing.T) {
	p := buildRect(t)
	for _, offset := range []float64{1000, 1800} {
		if _, err := p.AddOpening(0, plan.OpeningParams{
			Type: plan.OpeningDoor, OffsetFromStart: offset, Width: 800, Height: 2100,
		}); err != nil {
			t.Fatalf("AddOpening at %.0f: %v", offset, err)
		}
	}

	tests := []struct {
		name      string
		preferred float64
		width     float64
		want      float64
		wantOK    bool
	}{
		// Occupied span is [1000, 2600); the gap after it needs a smaller
		// shift than the gap before it.
		{"pushed past occupied span", 1500, 800, 2600, true},
		{"already free", 3000, 800, 3000, true},
		{"clamped to wall start", -500, 800, 0, true},
		{"clamped to wall end", 9000, 800, 4320, true},
		{"wider than any gap", 1500, 4000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.FindNearestValidOpeningPosition(0, tt.preferred, tt.width)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("position = %.1f, want %.1f", got, tt.want)
			}
		})
	}
}

func TestOpeningFootprint(t *testing.T) {
	p := buildRect(t)
	id, err := p.AddOpening(0, plan.OpeningParams{
		Type: plan.OpeningDoor, OffsetFromStart: 1000, Width: 800, Height: 2100,
	})
	if err != nil {
		t.Fatalf("AddOpening: %v", err)
	}

	var opening *plan.Opening
	for _, o := range p.Walls[0].Openings {
		if o.ID == id {
			opening = o
		}
	}
	if opening == nil {
		t.Fatal("opening not found on wall")
	}

	// The south wall's inside face starts at (440, 440); the footprint
	// spans the thickness back to the outside face at y=0.
	fp := p.Walls[0].OpeningFootprint(opening)
	want := geom.Polygon{
		geom.V(1440, 440), geom.V(2240, 440), geom.V(2240, 0), geom.V(1440, 0),
	}
	if len(fp) != 4 {
		t.Fatalf("footprint has %d points", len(fp))
	}
	for i := range want {
		if !vecAlmostEqual(fp[i], want[i]) {
			t.Errorf("footprint[%d] = %v, want %v", i, fp[i], want[i])
		}
	}
}
