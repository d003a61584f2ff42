package plan

import (
	"fmt"
	"math"
	"sort"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
)

// OpeningParams carries the caller-supplied fields for a new opening.
type OpeningParams struct {
	Type            OpeningType `json:"type"`
	OffsetFromStart float64     `json:"offset_from_start"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	SillHeight      *float64    `json:"sill_height,omitempty"`
}

// CanPlaceOpening reports whether the interval [offset, offset+width)
// fits on wall i without overlapping an existing opening. Touching edges
// are allowed; overlapping is not.
func (p *Perimeter) CanPlaceOpening(wall int, offset, width float64) error {
	if wall < 0 || wall >= len(p.Walls) {
		return fmt.Errorf("wall index %d out of range", wall)
	}
	w := p.Walls[wall]
	if width <= 0 {
		return fmt.Errorf("opening width must be positive, got %.1f", width)
	}
	if offset < -geom.Epsilon || offset+width > w.InsideLength+geom.Epsilon {
		return OutOfBoundsError{Wall: wall, Offset: offset, Width: width, InsideLength: w.InsideLength}
	}
	for _, o := range w.Openings {
		if offset < o.End()-geom.Epsilon && o.OffsetFromStart < offset+width-geom.Epsilon {
			return OverlapError{Wall: wall, Existing: o.ID}
		}
	}
	return nil
}

// AddOpening places a new opening on wall i. It fails with OverlapError or
// OutOfBoundsError without mutating any state; on success the wall's
// openings stay sorted by offset.
func (p *Perimeter) AddOpening(wall int, params OpeningParams) (OpeningID, error) {
	if err := p.CanPlaceOpening(wall, params.OffsetFromStart, params.Width); err != nil {
		return "", err
	}
	o := &Opening{
		ID:              NewOpeningID(),
		Type:            params.Type,
		OffsetFromStart: params.OffsetFromStart,
		Width:           params.Width,
		Height:          params.Height,
		SillHeight:      params.SillHeight,
	}
	ops := append(append([]*Opening(nil), p.openings[wall]...), o)
	sort.Slice(ops, func(a, b int) bool { return ops[a].OffsetFromStart < ops[b].OffsetFromStart })
	p.openings[wall] = ops
	p.Walls[wall].Openings = ops
	return o.ID, nil
}

// RemoveOpening deletes an opening by ID. It returns an error when the ID
// is unknown on that wall.
func (p *Perimeter) RemoveOpening(wall int, id OpeningID) error {
	if wall < 0 || wall >= len(p.Walls) {
		return fmt.Errorf("wall index %d out of range", wall)
	}
	ops := p.openings[wall]
	for i, o := range ops {
		if o.ID == id {
			out := append(append([]*Opening(nil), ops[:i]...), ops[i+1:]...)
			p.openings[wall] = out
			p.Walls[wall].Openings = out
			return nil
		}
	}
	return fmt.Errorf("no opening %s on wall %d", id, wall)
}

// FindNearestValidOpeningPosition returns the valid placement offset for
// an opening of the given width on wall i nearest to the preferred offset.
// The preferred offset is clamped to the wall first; when the clamped
// position collides with an existing opening the free gaps on both sides
// are considered and the direction requiring the smaller shift wins, with
// the lower offset preferred on an exact tie. The second return value is
// false when no valid position exists on the wall. Pure query; nothing is
// mutated.
func (p *Perimeter) FindNearestValidOpeningPosition(wall int, preferredOffset, width float64) (float64, bool) {
	if wall < 0 || wall >= len(p.Walls) || width <= 0 {
		return 0, false
	}
	w := p.Walls[wall]
	if width > w.InsideLength+geom.Epsilon {
		return 0, false
	}

	pref := math.Max(0, math.Min(preferredOffset, w.InsideLength-width))

	best := 0.0
	bestShift := math.Inf(1)
	// Walk the free gaps between openings (and the wall ends); openings
	// are kept sorted by offset.
	gapStart := 0.0
	consider := func(lo, hi float64) {
		if hi-lo < width-geom.Epsilon {
			return
		}
		cand := math.Max(lo, math.Min(pref, hi-width))
		shift := math.Abs(cand - pref)
		if shift < bestShift-geom.Epsilon || (math.Abs(shift-bestShift) < geom.Epsilon && cand < best) {
			best = cand
			bestShift = shift
		}
	}
	for _, o := range w.Openings {
		consider(gapStart, o.OffsetFromStart)
		gapStart = o.End()
	}
	consider(gapStart, w.InsideLength)

	if math.IsInf(bestShift, 1) {
		return 0, false
	}
	return best, true
}
