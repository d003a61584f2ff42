package plan

import "fmt"

// InvalidBoundaryError reports a malformed boundary polygon: too few
// points, a degenerate edge, or a self-intersection. Boundary input is
// always rejected before any model state is mutated.
type InvalidBoundaryError struct {
	Reason string
	Edge   int // offending edge or vertex index, -1 if not edge-specific
}

func (e InvalidBoundaryError) Error() string {
	if e.Edge >= 0 {
		return fmt.Sprintf("invalid boundary: %s (edge %d)", e.Reason, e.Edge)
	}
	return fmt.Sprintf("invalid boundary: %s", e.Reason)
}

// OverlapError reports an opening placement that overlaps an existing
// opening's occupied interval on the same wall.
type OverlapError struct {
	Wall     int
	Existing OpeningID
}

func (e OverlapError) Error() string {
	return fmt.Sprintf("opening overlaps existing opening %s on wall %d", e.Existing, e.Wall)
}

// OutOfBoundsError reports an opening interval that does not fit within
// the wall's inside length.
type OutOfBoundsError struct {
	Wall         int
	Offset       float64
	Width        float64
	InsideLength float64
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("opening [%.1f, %.1f) outside wall %d inside length %.1f",
		e.Offset, e.Offset+e.Width, e.Wall, e.InsideLength)
}
