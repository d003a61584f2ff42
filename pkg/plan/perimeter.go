package plan

import (
	"fmt"
	"math"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
)

// Perimeter is the root aggregate: the closed run of exterior walls of a
// building floor. The boundary polygon (outside face), per-edge
// construction parameters and per-corner ownership are the source of
// truth; Corners and Walls are derived from them on every rebuild, so
// rebuilding from identical inputs yields bit-identical geometry.
type Perimeter struct {
	ID PerimeterID

	boundary geom.Polygon // clockwise, outside face
	edges    []EdgeParams // edge i: boundary[i] -> boundary[i+1]
	owners   []Ownership  // corner i ownership

	// Derived geometry. Read-only for callers; mutate through methods only.
	Corners []*Corner
	Walls   []*Wall

	openings [][]*Opening // per wall index, sorted by offset
}

// BuildPerimeter derives a consistent Perimeter from an ordered boundary
// polygon (outside face, any winding) and per-edge construction
// parameters. The boundary is normalized to clockwise screen orientation
// before offsetting. Fails with InvalidBoundaryError on fewer than three
// points, degenerate edges, or a self-intersecting boundary; on failure no
// Perimeter is created.
func BuildPerimeter(boundary []geom.Vec2, edges []EdgeParams) (*Perimeter, error) {
	if len(boundary) < 3 {
		return nil, InvalidBoundaryError{Reason: fmt.Sprintf("need at least 3 points, got %d", len(boundary)), Edge: -1}
	}
	if len(edges) != len(boundary) {
		return nil, fmt.Errorf("edge parameter count %d does not match boundary point count %d", len(edges), len(boundary))
	}

	p := &Perimeter{
		ID:       NewPerimeterID(),
		boundary: append(geom.Polygon(nil), boundary...),
		edges:    append([]EdgeParams(nil), edges...),
		owners:   make([]Ownership, len(boundary)),
		openings: make([][]*Opening, len(boundary)),
	}
	p.normalizeWinding()

	if err := p.rebuild(); err != nil {
		return nil, err
	}
	return p, nil
}

// Boundary returns a copy of the clockwise boundary polygon.
func (p *Perimeter) Boundary() geom.Polygon {
	return append(geom.Polygon(nil), p.boundary...)
}

// EdgeParamsAt returns the construction parameters of edge i.
func (p *Perimeter) EdgeParamsAt(i int) EdgeParams {
	return p.edges[i]
}

// normalizeWinding reverses the boundary to clockwise screen orientation
// if needed, remapping per-edge parameters and corner ownership to the new
// vertex order.
func (p *Perimeter) normalizeWinding() {
	if p.boundary.IsClockwise() {
		return
	}
	n := len(p.boundary)
	p.boundary = p.boundary.Reverse()

	edges := make([]EdgeParams, n)
	owners := make([]Ownership, n)
	openings := make([][]*Opening, n)
	for j := 0; j < n; j++ {
		src := (2*n - 2 - j) % n // edge j is the reversal of old edge src
		edges[j] = p.edges[src]
		openings[j] = p.openings[src]
		// The previous wall in the new order is the next wall in the old.
		old := p.owners[n-1-j]
		if old == OwnerPrevious {
			owners[j] = OwnerNext
		} else {
			owners[j] = OwnerPrevious
		}
	}
	p.edges = edges
	p.owners = owners
	p.openings = openings
}

// rebuild recomputes all derived geometry (corners, walls) from the
// boundary, edge parameters and ownership flags, then reattaches the
// retained openings. It validates its inputs first and leaves the derived
// slices untouched on error.
func (p *Perimeter) rebuild() error {
	n := len(p.boundary)

	if err := validateBoundary(p.boundary); err != nil {
		return err
	}
	for i, e := range p.edges {
		if e.Thickness <= 0 {
			return InvalidBoundaryError{Reason: fmt.Sprintf("wall thickness must be positive, got %.1f", e.Thickness), Edge: i}
		}
	}

	// Carrier lines per edge: the outside face through the boundary
	// vertices and the inside face offset inward by the full thickness.
	outside := make([]geom.Line, n)
	inside := make([]geom.Line, n)
	for i := 0; i < n; i++ {
		a := p.boundary[i]
		b := p.boundary[(i+1)%n]
		dir := b.Sub(a).Normalize()
		outside[i] = geom.Line{Point: a, Dir: dir}
		inward := dir.Perp() // interior side for a clockwise boundary
		inside[i] = geom.Line{Point: a.Add(inward.Scale(p.edges[i].Thickness)), Dir: dir}
	}

	corners := make([]*Corner, n)
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		c := &Corner{
			Index:         i,
			OutsidePoint:  p.boundary[i],
			ConstructedBy: p.owners[i],
		}

		ip, ok := inside[prev].Intersect(inside[i])
		if !ok {
			// Adjacent edges are parallel; the owning wall's offset
			// carries the corner.
			own := inside[i]
			if p.owners[i] == OwnerPrevious {
				own = inside[prev]
			}
			ip = own.Project(p.boundary[i])
		}
		c.InsidePoint = ip

		turn := outside[prev].Dir.Cross(outside[i].Dir)
		dot := outside[prev].Dir.Dot(outside[i].Dir)
		turnDeg := math.Atan2(turn, dot) * 180 / math.Pi
		c.InteriorAngle = 180 - turnDeg
		c.ExteriorAngle = 360 - c.InteriorAngle

		// Corner join region: boundary vertex, the two face trim points,
		// and the miter point. Undefined for collinear adjacent edges.
		pPrev, ok1 := inside[prev].Intersect(outside[i])
		pNext, ok2 := inside[i].Intersect(outside[prev])
		if ok1 && ok2 {
			c.JoinPolygon = geom.Polygon{p.boundary[i], pPrev, ip, pNext}
		}
		// The non-owning wall is cut at the owning wall's inside face.
		switch {
		case p.owners[i] == OwnerPrevious && ok1:
			c.TrimPoint = pPrev
		case p.owners[i] == OwnerNext && ok2:
			c.TrimPoint = pNext
		default:
			c.TrimPoint = ip
		}

		corners[i] = c
	}

	walls := make([]*Wall, n)
	for i := 0; i < n; i++ {
		end := (i + 1) % n
		insideSeg := geom.Segment{A: corners[i].InsidePoint, B: corners[end].InsidePoint}
		outsideSeg := geom.Segment{A: p.boundary[i], B: p.boundary[end]}

		if insideSeg.Length() < geom.Epsilon {
			return InvalidBoundaryError{Reason: "wall thickness collapses the inside face", Edge: i}
		}
		dir := insideSeg.Dir().Normalize()
		if dir.Dot(outsideSeg.Dir().Normalize()) <= 0 {
			return InvalidBoundaryError{Reason: "inward offset inverts the wall", Edge: i}
		}

		walls[i] = &Wall{
			Index:                i,
			StartCorner:          i,
			EndCorner:            end,
			Thickness:            p.edges[i].Thickness,
			ConstructionMethodID: p.edges[i].ConstructionMethodID,
			Direction:            dir,
			InsideLine:           insideSeg,
			OutsideLine:          outsideSeg,
			InsideLength:         insideSeg.Length(),
			OutsideLength:        outsideSeg.Length(),
		}
	}

	// Reattach retained openings, re-validating against the new geometry.
	for i, ops := range p.openings {
		for _, o := range ops {
			if o.OffsetFromStart < 0 || o.End() > walls[i].InsideLength+geom.Epsilon {
				return OutOfBoundsError{Wall: i, Offset: o.OffsetFromStart, Width: o.Width, InsideLength: walls[i].InsideLength}
			}
		}
		walls[i].Openings = ops
	}

	p.Corners = corners
	p.Walls = walls
	return nil
}

// validateBoundary runs the boundary input checks shared by BuildPerimeter
// and the mutators.
func validateBoundary(b geom.Polygon) error {
	n := len(b)
	if n < 3 {
		return InvalidBoundaryError{Reason: fmt.Sprintf("need at least 3 points, got %d", n), Edge: -1}
	}
	for i := 0; i < n; i++ {
		if b.Edge(i).Length() < geom.Epsilon {
			return InvalidBoundaryError{Reason: "zero-length edge", Edge: i}
		}
	}
	if b.IsSelfIntersecting() {
		return InvalidBoundaryError{Reason: "boundary is self-intersecting", Edge: -1}
	}
	return nil
}

// mutate snapshots the input state, applies fn and rebuilds. On rebuild
// failure the prior state is restored, so failed edits never leave partial
// mutations behind.
func (p *Perimeter) mutate(fn func()) error {
	boundary := append(geom.Polygon(nil), p.boundary...)
	edges := append([]EdgeParams(nil), p.edges...)
	owners := append([]Ownership(nil), p.owners...)
	openings := make([][]*Opening, len(p.openings))
	copy(openings, p.openings)

	fn()
	if err := p.rebuild(); err != nil {
		p.boundary = boundary
		p.edges = edges
		p.owners = owners
		p.openings = openings
		return err
	}
	return nil
}

// SetBoundary replaces all boundary vertex positions and rebuilds. The
// vertex count must be unchanged; use InsertCorner/RemoveCorner to change
// topology. This is the entry point the constraint solver uses to push
// solved corner positions back into the model.
func (p *Perimeter) SetBoundary(points []geom.Vec2) error {
	if len(points) != len(p.boundary) {
		return fmt.Errorf("boundary point count changed from %d to %d; insert or remove corners instead",
			len(p.boundary), len(points))
	}
	return p.mutate(func() {
		p.boundary = append(geom.Polygon(nil), points...)
	})
}

// SetCornerOwnership changes which adjacent wall constructs corner i and
// rebuilds the derived geometry.
func (p *Perimeter) SetCornerOwnership(i int, owner Ownership) error {
	if i < 0 || i >= len(p.owners) {
		return fmt.Errorf("corner index %d out of range", i)
	}
	return p.mutate(func() {
		p.owners[i] = owner
	})
}

// SetWallThickness changes wall i's thickness and rebuilds. Fails without
// mutating if the new inside face no longer fits the wall's openings.
func (p *Perimeter) SetWallThickness(i int, thickness float64) error {
	if i < 0 || i >= len(p.edges) {
		return fmt.Errorf("wall index %d out of range", i)
	}
	return p.mutate(func() {
		p.edges[i].Thickness = thickness
	})
}

// SetWallConstructionMethod changes wall i's construction method and
// rebuilds.
func (p *Perimeter) SetWallConstructionMethod(i int, methodID string) error {
	if i < 0 || i >= len(p.edges) {
		return fmt.Errorf("wall index %d out of range", i)
	}
	return p.mutate(func() {
		p.edges[i].ConstructionMethodID = methodID
	})
}

// RemoveCorner deletes corner i and merges its two adjacent walls into
// one. The merged wall keeps the parameters of the wall that ended at the
// removed corner; openings on both merged walls are discarded because
// their placement frame no longer exists.
func (p *Perimeter) RemoveCorner(i int) error {
	n := len(p.boundary)
	if n <= 3 {
		return InvalidBoundaryError{Reason: "cannot remove a corner of a triangle", Edge: i}
	}
	if i < 0 || i >= n {
		return fmt.Errorf("corner index %d out of range", i)
	}
	return p.mutate(func() {
		prev := (i - 1 + n) % n
		p.boundary = append(p.boundary[:i:i], p.boundary[i+1:]...)
		p.owners = append(p.owners[:i:i], p.owners[i+1:]...)
		// Edge prev absorbs edge i; edge i disappears.
		edges := append(p.edges[:i:i], p.edges[i+1:]...)
		openings := append(p.openings[:i:i], p.openings[i+1:]...)
		if i == 0 {
			prev = len(edges) - 1
		}
		openings[prev] = nil
		p.edges = edges
		p.openings = openings
	})
}

// InsertCorner splits wall i at the given boundary point, creating a new
// corner and a new wall with the same construction parameters. Openings on
// the split wall are discarded.
func (p *Perimeter) InsertCorner(i int, point geom.Vec2) error {
	n := len(p.boundary)
	if i < 0 || i >= n {
		return fmt.Errorf("wall index %d out of range", i)
	}
	return p.mutate(func() {
		at := i + 1
		p.boundary = append(p.boundary[:at:at], append(geom.Polygon{point}, p.boundary[at:]...)...)
		p.owners = append(p.owners[:at:at], append([]Ownership{OwnerPrevious}, p.owners[at:]...)...)
		p.edges = append(p.edges[:at:at], append([]EdgeParams{p.edges[i]}, p.edges[at:]...)...)
		p.openings = append(p.openings[:at:at], append([][]*Opening{nil}, p.openings[at:]...)...)
		p.openings[i] = nil
	})
}
