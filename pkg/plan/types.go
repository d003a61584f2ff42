// Package plan defines the perimeter geometry model for Strawbuild Studio:
// corners, walls and openings derived from a boundary polygon, plus the
// offset and corner-join engine that keeps them consistent.
package plan

import (
	"github.com/google/uuid"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
)

// PerimeterID identifies a perimeter across the whole model.
type PerimeterID string

// NewPerimeterID returns a fresh unique perimeter ID.
func NewPerimeterID() PerimeterID {
	return PerimeterID(uuid.NewString())
}

// OpeningID identifies an opening on a wall.
type OpeningID string

// NewOpeningID returns a fresh unique opening ID.
func NewOpeningID() OpeningID {
	return OpeningID(uuid.NewString())
}

// Ownership decides which of a corner's two adjacent walls constructs the
// corner join. The owning wall's offset geometry runs through to the
// boundary vertex; the other wall is trimmed at the owning wall's face.
type Ownership int

const (
	OwnerPrevious Ownership = iota // wall ending at the corner owns the join
	OwnerNext                      // wall starting at the corner owns the join
)

func (o Ownership) String() string {
	switch o {
	case OwnerPrevious:
		return "previous"
	case OwnerNext:
		return "next"
	default:
		return "unknown"
	}
}

// OpeningType enumerates the kinds of wall openings.
type OpeningType int

const (
	OpeningDoor OpeningType = iota
	OpeningWindow
	OpeningPassage
)

func (t OpeningType) String() string {
	switch t {
	case OpeningDoor:
		return "door"
	case OpeningWindow:
		return "window"
	case OpeningPassage:
		return "passage"
	default:
		return "unknown"
	}
}

// EdgeParams carries the per-edge construction input for BuildPerimeter.
// Edge i runs from boundary vertex i to vertex i+1 (cyclic).
type EdgeParams struct {
	Thickness            float64 `json:"thickness"` // mm, offset from outside to inside face
	ConstructionMethodID string  `json:"construction_method_id,omitempty"`
}

// Corner is the joint between two consecutive perimeter walls.
// Corners are recomputed on every rebuild; treat all fields as read-only
// and mutate only through Perimeter methods.
type Corner struct {
	Index         int          `json:"index"`
	OutsidePoint  geom.Vec2    `json:"outside_point"` // the boundary vertex
	InsidePoint   geom.Vec2    `json:"inside_point"`  // miter of the adjacent inside faces
	InteriorAngle float64      `json:"interior_angle"` // degrees, <180 convex
	ExteriorAngle float64      `json:"exterior_angle"` // degrees, 360 - interior
	ConstructedBy Ownership    `json:"constructed_by"`
	JoinPolygon   geom.Polygon `json:"join_polygon,omitempty"` // corner carpentry region
	TrimPoint     geom.Vec2    `json:"trim_point"` // where the non-owning wall is cut
}

// Convex reports whether the corner is convex (interior angle below 180).
func (c *Corner) Convex() bool {
	return c.InteriorAngle < 180
}

// Wall is one straight run of the perimeter between two consecutive
// corners. Walls hold corner indices into the perimeter's corner arena
// rather than pointers, so identities stay stable across rebuilds.
// Treat all fields as read-only; mutate only through Perimeter methods.
type Wall struct {
	Index                int          `json:"index"`
	StartCorner          int          `json:"start_corner"`
	EndCorner            int          `json:"end_corner"`
	Thickness            float64      `json:"thickness"`
	ConstructionMethodID string       `json:"construction_method_id,omitempty"`
	Direction            geom.Vec2    `json:"direction"` // unit vector along the inside face
	InsideLine           geom.Segment `json:"inside_line"`
	OutsideLine          geom.Segment `json:"outside_line"`
	InsideLength         float64      `json:"inside_length"`
	OutsideLength        float64      `json:"outside_length"`
	Openings             []*Opening   `json:"openings,omitempty"` // sorted by OffsetFromStart
}

// PointAtOffset returns the point on the wall's inside line at the given
// 1-D offset from the wall start. This is the coordinate frame all opening
// placement uses.
func (w *Wall) PointAtOffset(offset float64) geom.Vec2 {
	return w.InsideLine.A.Add(w.Direction.Scale(offset))
}

// OpeningFootprint returns the plan-view rectangle an opening occupies,
// spanning the wall thickness between the inside and outside faces.
func (w *Wall) OpeningFootprint(o *Opening) geom.Polygon {
	a := w.PointAtOffset(o.OffsetFromStart)
	b := w.PointAtOffset(o.OffsetFromStart + o.Width)
	out := w.Direction.Perp().Scale(-w.Thickness) // from inside face back to outside face
	return geom.Polygon{a, b, b.Add(out), a.Add(out)}
}

// Opening is a door, window or passage placed on a wall at a 1-D offset
// along the wall's inside line.
type Opening struct {
	ID              OpeningID   `json:"id"`
	Type            OpeningType `json:"type"`
	OffsetFromStart float64     `json:"offset_from_start"` // mm along the inside line
	Width           float64     `json:"width"`             // mm
	Height          float64     `json:"height"`            // mm
	SillHeight      *float64    `json:"sill_height,omitempty"` // mm above floor, nil for floor-level
}

// End returns the offset of the opening's far edge.
func (o *Opening) End() float64 {
	return o.OffsetFromStart + o.Width
}
