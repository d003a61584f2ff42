// Package solve implements the geometric constraint solver: user-declared
// length, orientation, perpendicularity and colinearity constraints over a
// perimeter's corners, resolved by damped least squares into updated
// corner positions with a per-constraint satisfied/redundant/conflicting
// classification.
package solve

import (
	"fmt"

	"github.com/google/uuid"
)

// ConstraintID identifies a constraint across solves. Constraints
// reference walls and corners by index (identity), so they stay valid
// while the perimeter's geometry changes.
type ConstraintID string

// NewConstraintID returns a fresh unique constraint ID.
func NewConstraintID() ConstraintID {
	return ConstraintID(uuid.NewString())
}

// Side selects which face of a wall a length constraint measures.
type Side int

const (
	SideInside Side = iota
	SideOutside
)

func (s Side) String() string {
	switch s {
	case SideInside:
		return "inside"
	case SideOutside:
		return "outside"
	default:
		return "unknown"
	}
}

// Constraint is the closed sum over all supported constraint kinds. Each
// kind carries only its own operands; the solver dispatches on the
// concrete type when assembling residuals.
type Constraint interface {
	constraint() // marker restricting implementations to this package
	String() string
}

// WallLength pins one face of a wall to a fixed length in millimeters.
type WallLength struct {
	Wall   int
	Side   Side
	Length float64
}

func (WallLength) constraint() {}

func (c WallLength) String() string {
	return fmt.Sprintf("wall %d %s length = %.1f", c.Wall, c.Side, c.Length)
}

// HorizontalWall forces a wall to run parallel to the x axis.
type HorizontalWall struct {
	Wall int
}

func (HorizontalWall) constraint() {}

func (c HorizontalWall) String() string {
	return fmt.Sprintf("wall %d horizontal", c.Wall)
}

// VerticalWall forces a wall to run parallel to the y axis.
type VerticalWall struct {
	Wall int
}

func (VerticalWall) constraint() {}

func (c VerticalWall) String() string {
	return fmt.Sprintf("wall %d vertical", c.Wall)
}

// Perpendicular forces two walls to meet at a right angle.
type Perpendicular struct {
	WallA int
	WallB int
}

func (Perpendicular) constraint() {}

func (c Perpendicular) String() string {
	return fmt.Sprintf("walls %d and %d perpendicular", c.WallA, c.WallB)
}

// Colinear forces three corners onto one straight line.
type Colinear struct {
	CornerA int
	CornerB int
	CornerC int
}

func (Colinear) constraint() {}

func (c Colinear) String() string {
	return fmt.Sprintf("corners %d, %d, %d colinear", c.CornerA, c.CornerB, c.CornerC)
}
