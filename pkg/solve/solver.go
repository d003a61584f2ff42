package solve

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
	"github.com/wheerd/strawbuild-studio-sub000/pkg/plan"
)

const (
	// MaxIterations caps the damped Gauss-Newton loop independently of
	// corner count, bounding solve latency.
	MaxIterations = 100

	// ConvergenceTolerance is the residual norm (mm) below which the
	// solve is considered converged.
	ConvergenceTolerance = 1e-6

	// SatisfiedTolerance is the per-constraint residual (mm) below which
	// an individual constraint counts as satisfied.
	SatisfiedTolerance = 1e-3

	// angularScale converts the dimensionless orientation residuals
	// (normalized dot and cross products) into millimeter-comparable
	// magnitudes.
	angularScale = 1000.0

	diffStep      = 1e-5 // central difference step, mm
	rankTolerance = 1e-9 // relative singular value cutoff
)

// ErrSolveInProgress is returned when Solve is called while another solve
// on the same system is still running. Solves mutate shared corner state
// in place, so they must not interleave.
var ErrSolveInProgress = errors.New("solve already in progress on this system")

// Status is the solver's lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusSolving
	StatusConverged
	StatusConflicting
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSolving:
		return "solving"
	case StatusConverged:
		return "converged"
	case StatusConflicting:
		return "conflicting"
	default:
		return "unknown"
	}
}

// ConstraintStatus is the advisory per-constraint classification of a
// solve. It annotates the UI; it is never a hard error.
type ConstraintStatus int

const (
	ConstraintSatisfied ConstraintStatus = iota
	ConstraintRedundant
	ConstraintConflicting
)

func (s ConstraintStatus) String() string {
	switch s {
	case ConstraintSatisfied:
		return "satisfied"
	case ConstraintRedundant:
		return "redundant"
	case ConstraintConflicting:
		return "conflicting"
	default:
		return "unknown"
	}
}

// Report is the outcome of one solve: the overall classification plus the
// per-constraint statuses and degrees-of-freedom bookkeeping.
type Report struct {
	Status       Status                            `json:"status"`
	Constraints  map[ConstraintID]ConstraintStatus `json:"constraints"`
	Iterations   int                               `json:"iterations"`
	ResidualNorm float64                           `json:"residual_norm"`
	Unknowns     int                               `json:"unknowns"`  // 2 x corner count
	Equations    int                               `json:"equations"` // one residual per constraint
	Rank         int                               `json:"rank"`      // independent equations at the solution
}

// System owns the constraint set declared over one perimeter and solves it
// on demand. Adding or removing a constraint never recomputes anything;
// only Solve does. A System must not be shared across perimeters.
type System struct {
	mu     sync.Mutex
	per    *plan.Perimeter
	order  []ConstraintID
	byID   map[ConstraintID]Constraint
	status Status
	last   Report
}

// NewSystem creates an empty constraint system over the given perimeter.
func NewSystem(p *plan.Perimeter) *System {
	return &System{
		per:    p,
		byID:   make(map[ConstraintID]Constraint),
		status: StatusIdle,
	}
}

// Perimeter returns the perimeter this system solves over.
func (s *System) Perimeter() *plan.Perimeter {
	return s.per
}

// Status returns the solver's current lifecycle state.
func (s *System) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastReport returns the report of the most recent solve.
func (s *System) LastReport() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Add declares a new constraint after validating its wall/corner
// references and returns its ID. The system returns to Idle; nothing is
// recomputed until Solve.
func (s *System) Add(c Constraint) (ConstraintID, error) {
	if err := s.validate(c); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := NewConstraintID()
	s.byID[id] = c
	s.order = append(s.order, id)
	s.status = StatusIdle
	return id, nil
}

// Remove deletes a constraint by ID. The system returns to Idle.
func (s *System) Remove(id ConstraintID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("no constraint %s", id)
	}
	delete(s.byID, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.status = StatusIdle
	return nil
}

// IDs returns the constraint IDs in the order they were added.
func (s *System) IDs() []ConstraintID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ConstraintID(nil), s.order...)
}

// Get returns the constraint with the given ID.
func (s *System) Get(id ConstraintID) (Constraint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	return c, ok
}

// Constraints returns the constraints in the order they were added.
func (s *System) Constraints() []Constraint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Constraint, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

func (s *System) validate(c Constraint) error {
	n := len(s.per.Walls)
	wallOK := func(i int) error {
		if i < 0 || i >= n {
			return fmt.Errorf("wall index %d out of range [0, %d)", i, n)
		}
		return nil
	}
	switch c := c.(type) {
	case WallLength:
		if c.Length <= 0 {
			return fmt.Errorf("wall length must be positive, got %.1f", c.Length)
		}
		return wallOK(c.Wall)
	case HorizontalWall:
		return wallOK(c.Wall)
	case VerticalWall:
		return wallOK(c.Wall)
	case Perpendicular:
		if c.WallA == c.WallB {
			return fmt.Errorf("perpendicular constraint needs two distinct walls")
		}
		if err := wallOK(c.WallA); err != nil {
			return err
		}
		return wallOK(c.WallB)
	case Colinear:
		if c.CornerA == c.CornerB || c.CornerB == c.CornerC || c.CornerA == c.CornerC {
			return fmt.Errorf("colinear constraint needs three distinct corners")
		}
		for _, i := range []int{c.CornerA, c.CornerB, c.CornerC} {
			if i < 0 || i >= n {
				return fmt.Errorf("corner index %d out of range [0, %d)", i, n)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown constraint type %T", c)
	}
}

// Solve runs the damped Gauss-Newton iteration from the current corner
// positions, pushes the solved positions back into the perimeter and
// classifies every constraint. Non-convergence is reported as data, never
// as an error; the only errors are a concurrent solve on the same system
// and a solved boundary the offset engine rejects (in which case positions
// stay unchanged).
func (s *System) Solve() (Report, error) {
	if !s.mu.TryLock() {
		return Report{}, ErrSolveInProgress
	}
	defer s.mu.Unlock()
	s.status = StatusSolving

	pts := s.per.Boundary()
	m := len(s.order)
	unknowns := 2 * len(pts)
	report := Report{
		Constraints: make(map[ConstraintID]ConstraintStatus, m),
		Unknowns:    unknowns,
		Equations:   m,
	}
	if m == 0 {
		report.Status = StatusConverged
		s.finish(report)
		return report, nil
	}

	// Freeze the per-wall inside/outside inset for this solve; it is
	// determined by corner angles and thicknesses, which a length solve
	// barely perturbs.
	insets := make([]float64, len(s.per.Walls))
	for i, w := range s.per.Walls {
		insets[i] = w.OutsideLength - w.InsideLength
	}

	cur := append([]geom.Vec2(nil), pts...)
	r := mat.NewVecDense(m, nil)
	s.residuals(cur, insets, r)
	norm := mat.Norm(r, 2)

	jac := mat.NewDense(m, unknowns, nil)
	lambda := 1e-8
	iter := 0
	for ; iter < MaxIterations && norm > ConvergenceTolerance; iter++ {
		s.jacobian(cur, insets, jac)

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), r)

		dx := mat.NewVecDense(unknowns, nil)
		if !solveDamped(&jtj, &jtr, dx, &lambda) {
			break
		}

		cand := make([]geom.Vec2, len(cur))
		for i := range cur {
			cand[i] = geom.V(cur[i].X-dx.AtVec(2*i), cur[i].Y-dx.AtVec(2*i+1))
		}
		rc := mat.NewVecDense(m, nil)
		s.residuals(cand, insets, rc)
		cn := mat.Norm(rc, 2)
		if cn <= norm {
			cur, r, norm = cand, rc, cn
			lambda = math.Max(lambda/10, 1e-12)
		} else {
			// Step made things worse: increase damping and retry.
			lambda *= 10
		}
	}
	report.Iterations = iter
	report.ResidualNorm = norm

	s.classify(cur, insets, r, &report)

	// Push the solved positions through the offset engine so walls and
	// corners are re-derived from the new boundary.
	if err := s.per.SetBoundary(cur); err != nil {
		report.Status = StatusConflicting
		s.finish(report)
		return report, fmt.Errorf("solved boundary rejected: %w", err)
	}
	s.finish(report)
	return report, nil
}

// finish records the terminal classification and returns the state
// machine to Idle.
func (s *System) finish(report Report) {
	s.last = report
	s.status = StatusIdle
}

// solveDamped solves (JtJ + lambda*(1+diag(JtJ))) dx = Jt r, raising
// lambda until the damped normal matrix factorizes. Reports false when no
// usable factorization is found.
func solveDamped(jtj *mat.Dense, jtr *mat.VecDense, dx *mat.VecDense, lambda *float64) bool {
	n, _ := jtj.Dims()
	for try := 0; try < 40; try++ {
		sym := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := jtj.At(i, j)
				if i == j {
					v += *lambda * (1 + jtj.At(i, i))
				}
				sym.SetSym(i, j, v)
			}
		}
		var chol mat.Cholesky
		if !chol.Factorize(sym) {
			*lambda *= 10
			continue
		}
		if err := chol.SolveVecTo(dx, jtr); err != nil {
			*lambda *= 10
			continue
		}
		return true
	}
	return false
}

// residuals evaluates one scalar residual per constraint at the given
// corner positions into dst.
func (s *System) residuals(pts []geom.Vec2, insets []float64, dst *mat.VecDense) {
	n := len(pts)
	wallVec := func(w int) geom.Vec2 {
		return pts[(w+1)%n].Sub(pts[w])
	}
	for k, id := range s.order {
		var r float64
		switch c := s.byID[id].(type) {
		case WallLength:
			target := c.Length
			if c.Side == SideInside {
				target += insets[c.Wall]
			}
			r = wallVec(c.Wall).Length() - target
		case HorizontalWall:
			r = wallVec(c.Wall).Y
		case VerticalWall:
			r = wallVec(c.Wall).X
		case Perpendicular:
			da := wallVec(c.WallA).Normalize()
			db := wallVec(c.WallB).Normalize()
			r = da.Dot(db) * angularScale
		case Colinear:
			ab := pts[c.CornerB].Sub(pts[c.CornerA]).Normalize()
			bc := pts[c.CornerC].Sub(pts[c.CornerB]).Normalize()
			r = ab.Cross(bc) * angularScale
		}
		dst.SetVec(k, r)
	}
}

// jacobian fills dst with the central-difference Jacobian of the residual
// vector with respect to the flattened corner coordinates.
func (s *System) jacobian(pts []geom.Vec2, insets []float64, dst *mat.Dense) {
	m := len(s.order)
	work := append([]geom.Vec2(nil), pts...)
	plus := mat.NewVecDense(m, nil)
	minus := mat.NewVecDense(m, nil)

	for v := range work {
		for coord := 0; coord < 2; coord++ {
			bump := func(h float64) {
				if coord == 0 {
					work[v].X = pts[v].X + h
				} else {
					work[v].Y = pts[v].Y + h
				}
			}
			bump(diffStep)
			s.residuals(work, insets, plus)
			bump(-diffStep)
			s.residuals(work, insets, minus)
			bump(0)

			col := 2*v + coord
			for k := 0; k < m; k++ {
				dst.Set(k, col, (plus.AtVec(k)-minus.AtVec(k))/(2*diffStep))
			}
		}
	}
}

// classify fills the per-constraint statuses and the overall status.
// Unsatisfied constraints are conflicting. Among the satisfied ones,
// newest first, a constraint whose Jacobian row does not increase the
// rank of the remaining system is redundant: removing it leaves the
// solved result unchanged.
func (s *System) classify(pts []geom.Vec2, insets []float64, r *mat.VecDense, report *Report) {
	m := len(s.order)
	unknowns := 2 * len(pts)
	jac := mat.NewDense(m, unknowns, nil)
	s.jacobian(pts, insets, jac)

	active := make([]int, m)
	for k := range active {
		active[k] = k
	}
	fullRank := rowRank(jac, active)
	report.Rank = fullRank

	conflicting := false
	for k, id := range s.order {
		if math.Abs(r.AtVec(k)) > SatisfiedTolerance {
			report.Constraints[id] = ConstraintConflicting
			conflicting = true
		} else {
			report.Constraints[id] = ConstraintSatisfied
		}
	}

	if fullRank < len(active) {
		for k := m - 1; k >= 0; k-- {
			id := s.order[k]
			if report.Constraints[id] != ConstraintSatisfied {
				continue
			}
			without := removeRow(active, k)
			if rowRank(jac, without) == rowRank(jac, active) {
				report.Constraints[id] = ConstraintRedundant
				active = without
			}
		}
	}

	if conflicting || report.ResidualNorm > ConvergenceTolerance {
		report.Status = StatusConflicting
	} else {
		report.Status = StatusConverged
	}
}

func removeRow(rows []int, row int) []int {
	out := make([]int, 0, len(rows)-1)
	for _, r := range rows {
		if r != row {
			out = append(out, r)
		}
	}
	return out
}

// rowRank returns the numerical rank of the selected Jacobian rows via
// singular values.
func rowRank(jac *mat.Dense, rows []int) int {
	if len(rows) == 0 {
		return 0
	}
	_, cols := jac.Dims()
	sub := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		for j := 0; j < cols; j++ {
			sub.Set(i, j, jac.At(row, j))
		}
	}
	var svd mat.SVD
	if !svd.Factorize(sub, mat.SVDNone) {
		return len(rows)
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return 0
	}
	rank := 0
	for _, v := range values {
		if v > rankTolerance*values[0] {
			rank++
		}
	}
	return rank
}
