package script

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
	"github.com/wheerd/strawbuild-studio-sub000/pkg/plan"
	"github.com/wheerd/strawbuild-studio-sub000/pkg/solve"
)

// ---------------------------------------------------------------------------
// Source rewriting
// ---------------------------------------------------------------------------

// rewriteSource transforms plan script source before passing it to zygomys.
// It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids registering keyword symbols as globals, which would
//     conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: fix-length -> fix_length
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. ; line comments become // comments, which is what zygomys expects.
//
// All transformations respect string literal boundaries.
func rewriteSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Copy double-quoted string literals untouched.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Copy backtick-quoted string literals untouched.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments.
		if b[i] == ';' {
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers when the hyphen sits between
		// identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPoint wraps a 2D point so (point x y) results can flow into
// (perimeter ...).
type sexpPoint struct {
	pt geom.Vec2
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(point %.1f %.1f)", p.pt.X, p.pt.Y)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpPerimeter wraps a built perimeter and its constraint system so later
// forms (wall, door, fix-length, solve) can address it.
type sexpPerimeter struct {
	per *plan.Perimeter
	sys *solve.System
}

func (p *sexpPerimeter) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(perimeter %s %d corners)", p.per.ID, len(p.per.Corners))
}
func (p *sexpPerimeter) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by rewriteSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a rewritten keyword string. Returns the keyword
// name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a wall or corner index from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both rewritten keywords (__kw_inside) and plain strings ("inside").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toPerimeter extracts the perimeter reference produced by (perimeter ...).
func toPerimeter(s zygo.Sexp) (*sexpPerimeter, error) {
	if p, ok := s.(*sexpPerimeter); ok {
		return p, nil
	}
	return nil, fmt.Errorf("expected perimeter, got %T (%s)", s, s.SexpString(nil))
}

// toSide converts a keyword to the face a length constraint measures.
func toSide(s zygo.Sexp) (solve.Side, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected side keyword (:inside, :outside): %w", err)
	}
	switch name {
	case "inside":
		return solve.SideInside, nil
	case "outside":
		return solve.SideOutside, nil
	}
	return 0, fmt.Errorf("invalid side %q, expected inside or outside", name)
}

// toOwnership converts a keyword to a corner ownership flag.
func toOwnership(s zygo.Sexp) (plan.Ownership, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected ownership keyword (:previous, :next): %w", err)
	}
	switch name {
	case "previous":
		return plan.OwnerPrevious, nil
	case "next":
		return plan.OwnerNext, nil
	}
	return 0, fmt.Errorf("invalid ownership %q, expected previous or next", name)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the plan DSL builtins into a zygomys
// environment. The builtins populate the provided Model during evaluation.
//
// Source code must be rewritten with rewriteSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, m *Model) {

	// -----------------------------------------------------------------------
	// (point 6000 0)
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("point requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: y: %w", err)
		}
		return &sexpPoint{pt: geom.V(x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (perimeter :thickness 440 :method "SB-44"
	//   (point 0 0) (point 6000 0) (point 6000 4000) (point 0 4000))
	// -----------------------------------------------------------------------
	env.AddFunction("perimeter", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		thickness := 0.0
		if v, ok := pa.kw["thickness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("perimeter: thickness: %w", err)
			}
			thickness = f
		}
		if thickness <= 0 {
			return zygo.SexpNull, fmt.Errorf("perimeter: :thickness is required and must be positive")
		}
		method := ""
		if v, ok := pa.kw["method"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("perimeter: method: %w", err)
			}
			method = s
		}

		boundary := make([]geom.Vec2, 0, len(pa.positional))
		for i, arg := range pa.positional {
			p, ok := arg.(*sexpPoint)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("perimeter: argument %d: expected point, got %T (%s)",
					i, arg, arg.SexpString(nil))
			}
			boundary = append(boundary, p.pt)
		}

		edges := make([]plan.EdgeParams, len(boundary))
		for i := range edges {
			edges[i] = plan.EdgeParams{Thickness: thickness, ConstructionMethodID: method}
		}

		per, err := m.Registry.Build(boundary, edges)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("perimeter: %w", err)
		}
		sys := solve.NewSystem(per)
		m.Order = append(m.Order, per.ID)
		m.Systems[per.ID] = sys

		return &sexpPerimeter{per: per, sys: sys}, nil
	})

	// -----------------------------------------------------------------------
	// (wall per 1 :thickness 300 :method "SB-30")
	// -----------------------------------------------------------------------
	env.AddFunction("wall", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("wall requires a perimeter and a wall index")
		}
		ref, err := toPerimeter(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: %w", err)
		}
		idx, err := toInt(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: index: %w", err)
		}

		if v, ok := pa.kw["thickness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: thickness: %w", err)
			}
			if err := ref.per.SetWallThickness(idx, f); err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: %w", err)
			}
		}
		if v, ok := pa.kw["method"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: method: %w", err)
			}
			if err := ref.per.SetWallConstructionMethod(idx, s); err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: %w", err)
			}
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (owner per 2 :next)
	// -----------------------------------------------------------------------
	env.AddFunction("owner", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("owner requires a perimeter, a corner index and an ownership keyword")
		}
		ref, err := toPerimeter(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("owner: %w", err)
		}
		idx, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("owner: corner: %w", err)
		}
		owner, err := toOwnership(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("owner: %w", err)
		}
		if err := ref.per.SetCornerOwnership(idx, owner); err != nil {
			return zygo.SexpNull, fmt.Errorf("owner: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (door per 0 :at 1000 :width 800 :height 2100)
	// (window per 1 :at 500 :width 1200 :height 1200 :sill 900)
	// (passage per 2 :at 2000 :width 900 :height 2100)
	// -----------------------------------------------------------------------
	opening := func(kind plan.OpeningType) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a perimeter and a wall index", name)
			}
			ref, err := toPerimeter(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			idx, err := toInt(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: wall: %w", name, err)
			}

			params := plan.OpeningParams{Type: kind}
			required := func(key string) (float64, error) {
				v, ok := pa.kw[key]
				if !ok {
					return 0, fmt.Errorf("%s: :%s is required", name, key)
				}
				f, err := toFloat64(v)
				if err != nil {
					return 0, fmt.Errorf("%s: %s: %w", name, key, err)
				}
				return f, nil
			}
			if params.OffsetFromStart, err = required("at"); err != nil {
				return zygo.SexpNull, err
			}
			if params.Width, err = required("width"); err != nil {
				return zygo.SexpNull, err
			}
			if params.Height, err = required("height"); err != nil {
				return zygo.SexpNull, err
			}
			if v, ok := pa.kw["sill"]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: sill: %w", name, err)
				}
				params.SillHeight = &f
			}

			id, err := ref.per.AddOpening(idx, params)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &zygo.SexpStr{S: string(id)}, nil
		}
	}
	env.AddFunction("door", opening(plan.OpeningDoor))
	env.AddFunction("window", opening(plan.OpeningWindow))
	env.AddFunction("passage", opening(plan.OpeningPassage))

	// -----------------------------------------------------------------------
	// (fix-length per 0 5000 :side :inside)
	//
	// Note: registered as "fix_length" because zygomys does not support
	// hyphens in identifiers; rewriteSource converts fix-length in the
	// source.
	// -----------------------------------------------------------------------
	env.AddFunction("fix_length", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 3 {
			return zygo.SexpNull, fmt.Errorf("fix-length requires a perimeter, a wall index and a length")
		}
		ref, err := toPerimeter(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fix-length: %w", err)
		}
		idx, err := toInt(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fix-length: wall: %w", err)
		}
		length, err := toFloat64(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fix-length: length: %w", err)
		}
		side := solve.SideOutside
		if v, ok := pa.kw["side"]; ok {
			if side, err = toSide(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("fix-length: %w", err)
			}
		}

		id, err := ref.sys.Add(solve.WallLength{Wall: idx, Side: side, Length: length})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fix-length: %w", err)
		}
		return &zygo.SexpStr{S: string(id)}, nil
	})

	// -----------------------------------------------------------------------
	// (horizontal per 0), (vertical per 1)
	// -----------------------------------------------------------------------
	orientation := func(build func(wall int) solve.Constraint) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a perimeter and a wall index", name)
			}
			ref, err := toPerimeter(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			idx, err := toInt(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: wall: %w", name, err)
			}
			id, err := ref.sys.Add(build(idx))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &zygo.SexpStr{S: string(id)}, nil
		}
	}
	env.AddFunction("horizontal", orientation(func(w int) solve.Constraint { return solve.HorizontalWall{Wall: w} }))
	env.AddFunction("vertical", orientation(func(w int) solve.Constraint { return solve.VerticalWall{Wall: w} }))

	// -----------------------------------------------------------------------
	// (perpendicular per 0 1)
	// -----------------------------------------------------------------------
	env.AddFunction("perpendicular", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("perpendicular requires a perimeter and two wall indices")
		}
		ref, err := toPerimeter(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("perpendicular: %w", err)
		}
		a, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("perpendicular: wall a: %w", err)
		}
		b, err := toInt(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("perpendicular: wall b: %w", err)
		}
		id, err := ref.sys.Add(solve.Perpendicular{WallA: a, WallB: b})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("perpendicular: %w", err)
		}
		return &zygo.SexpStr{S: string(id)}, nil
	})

	// -----------------------------------------------------------------------
	// (colinear per 0 1 2)
	// -----------------------------------------------------------------------
	env.AddFunction("colinear", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("colinear requires a perimeter and three corner indices")
		}
		ref, err := toPerimeter(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("colinear: %w", err)
		}
		var idx [3]int
		for i := 0; i < 3; i++ {
			v, err := toInt(args[i+1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("colinear: corner %d: %w", i, err)
			}
			idx[i] = v
		}
		id, err := ref.sys.Add(solve.Colinear{CornerA: idx[0], CornerB: idx[1], CornerC: idx[2]})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("colinear: %w", err)
		}
		return &zygo.SexpStr{S: string(id)}, nil
	})

	// -----------------------------------------------------------------------
	// (solve per)
	// -----------------------------------------------------------------------
	env.AddFunction("solve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solve requires a perimeter argument")
		}
		ref, err := toPerimeter(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solve: %w", err)
		}
		report, err := ref.sys.Solve()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solve: %w", err)
		}
		m.Reports[ref.per.ID] = report
		return &zygo.SexpStr{S: report.Status.String()}, nil
	})
}
