package main

import (
	"context"
	"log"

	"github.com/wheerd/strawbuild-studio-sub000/pkg/geom"
	"github.com/wheerd/strawbuild-studio-sub000/pkg/plan"
	"github.com/wheerd/strawbuild-studio-sub000/pkg/script"
	"github.com/wheerd/strawbuild-studio-sub000/pkg/snap"
)

// colorPalette is a default palette used to assign distinct colors to walls.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	engine *script.Engine
}

// NewApp creates a new App with a plan script engine.
func NewApp() *App {
	return &App{engine: script.NewEngine()}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// PointData is a JSON-serializable 2D point in world millimeters.
type PointData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toPointData(v geom.Vec2) PointData {
	return PointData{X: v.X, Y: v.Y}
}

func toPointDataSlice(vs []geom.Vec2) []PointData {
	out := make([]PointData, len(vs))
	for i, v := range vs {
		out[i] = toPointData(v)
	}
	return out
}

func fromPointData(p PointData) geom.Vec2 {
	return geom.V(p.X, p.Y)
}

func fromPointDataSlice(ps []PointData) []geom.Vec2 {
	out := make([]geom.Vec2, len(ps))
	for i, p := range ps {
		out[i] = fromPointData(p)
	}
	return out
}

// CornerData is the JSON-serializable corner geometry sent to the frontend.
type CornerData struct {
	Index         int         `json:"index"`
	OutsidePoint  PointData   `json:"outsidePoint"`
	InsidePoint   PointData   `json:"insidePoint"`
	InteriorAngle float64     `json:"interiorAngle"`
	ExteriorAngle float64     `json:"exteriorAngle"`
	Convex        bool        `json:"convex"`
	ConstructedBy string      `json:"constructedBy"`
	JoinPolygon   []PointData `json:"joinPolygon,omitempty"`
	TrimPoint     PointData   `json:"trimPoint"`
}

// OpeningData is the JSON-serializable opening sent to the frontend.
type OpeningData struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"`
	OffsetFromStart float64     `json:"offsetFromStart"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	SillHeight      *float64    `json:"sillHeight,omitempty"`
	Footprint       []PointData `json:"footprint"`
}

// WallData is the JSON-serializable wall geometry sent to the frontend.
type WallData struct {
	Index              int           `json:"index"`
	Thickness          float64       `json:"thickness"`
	ConstructionMethod string        `json:"constructionMethod,omitempty"`
	InsideA            PointData     `json:"insideA"`
	InsideB            PointData     `json:"insideB"`
	OutsideA           PointData     `json:"outsideA"`
	OutsideB           PointData     `json:"outsideB"`
	InsideLength       float64       `json:"insideLength"`
	OutsideLength      float64       `json:"outsideLength"`
	Color              string        `json:"color"`
	Openings           []OpeningData `json:"openings"`
}

// ConstraintData is the JSON-serializable constraint status for the frontend.
type ConstraintData struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status,omitempty"`
}

// PerimeterData is one perimeter's full derived geometry.
type PerimeterData struct {
	ID          string           `json:"id"`
	Boundary    []PointData      `json:"boundary"`
	Corners     []CornerData     `json:"corners"`
	Walls       []WallData       `json:"walls"`
	Constraints []ConstraintData `json:"constraints"`
	SolveStatus string           `json:"solveStatus,omitempty"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Perimeters []PerimeterData `json:"perimeters"`
	Errors     []EvalErrorData `json:"errors"`
}

// Evaluate takes plan script source and returns the derived floor plan
// geometry + errors. This is the primary binding called by the frontend
// editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Perimeters: []PerimeterData{},
		Errors:     []EvalErrorData{},
	}

	model, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, id := range model.Order {
		per, err := model.Registry.Get(id)
		if err != nil {
			continue
		}
		pd := perimeterData(per)
		if sys, ok := model.Systems[id]; ok {
			report, hasReport := model.Reports[id]
			if hasReport {
				pd.SolveStatus = report.Status.String()
			}
			for _, cid := range sys.IDs() {
				c, ok := sys.Get(cid)
				if !ok {
					continue
				}
				cd := ConstraintData{ID: string(cid), Label: c.String()}
				if hasReport {
					if status, ok := report.Constraints[cid]; ok {
						cd.Status = status.String()
					}
				}
				pd.Constraints = append(pd.Constraints, cd)
			}
		}
		result.Perimeters = append(result.Perimeters, pd)
	}
	return result
}

// perimeterData converts a perimeter's derived geometry to frontend DTOs.
func perimeterData(per *plan.Perimeter) PerimeterData {
	pd := PerimeterData{
		ID:          string(per.ID),
		Boundary:    toPointDataSlice(per.Boundary()),
		Constraints: []ConstraintData{},
	}
	for _, c := range per.Corners {
		pd.Corners = append(pd.Corners, CornerData{
			Index:         c.Index,
			OutsidePoint:  toPointData(c.OutsidePoint),
			InsidePoint:   toPointData(c.InsidePoint),
			InteriorAngle: c.InteriorAngle,
			ExteriorAngle: c.ExteriorAngle,
			Convex:        c.Convex(),
			ConstructedBy: c.ConstructedBy.String(),
			JoinPolygon:   toPointDataSlice(c.JoinPolygon),
			TrimPoint:     toPointData(c.TrimPoint),
		})
	}
	for _, w := range per.Walls {
		wd := WallData{
			Index:              w.Index,
			Thickness:          w.Thickness,
			ConstructionMethod: w.ConstructionMethodID,
			InsideA:            toPointData(w.InsideLine.A),
			InsideB:            toPointData(w.InsideLine.B),
			OutsideA:           toPointData(w.OutsideLine.A),
			OutsideB:           toPointData(w.OutsideLine.B),
			InsideLength:       w.InsideLength,
			OutsideLength:      w.OutsideLength,
			Color:              colorPalette[w.Index%len(colorPalette)],
			Openings:           []OpeningData{},
		}
		for _, o := range w.Openings {
			wd.Openings = append(wd.Openings, OpeningData{
				ID:              string(o.ID),
				Type:            o.Type.String(),
				OffsetFromStart: o.OffsetFromStart,
				Width:           o.Width,
				Height:          o.Height,
				SillHeight:      o.SillHeight,
				Footprint:       toPointDataSlice(w.OpeningFootprint(o)),
			})
		}
		pd.Walls = append(pd.Walls, wd)
	}
	return pd
}

// GuideData is a rendered alignment guide line: a point on the line and
// its direction.
type GuideData struct {
	Point PointData `json:"point"`
	Dir   PointData `json:"dir"`
}

// SnapRequest carries the drawing state a pointer-move snap works from.
type SnapRequest struct {
	SnapPoints     []PointData `json:"snapPoints"`
	AlignPoints    []PointData `json:"alignPoints"`
	ReferencePoint *PointData  `json:"referencePoint,omitempty"`
	Pointer        PointData   `json:"pointer"`
	Tolerance      float64     `json:"tolerance"`
}

// SnapResultData is the resolved snap for one pointer move.
type SnapResultData struct {
	Position PointData   `json:"position"`
	Snapped  bool        `json:"snapped"`
	Guides   []GuideData `json:"guides,omitempty"`
}

// Snap resolves a pointer position against the drawing's snap and
// alignment geometry. Called by the frontend on every pointer move while a
// drawing tool is active.
func (a *App) Snap(req SnapRequest) SnapResultData {
	cfg := snap.Config{
		SnapPoints:  fromPointDataSlice(req.SnapPoints),
		AlignPoints: fromPointDataSlice(req.AlignPoints),
		Tolerance:   req.Tolerance,
	}
	if req.ReferencePoint != nil {
		rp := fromPointData(*req.ReferencePoint)
		cfg.ReferencePoint = &rp
	}
	res := snap.NewContext(cfg).Find(fromPointData(req.Pointer))

	out := SnapResultData{Position: toPointData(res.Position), Snapped: res.Snapped}
	for _, l := range res.Lines {
		out.Guides = append(out.Guides, GuideData{
			Point: toPointData(l.Point),
			Dir:   toPointData(l.Dir),
		})
	}
	return out
}

// WouldSelfIntersect reports whether appending candidate to an in-progress
// polygon would create a self-intersection. The frontend uses it to gate
// clicks while drawing a new perimeter.
func (a *App) WouldSelfIntersect(points []PointData, candidate PointData) bool {
	return snap.WouldPolygonSelfIntersect(fromPointDataSlice(points), fromPointData(candidate))
}

// WouldCloseSelfIntersect reports whether closing the in-progress polygon
// back to its first point would create a self-intersection.
func (a *App) WouldCloseSelfIntersect(points []PointData) bool {
	return snap.WouldClosingPolygonSelfIntersect(fromPointDataSlice(points))
}
