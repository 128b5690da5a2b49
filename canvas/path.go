package canvas

import (
	"fmt"
	"math"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// This file defines the basic path structure, in local
// (untransformed) float coordinates.

// Point is a point in local coordinates.
type Point struct{ X, Y float64 }

// Operation groups the different path commands
type Operation interface {
	// add itself to `a`, after applying the transform `m`
	addTo(a rasterx.Adder, m rasterx.Matrix2D)
	points() []Point
}

type MoveTo Point

type LineTo Point

type QuadTo [2]Point

type CubicTo [3]Point

type Close struct{}

func toFixed(m rasterx.Matrix2D, p Point) fixed.Point26_6 {
	x, y := m.Transform(p.X, p.Y)
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))}
}

func (op MoveTo) addTo(a rasterx.Adder, m rasterx.Matrix2D) {
	a.Stop(false) // implicit close if currently in path.
	a.Start(toFixed(m, Point(op)))
}

func (op LineTo) addTo(a rasterx.Adder, m rasterx.Matrix2D) {
	a.Line(toFixed(m, Point(op)))
}

func (op QuadTo) addTo(a rasterx.Adder, m rasterx.Matrix2D) {
	a.QuadBezier(toFixed(m, op[0]), toFixed(m, op[1]))
}

func (op CubicTo) addTo(a rasterx.Adder, m rasterx.Matrix2D) {
	a.CubeBezier(toFixed(m, op[0]), toFixed(m, op[1]), toFixed(m, op[2]))
}

func (op Close) addTo(a rasterx.Adder, _ rasterx.Matrix2D) {
	a.Stop(true)
}

func (op MoveTo) points() []Point  { return []Point{Point(op)} }
func (op LineTo) points() []Point  { return []Point{Point(op)} }
func (op QuadTo) points() []Point  { return op[:] }
func (op CubicTo) points() []Point { return op[:] }
func (Close) points() []Point      { return nil }

// Path describes a sequence of basic operations.
type Path []Operation

// ToSVGPath returns a string representation of the path
func (p Path) ToSVGPath() string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = fmt.Sprintf("M%4.3f,%4.3f", op.X, op.Y)
		case LineTo:
			chunks[i] = fmt.Sprintf("L%4.3f,%4.3f", op.X, op.Y)
		case QuadTo:
			chunks[i] = fmt.Sprintf("Q%4.3f,%4.3f,%4.3f,%4.3f", op[0].X, op[0].Y, op[1].X, op[1].Y)
		case CubicTo:
			chunks[i] = fmt.Sprintf("C%4.3f,%4.3f,%4.3f,%4.3f,%4.3f,%4.3f", op[0].X, op[0].Y,
				op[1].X, op[1].Y, op[2].X, op[2].Y)
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath()
}

// Clear zeros the path slice
func (p *Path) Clear() {
	*p = (*p)[:0]
}

// MoveTo starts a new sub-path at the given point.
func (p *Path) MoveTo(x, y float64) {
	*p = append(*p, MoveTo{x, y})
}

// LineTo adds a linear segment to the current sub-path.
func (p *Path) LineTo(x, y float64) {
	*p = append(*p, LineTo{x, y})
}

// QuadTo adds a quadratic segment to the current sub-path.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	*p = append(*p, QuadTo{{cx, cy}, {x, y}})
}

// CubicTo adds a cubic segment to the current sub-path.
func (p *Path) CubicTo(cx0, cy0, cx1, cy1, x, y float64) {
	*p = append(*p, CubicTo{{cx0, cy0}, {cx1, cy1}, {x, y}})
}

// Close joins the ends of the current sub-path
func (p *Path) Close() {
	*p = append(*p, Close{})
}

// Rect appends the closed box (x, y, x+w, y+h).
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Polyline appends the open polyline through the alternating
// x, y `coords`. A trailing odd coordinate is ignored.
func (p *Path) Polyline(coords []float64) {
	for i := 0; i+1 < len(coords); i += 2 {
		if i == 0 {
			p.MoveTo(coords[0], coords[1])
		} else {
			p.LineTo(coords[i], coords[i+1])
		}
	}
}

func (p Path) addTo(a rasterx.Adder, m rasterx.Matrix2D) {
	for _, op := range p {
		op.addTo(a, m)
	}
	a.Stop(false)
}

// deviceBounds returns the bounding box of the control points of the path,
// after applying `m`. Since bezier curves lie in the convex hull of their
// control points, this box contains the whole path.
func (p Path) deviceBounds(m rasterx.Matrix2D) (min, max Point, ok bool) {
	min = Point{math.Inf(1), math.Inf(1)}
	max = Point{math.Inf(-1), math.Inf(-1)}
	for _, op := range p {
		for _, pt := range op.points() {
			x, y := m.Transform(pt.X, pt.Y)
			min.X, min.Y = math.Min(min.X, x), math.Min(min.Y, y)
			max.X, max.Y = math.Max(max.X, x), math.Max(max.Y, y)
			ok = true
		}
	}
	return min, max, ok
}
