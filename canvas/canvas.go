// Package canvas implements a 2D drawing surface over rasterx,
// with a transform stack, a global alpha and save/restore semantics.
// All coordinates given to the drawing methods are local: they are
// mapped to device pixels through the current transform.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/rasterx"
)

// canvas default for the miter limit
const miterLimit = 10

// state is the part of the canvas saved and restored by Save/Restore.
type state struct {
	m     rasterx.Matrix2D
	alpha float64
}

// Canvas paints onto an RGBA image.
type Canvas struct {
	img *image.RGBA

	filler *rasterx.Filler // we use separated instance
	dasher *rasterx.Dasher // to avoid shared state

	// aliased strokes are rasterized on a coverage mask first
	mask       *image.Alpha
	maskDasher *rasterx.Dasher

	state state
	stack []state
}

// New returns a transparent canvas of `width` x `height` pixels.
// `scale` is the initial uniform transform, mapping local units
// to device pixels.
func New(width, height int, scale float64) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	return &Canvas{
		img:    img,
		filler: rasterx.NewFiller(width, height, scanner),
		dasher: rasterx.NewDasher(width, height, scanner),
		state:  state{m: rasterx.Identity.Scale(scale, scale), alpha: 1},
	}
}

// Image returns the underlying image, which is updated in place.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Save pushes the current transform and alpha.
func (c *Canvas) Save() { c.stack = append(c.stack, c.state) }

// Restore pops the state saved by the matching Save.
// It is a no-op if the stack is empty.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Depth returns the number of saved states.
func (c *Canvas) Depth() int { return len(c.stack) }

// Matrix returns the current local to device transform.
func (c *Canvas) Matrix() rasterx.Matrix2D { return c.state.m }

// Alpha returns the current global alpha.
func (c *Canvas) Alpha() float64 { return c.state.alpha }

// SetAlpha sets the global alpha, clamped to [0,1].
func (c *Canvas) SetAlpha(alpha float64) {
	c.state.alpha = math.Max(0, math.Min(1, alpha))
}

func (c *Canvas) Translate(x, y float64) { c.state.m = c.state.m.Translate(x, y) }

// Rotate rotates the local frame by `theta` radians, clockwise
// on screen since the y axis points down.
func (c *Canvas) Rotate(theta float64) { c.state.m = c.state.m.Rotate(theta) }

func (c *Canvas) Scale(sx, sy float64) { c.state.m = c.state.m.Scale(sx, sy) }

// lineScale returns the factor applied to stroke widths:
// the mean scale of the current transform.
func (c *Canvas) lineScale() float64 {
	m := c.state.m
	return math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
}

// Clear paints the whole image with `col`, ignoring the transform and alpha.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// visible returns false if nothing would be painted with `col`.
func (c *Canvas) visible(col color.Color) bool {
	if col == nil || c.state.alpha == 0 {
		return false
	}
	_, _, _, a := col.RGBA()
	return a != 0
}
