package canvas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// DrawImage draws `src` into the local box (0, 0, w, h),
// with high quality resampling.
func (c *Canvas) DrawImage(src image.Image, w, h float64) {
	sr := src.Bounds()
	if sr.Empty() || w == 0 || h == 0 || c.state.alpha == 0 {
		return
	}
	m := c.state.m.
		Scale(w/float64(sr.Dx()), h/float64(sr.Dy())).
		Translate(-float64(sr.Min.X), -float64(sr.Min.Y))
	s2d := f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}

	var opts *draw.Options
	if c.state.alpha < 1 {
		opts = &draw.Options{DstMask: image.NewUniform(color.Alpha16{A: uint16(c.state.alpha * 0xffff)})}
	}
	draw.CatmullRom.Transform(c.img, s2d, src, sr, draw.Over, opts)
}
