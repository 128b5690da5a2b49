package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Fill fills `path` with `col`, using the non zero winding rule.
func (c *Canvas) Fill(path Path, col color.Color) {
	if !c.visible(col) || len(path) == 0 {
		return
	}
	c.filler.Clear()
	c.filler.SetWinding(true)
	path.addTo(c.filler, c.state.m)
	c.filler.SetColor(rasterx.ApplyOpacity(col, c.state.alpha))
	c.filler.Draw()
}

func setStroke(d *rasterx.Dasher, width float64) {
	d.SetStroke(
		fixed.Int26_6(width*64), fixed.Int26_6(miterLimit*64),
		rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap,
		rasterx.Miter, nil, 0,
	)
}

// Stroke strokes `path` with `col`. `width` is in local units,
// and is scaled by the current transform.
func (c *Canvas) Stroke(path Path, col color.Color, width float64) {
	if !c.visible(col) || len(path) == 0 || width <= 0 {
		return
	}
	c.dasher.Clear()
	setStroke(c.dasher, width*c.lineScale())
	path.addTo(c.dasher, c.state.m)
	c.dasher.SetColor(rasterx.ApplyOpacity(col, c.state.alpha))
	c.dasher.Draw()
}

// StrokeAliased is like Stroke, but pixels are either fully covered
// or left untouched, so that edges stay sharp.
func (c *Canvas) StrokeAliased(path Path, col color.Color, width float64) {
	if !c.visible(col) || len(path) == 0 || width <= 0 {
		return
	}
	width *= c.lineScale()
	area := c.strokeArea(path, width)
	if area.Empty() {
		return
	}

	bounds := c.img.Bounds()
	if c.mask == nil {
		c.mask = image.NewAlpha(bounds)
		scanner := rasterx.NewScannerGV(bounds.Dx(), bounds.Dy(), c.mask, bounds)
		c.maskDasher = rasterx.NewDasher(bounds.Dx(), bounds.Dy(), scanner)
	}
	draw.Draw(c.mask, area, image.Transparent, image.Point{}, draw.Src)

	c.maskDasher.Clear()
	setStroke(c.maskDasher, width)
	path.addTo(c.maskDasher, c.state.m)
	c.maskDasher.SetColor(color.Opaque)
	c.maskDasher.Draw()

	thresholdMask(c.mask, area)
	src := image.NewUniform(rasterx.ApplyOpacity(col, c.state.alpha))
	draw.DrawMask(c.img, area, src, image.Point{}, c.mask, area.Min, draw.Over)
}

// strokeArea returns the device pixels a stroke of `path` may cover.
func (c *Canvas) strokeArea(path Path, width float64) image.Rectangle {
	min, max, ok := path.deviceBounds(c.state.m)
	if !ok {
		return image.Rectangle{}
	}
	// a miter join extends at most miterLimit * width/2 from the path
	margin := width*miterLimit/2 + 1
	r := image.Rect(
		int(math.Floor(min.X-margin)), int(math.Floor(min.Y-margin)),
		int(math.Ceil(max.X+margin)), int(math.Ceil(max.Y+margin)),
	)
	return r.Intersect(c.img.Bounds())
}

// thresholdMask snaps the coverage of `area` to 0 or 0xff.
func thresholdMask(mask *image.Alpha, area image.Rectangle) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(area.Min.X, y):mask.PixOffset(area.Max.X, y)]
		for i, a := range row {
			if a >= 0x80 {
				row[i] = 0xff
			} else {
				row[i] = 0
			}
		}
	}
}

// FillRect fills the box (x, y, x+w, y+h).
func (c *Canvas) FillRect(x, y, w, h float64, col color.Color) {
	var p Path
	p.Rect(x, y, w, h)
	c.Fill(p, col)
}

// StrokeRect strokes the outline of the box (x, y, x+w, y+h).
func (c *Canvas) StrokeRect(x, y, w, h float64, col color.Color, width float64) {
	var p Path
	p.Rect(x, y, w, h)
	c.Stroke(p, col, width)
}
