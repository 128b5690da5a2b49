// Package element draws the elements of a label onto a canvas.
// Every kind goes through the same transform pipeline, then
// is drawn at the origin of its local frame.
package element

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/benoitkugler/oklabel/canvas"
	"github.com/benoitkugler/oklabel/fonts"
	"github.com/benoitkugler/oklabel/imgload"
	"github.com/benoitkugler/oklabel/markup"
)

// ErrResourceUnavailable wraps the failures to obtain the source
// of an image or barcode. Such elements are skipped.
var ErrResourceUnavailable = errors.New("resource unavailable")

// Drawer draws elements. It is safe for concurrent use,
// as long as each goroutine uses its own canvas.
type Drawer struct {
	fonts  *fonts.Book
	images imgload.Loader
}

// NewDrawer returns a drawer using `book` for text and `images`
// for image and barcode sources.
func NewDrawer(book *fonts.Book, images imgload.Loader) *Drawer {
	return &Drawer{fonts: book, images: images}
}

type drawFunc func(d *Drawer, ctx context.Context, c *canvas.Canvas, el markup.Element) error

var drawFuncs = map[markup.Kind]drawFunc{
	markup.KindText:    drawText,
	markup.KindImage:   drawImage,
	markup.KindBarcode: drawImage,
	markup.KindLine:    drawLine,
	markup.KindRect:    drawRect,
}

// Draw paints `el` on `c`. The transform and alpha of `c`
// are restored before returning, even on error.
// Image and barcode elements block until their source is loaded.
func (d *Drawer) Draw(ctx context.Context, c *canvas.Canvas, el markup.Element) error {
	fn, ok := drawFuncs[el.Kind()]
	if !ok {
		return fmt.Errorf("unsupported element kind %q", el.Kind())
	}
	f := el.Placement()

	// the order matters: alpha, translate, rotate, scale
	c.Save()
	defer c.Restore()
	c.SetAlpha(f.Opacity)
	c.Translate(f.X, f.Y)
	c.Rotate(f.Rotation * math.Pi / 180)
	c.Scale(f.ScaleX, f.ScaleY)

	return fn(d, ctx, c, el)
}

func drawText(d *Drawer, _ context.Context, c *canvas.Canvas, el markup.Element) error {
	text := el.(*markup.Text)
	if text.Text == "" {
		return nil
	}
	face := d.fonts.Face(text.Font.Family, fonts.ParseStyle(text.Font.Style))
	var path canvas.Path
	if _, err := fonts.AppendOutline(&path, face, norm.NFC.String(text.Text), text.Font.Size); err != nil {
		return fmt.Errorf("text %q: %w", text.Text, err)
	}
	c.Fill(path, text.Font.Color)
	return nil
}

func drawImage(d *Drawer, ctx context.Context, c *canvas.Canvas, el markup.Element) error {
	src, _ := markup.Source(el)
	res, err := d.images.Load(ctx, src.URL)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, src.URL, err)
	}
	w, h := src.Width, src.Height
	if w == 0 {
		w = res.Width
	}
	if h == 0 {
		h = res.Height
	}
	c.DrawImage(res.Image, w, h)
	return nil
}

func drawLine(_ *Drawer, _ context.Context, c *canvas.Canvas, el markup.Element) error {
	line := el.(*markup.Line)
	if len(line.Points) < 4 { // less than two points
		return nil
	}
	var path canvas.Path
	path.Polyline(line.Points)
	c.StrokeAliased(path, line.Stroke, line.StrokeWidth)
	return nil
}

// the fill and stroke passes are independent
func drawRect(_ *Drawer, _ context.Context, c *canvas.Canvas, el markup.Element) error {
	rect := el.(*markup.Rect)
	if rect.Fill != nil {
		c.FillRect(0, 0, rect.Width, rect.Height, rect.Fill)
	}
	if rect.Stroke != nil {
		c.StrokeRect(0, 0, rect.Width, rect.Height, rect.Stroke, rect.StrokeWidth)
	}
	return nil
}
