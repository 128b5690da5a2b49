// Package render turns a label markup into a raster image
// whose size matches the physical size of the label stage.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/benoitkugler/oklabel/canvas"
	"github.com/benoitkugler/oklabel/element"
	"github.com/benoitkugler/oklabel/fonts"
	"github.com/benoitkugler/oklabel/imgload"
	"github.com/benoitkugler/oklabel/markup"
	"github.com/benoitkugler/oklabel/units"
)

// Supersample is the default oversampling applied to the raster,
// on top of the reference resolution.
const Supersample = 4

// DefaultMaxPixels bounds the raster size, that is a 40x40 inches label.
const DefaultMaxPixels = 40 * 40 * units.DPI * units.DPI * Supersample * Supersample

// ErrNoMarkup is returned when rendering a nil markup.
var ErrNoMarkup = errors.New("no markup to render")

// ErrTooLarge is returned when the raster would exceed the pixel ceiling.
var ErrTooLarge = errors.New("label raster too large")

// ElementDrawer paints one element on a canvas.
type ElementDrawer interface {
	Draw(ctx context.Context, c *canvas.Canvas, el markup.Element) error
}

// Result is a finished label.
type Result struct {
	Image *image.RGBA
	// Physical size, in inches
	Width, Height float64
}

// Renderer renders label markups. It keeps no state between
// passes, so that independent markups may be rendered concurrently.
type Renderer struct {
	drawer      ElementDrawer
	log         *zap.Logger
	supersample float64
	maxPixels   int
}

type Option func(*Renderer)

// WithDrawer replaces the default element drawer.
func WithDrawer(d ElementDrawer) Option { return func(r *Renderer) { r.drawer = d } }

func WithLogger(log *zap.Logger) Option { return func(r *Renderer) { r.log = log } }

func WithSupersample(factor float64) Option { return func(r *Renderer) { r.supersample = factor } }

func WithMaxPixels(n int) Option { return func(r *Renderer) { r.maxPixels = n } }

// New returns a renderer. Without WithDrawer, elements are drawn
// with the Go fonts and a default image fetcher.
func New(opts ...Option) *Renderer {
	r := &Renderer{log: zap.NewNop(), supersample: Supersample, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(r)
	}
	if r.drawer == nil {
		images := imgload.New(imgload.WithLogger(r.log), imgload.WithSVGScale(r.supersample))
		r.drawer = element.NewDrawer(fonts.NewBook(), images)
	}
	return r
}

// Render draws `m` on a fresh white raster of
// floor(inches * DPI * supersample) pixels per side.
// Elements whose source can't be loaded are skipped.
func (r *Renderer) Render(ctx context.Context, m *markup.Markup) (*Result, error) {
	if m == nil {
		return nil, ErrNoMarkup
	}
	if err := m.Stage.Validate(); err != nil {
		return nil, err
	}
	width, height := m.Stage.Inches()
	fw := math.Floor(width * units.DPI * r.supersample)
	fh := math.Floor(height * units.DPI * r.supersample)
	if fw < 1 || fh < 1 {
		return nil, fmt.Errorf("%w: %gx%g inches is less than one pixel", markup.ErrInvalidStage, width, height)
	}
	// checked in float, before any int conversion can overflow
	if fw*fh > float64(r.maxPixels) {
		return nil, fmt.Errorf("%w: %gx%g pixels", ErrTooLarge, fw, fh)
	}
	pw, ph := int(fw), int(fh)

	for _, issue := range m.Issues {
		r.log.Warn("markup issue", zap.Stringer("issue", issue))
	}

	c := canvas.New(pw, ph, r.supersample)
	c.Clear(color.White)

	// Elements are painted strictly one after the other: an element
	// waiting for its source blocks the next ones, so that the
	// paint order is always the document order.
	for i, el := range m.Elements {
		err := r.drawer.Draw(ctx, c, el)
		switch {
		case err == nil:
		case errors.Is(err, element.ErrResourceUnavailable):
			r.log.Debug("element skipped", zap.Int("index", i), zap.Error(err))
		default:
			r.log.Warn("element not drawn", zap.Int("index", i), zap.String("kind", string(el.Kind())), zap.Error(err))
		}
	}

	r.log.Debug("label rendered",
		zap.Int("elements", len(m.Elements)),
		zap.String("raster", fmt.Sprintf("%dx%d", pw, ph)),
		zap.String("memory", humanize.Bytes(uint64(pw*ph*4))))
	return &Result{Image: c.Image(), Width: width, Height: height}, nil
}
