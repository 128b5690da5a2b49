// Package markup defines the label document: a physical stage
// and an ordered list of typed elements, painted back to front.
package markup

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/benoitkugler/oklabel/units"
)

// Kind identifies the type of an element.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindBarcode Kind = "barcode"
	KindLine    Kind = "line"
	KindRect    Kind = "rect"
)

// Default values applied when an attribute is missing (or zero,
// for the attributes where zero is meaningless).
const (
	DefaultFontSize        = 14.
	DefaultFontFamily      = "sans-serif"
	DefaultFontStyle       = "normal"
	DefaultLineStrokeWidth = 2.
	DefaultRectStrokeWidth = 1.
)

// Black is the default text and line color.
var Black color.Color = color.NRGBA{A: 0xff}

// ErrInvalidStage is returned for stages without a positive area.
var ErrInvalidStage = errors.New("stage width and height must be positive")

// Markup is one label document. It is owned by a single
// render pass.
type Markup struct {
	Stage    Stage
	Elements []Element

	// Issues collects the non fatal problems found while decoding,
	// such as unknown element kinds or invalid colors.
	Issues []Issue
}

// Issue is a non fatal decoding problem, attached to an element.
type Issue struct {
	Index   int // index of the element in the source document
	Message string
}

func (is Issue) String() string { return fmt.Sprintf("element %d: %s", is.Index, is.Message) }

// Stage defines the physical page.
type Stage struct {
	Unit   units.Unit `json:"unit"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// Validate checks that the stage has a positive area.
func (s Stage) Validate() error {
	if !(s.Width > 0 && s.Height > 0) {
		return fmt.Errorf("%w (got %gx%g)", ErrInvalidStage, s.Width, s.Height)
	}
	return nil
}

// Inches returns the physical size of the stage, in inches.
func (s Stage) Inches() (width, height float64) {
	return units.ToInches(s.Unit, s.Width), units.ToInches(s.Unit, s.Height)
}

// Element is one drawable primitive, one of
// *Text, *Image, *Barcode, *Line or *Rect
type Element interface {
	Kind() Kind
	// Placement returns the attributes shared by all kinds,
	// with defaults resolved.
	Placement() Frame
}

// Frame stores the position, transform and opacity of an element.
// Rotation is in degrees.
type Frame struct {
	X, Y           float64
	Rotation       float64
	ScaleX, ScaleY float64
	Opacity        float64 // in [0,1]
}

// DefaultFrame is the frame of an element without any placement attribute.
var DefaultFrame = Frame{ScaleX: 1, ScaleY: 1, Opacity: 1}

func (f Frame) Placement() Frame { return f }

// Font describes how a text is drawn.
type Font struct {
	Size   float64
	Family string // CSS like, possibly a comma separated list
	Style  string // CSS like, for instance "bold italic"
	Color  color.Color
}

type Text struct {
	Frame
	Text string
	Font Font
}

// Image is a raster drawn from an URL.
// A zero Width or Height means the natural size of the image.
type Image struct {
	Frame
	URL           string
	Width, Height float64
}

// Barcode is drawn exactly as an image: the barcode
// is rendered upstream.
type Barcode struct {
	Image
}

// Line is a polyline given by alternating x, y coordinates.
type Line struct {
	Frame
	Points      []float64
	Stroke      color.Color
	StrokeWidth float64
}

// Rect is an axis aligned box. A nil Fill (resp. Stroke)
// disables the fill (resp. stroke) pass.
type Rect struct {
	Frame
	Width, Height float64
	Fill, Stroke  color.Color
	StrokeWidth   float64
}

func (*Text) Kind() Kind    { return KindText }
func (*Image) Kind() Kind   { return KindImage }
func (*Barcode) Kind() Kind { return KindBarcode }
func (*Line) Kind() Kind    { return KindLine }
func (*Rect) Kind() Kind    { return KindRect }

// Source returns the image description of an image or barcode element.
func Source(el Element) (*Image, bool) {
	switch el := el.(type) {
	case *Image:
		return el, true
	case *Barcode:
		return &el.Image, true
	}
	return nil, false
}
