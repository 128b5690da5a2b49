package markup

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
)

// raw JSON shapes, before defaults are applied

type rawMarkup struct {
	Stage    Stage             `json:"stage"`
	Elements []json.RawMessage `json:"elements"`
}

type rawFont struct {
	Size   float64 `json:"size"`
	Family string  `json:"family"`
	Style  string  `json:"style"`
	Color  string  `json:"color"`
}

type rawElement struct {
	Type     Kind     `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Rotation float64  `json:"rotation"`
	ScaleX   float64  `json:"scaleX"`
	ScaleY   float64  `json:"scaleY"`
	Opacity  *float64 `json:"opacity"`

	Text string   `json:"text"`
	Font *rawFont `json:"font"`

	URL    string  `json:"url"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Points      []float64 `json:"points"`
	Stroke      string    `json:"stroke"`
	Fill        string    `json:"fill"`
	StrokeWidth float64   `json:"strokeWidth"`
}

// elementFunc builds an element from its raw description.
// Problems are reported with `warn` and never abort decoding.
type elementFunc func(raw *rawElement, frame Frame, warn func(format string, args ...interface{})) Element

var elementFuncs = map[Kind]elementFunc{
	KindText:    textF,
	KindImage:   imageF,
	KindBarcode: barcodeF,
	KindLine:    lineF,
	KindRect:    rectF,
}

// Parse reads one markup document.
func Parse(r io.Reader) (*Markup, error) {
	var m Markup
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid markup: %w", err)
	}
	return &m, nil
}

// UnmarshalJSON implements json.Unmarshaler, resolving
// element kinds and defaults.
func (m *Markup) UnmarshalJSON(data []byte) error {
	var raw rawMarkup
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Markup{Stage: raw.Stage, Elements: make([]Element, 0, len(raw.Elements))}
	for i, data := range raw.Elements {
		warn := func(format string, args ...interface{}) {
			m.Issues = append(m.Issues, Issue{Index: i, Message: fmt.Sprintf(format, args...)})
		}
		var el rawElement
		if err := json.Unmarshal(data, &el); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		fn, ok := elementFuncs[el.Type]
		if !ok {
			warn("unsupported element type %q", el.Type)
			continue
		}
		m.Elements = append(m.Elements, fn(&el, el.frame(), warn))
	}
	return nil
}

func (raw *rawElement) frame() Frame {
	f := DefaultFrame
	f.X, f.Y, f.Rotation = raw.X, raw.Y, raw.Rotation
	if raw.ScaleX != 0 {
		f.ScaleX = raw.ScaleX
	}
	if raw.ScaleY != 0 {
		f.ScaleY = raw.ScaleY
	}
	// out of range values are ignored, like a canvas global alpha
	if o := raw.Opacity; o != nil && *o >= 0 && *o <= 1 {
		f.Opacity = *o
	}
	return f
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// colorOr parses `s`, returning `def` for an empty or invalid value.
func colorOr(s string, def color.Color, attr string, warn func(string, ...interface{})) color.Color {
	if s == "" {
		return def
	}
	c, err := ParseColor(s)
	if err != nil {
		warn("%s: %s", attr, err)
		return def
	}
	return c
}

func textF(raw *rawElement, frame Frame, warn func(string, ...interface{})) Element {
	font := Font{Size: DefaultFontSize, Family: DefaultFontFamily, Style: DefaultFontStyle, Color: Black}
	if rf := raw.Font; rf != nil {
		font.Size = orDefault(rf.Size, DefaultFontSize)
		if rf.Family != "" {
			font.Family = rf.Family
		}
		if rf.Style != "" {
			font.Style = rf.Style
		}
		font.Color = colorOr(rf.Color, Black, "font.color", warn)
	}
	return &Text{Frame: frame, Text: raw.Text, Font: font}
}

func newImage(raw *rawElement, frame Frame, warn func(string, ...interface{})) Image {
	if raw.URL == "" {
		warn("missing url")
	}
	return Image{Frame: frame, URL: raw.URL, Width: raw.Width, Height: raw.Height}
}

func imageF(raw *rawElement, frame Frame, warn func(string, ...interface{})) Element {
	img := newImage(raw, frame, warn)
	return &img
}

func barcodeF(raw *rawElement, frame Frame, warn func(string, ...interface{})) Element {
	return &Barcode{Image: newImage(raw, frame, warn)}
}

func lineF(raw *rawElement, frame Frame, warn func(string, ...interface{})) Element {
	if len(raw.Points) < 4 {
		warn("line with %d coordinates, at least 4 are required", len(raw.Points))
	}
	return &Line{
		Frame:       frame,
		Points:      raw.Points,
		Stroke:      colorOr(raw.Stroke, Black, "stroke", warn),
		StrokeWidth: orDefault(raw.StrokeWidth, DefaultLineStrokeWidth),
	}
}

func rectF(raw *rawElement, frame Frame, warn func(string, ...interface{})) Element {
	return &Rect{
		Frame:       frame,
		Width:       raw.Width,
		Height:      raw.Height,
		Fill:        colorOr(raw.Fill, nil, "fill", warn),
		Stroke:      colorOr(raw.Stroke, nil, "stroke", warn),
		StrokeWidth: orDefault(raw.StrokeWidth, DefaultRectStrokeWidth),
	}
}
