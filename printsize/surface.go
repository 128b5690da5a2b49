package printsize

import (
	"errors"
	"image"
	"io"
)

// ErrRetired is returned when using a retired page rule handle.
var ErrRetired = errors.New("page rule handle retired")

// Document is a printable document.
type Document interface {
	io.WriterTo
	MediaType() string
}

// Surface is a print context: a page on which the label
// raster is laid out.
type Surface interface {
	Document
	// SetRule replaces the page rule of the surface.
	// A surface holds at most one rule.
	SetRule(r Rule)
	// Place lays `img` out to fill the page described by the rule.
	Place(img image.Image) error
}

// Committer is implemented by surfaces able to signal
// that their layout is complete.
type Committer interface {
	// Committed is closed once the last placed image is laid out.
	Committed() <-chan struct{}
}

// Handle owns the page rule of one surface. Each render pass
// overwrites it; it is retired with the surface.
type Handle struct {
	surface Surface
	rule    Rule
	retired bool
}

// Set overwrites the page rule.
func (h *Handle) Set(r Rule) error {
	if h.retired {
		return ErrRetired
	}
	h.rule = r
	h.surface.SetRule(r)
	return nil
}

// Rule returns the current rule.
func (h *Handle) Rule() Rule { return h.rule }

// Retire ends the life of the handle. Later calls to Set fail.
func (h *Handle) Retire() { h.retired = true }

// Retired reports whether Retire has been called.
func (h *Handle) Retired() bool { return h.retired }

// Acquire installs `r` on the surface and returns the handle owning it.
func Acquire(s Surface, r Rule) *Handle {
	h := &Handle{surface: s}
	h.Set(r)
	return h
}
