package printsize

import (
	"context"
	"errors"
	"image"
	"time"

	"go.uber.org/zap"
)

// DefaultSettleDelay is the time given to a surface without commit
// signal to lay the label out before printing.
const DefaultSettleDelay = 200 * time.Millisecond

// ErrNoRule is returned when printing before any page rule is applied.
var ErrNoRule = errors.New("no page rule applied")

// Sizer sizes the pages of one surface and triggers printing.
type Sizer struct {
	surface Surface
	handle  *Handle
	settle  time.Duration
	log     *zap.Logger
}

type Option func(*Sizer)

// WithSettleDelay sets the wait used for surfaces without commit signal.
func WithSettleDelay(d time.Duration) Option { return func(s *Sizer) { s.settle = d } }

func WithLogger(log *zap.Logger) Option { return func(s *Sizer) { s.log = log } }

func NewSizer(surface Surface, opts ...Option) *Sizer {
	s := &Sizer{surface: surface, settle: DefaultSettleDelay, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyPageRule sets the page size of the surface to width x height
// inches, with zero margin. The first call acquires the page rule
// handle, later ones overwrite it.
func (s *Sizer) ApplyPageRule(width, height float64) (*Handle, error) {
	r := NewRule(width, height)
	if s.handle == nil {
		s.handle = Acquire(s.surface, r)
	} else if err := s.handle.Set(r); err != nil {
		return nil, err
	}
	s.log.Debug("page rule applied", zap.Float64("width", width), zap.Float64("height", height))
	return s.handle, nil
}

// Print places `img` on the surface, waits for the layout to be
// committed and sends the document to `p`.
func (s *Sizer) Print(ctx context.Context, img image.Image, p Printer) error {
	if s.handle == nil || s.handle.Retired() {
		return ErrNoRule
	}
	if err := s.surface.Place(img); err != nil {
		return err
	}

	var (
		committed <-chan struct{}
		settled   <-chan time.Time
	)
	if c, ok := s.surface.(Committer); ok {
		committed = c.Committed()
	} else {
		timer := time.NewTimer(s.settle)
		defer timer.Stop()
		settled = timer.C
	}
	select {
	case <-committed:
	case <-settled:
	case <-ctx.Done():
		return ctx.Err()
	}

	return p.Print(ctx, s.surface)
}

// Close retires the page rule handle.
func (s *Sizer) Close() {
	if s.handle != nil {
		s.handle.Retire()
	}
}
