// Package bridge hands one markup from a host to an isolated render
// context and carries back the completion signal.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benoitkugler/oklabel/markup"
)

var (
	// ErrNoEntryPoint is returned when the render context exposes no entry point.
	ErrNoEntryPoint = errors.New("render entry point not found in render context")
	// ErrAlreadySent is returned by a second call to Send.
	ErrAlreadySent = errors.New("render context already received its markup")
	ErrClosed      = errors.New("render context closed")
)

// EntryPoint renders and prints one markup.
type EntryPoint func(ctx context.Context, m *markup.Markup) error

type delivery struct {
	ctx    context.Context
	markup *markup.Markup
	reply  chan error
}

// Context is a render context accepting exactly one markup.
type Context struct {
	entry EntryPoint
	ready chan struct{}
	inbox chan delivery
	done  chan struct{}

	sent      atomic.Bool
	closeOnce sync.Once
}

// Open starts a render context running `entry`.
// A nil entry is reported by Send as ErrNoEntryPoint.
func Open(entry EntryPoint) *Context {
	c := &Context{
		entry: entry,
		ready: make(chan struct{}),
		inbox: make(chan delivery),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Context) run() {
	close(c.ready)
	if c.entry == nil {
		return
	}
	select {
	case d := <-c.inbox:
		select {
		case <-c.done:
			d.reply <- ErrClosed
		default:
			d.reply <- c.call(d)
		}
	case <-c.done:
	}
}

func (c *Context) call(d delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render context panicked: %v", r)
		}
	}()
	return c.entry(d.ctx, d.markup)
}

// Ready is closed once the context accepts its markup.
func (c *Context) Ready() <-chan struct{} { return c.ready }

// Send waits for the context to be ready, delivers `m` and returns
// the outcome of the render.
func (c *Context) Send(ctx context.Context, m *markup.Markup) error {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.entry == nil {
		return ErrNoEntryPoint
	}
	if !c.sent.CompareAndSwap(false, true) {
		return ErrAlreadySent
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	d := delivery{ctx: ctx, markup: m, reply: make(chan error, 1)}
	select {
	case c.inbox <- d:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-d.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases a context which did not receive its markup.
func (c *Context) Close() { c.closeOnce.Do(func() { close(c.done) }) }
