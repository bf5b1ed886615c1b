// File: fake/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"go.uber.org/multierr"

	"github.com/momentics/chanio/api"
)

// Collector is an upstream handler that records everything the
// transport reports and forwards it unchanged. It separates message
// payloads and exception causes out of the event stream so tests can
// assert on them directly.
type Collector struct {
	mu       sync.Mutex
	events   []api.Event
	messages []any
	causes   []error
}

var _ api.UpstreamHandler = (*Collector)(nil)

// NewCollector returns an empty collector.
func NewCollector() *Collector { return &Collector{} }

// HandleUpstream implements api.UpstreamHandler.
func (c *Collector) HandleUpstream(ctx api.HandlerContext, ev api.Event) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	switch e := ev.(type) {
	case *api.MessageEvent:
		c.messages = append(c.messages, e.Message)
	case *api.ExceptionEvent:
		c.causes = append(c.causes, e.Cause)
	}
	c.mu.Unlock()
	ctx.SendUpstream(ev)
	return nil
}

// Events returns a copy of all recorded events in arrival order.
func (c *Collector) Events() []api.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Messages returns the recorded message payloads in arrival order.
func (c *Collector) Messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.messages))
	copy(out, c.messages)
	return out
}

// Err returns every exception the pipeline raised, combined into a
// single error, or nil when nothing went wrong.
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return multierr.Combine(c.causes...)
}

// Reset drops all recorded traffic.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.events = nil
	c.messages = nil
	c.causes = nil
	c.mu.Unlock()
}

// Tap is a downstream handler that records requests on their way to the
// sink and forwards them unchanged. Placing a Tap below the handler
// under test shows exactly what that handler emitted.
type Tap struct {
	mu     sync.Mutex
	events []api.Event
}

var _ api.DownstreamHandler = (*Tap)(nil)

// NewTap returns an empty tap.
func NewTap() *Tap { return &Tap{} }

// HandleDownstream implements api.DownstreamHandler.
func (t *Tap) HandleDownstream(ctx api.HandlerContext, ev api.Event) error {
	t.mu.Lock()
	t.events = append(t.events, ev)
	t.mu.Unlock()
	ctx.SendDownstream(ev)
	return nil
}

// Events returns a copy of all recorded events in arrival order.
func (t *Tap) Events() []api.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]api.Event, len(t.events))
	copy(out, t.events)
	return out
}

// Reset drops all recorded traffic.
func (t *Tap) Reset() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
}
