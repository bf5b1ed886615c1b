// File: fake/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"github.com/momentics/chanio/api"
)

// Sink records every event a pipeline sends downstream and, by default,
// succeeds its future. Tests inspect the recorded traffic with Events
// and Messages, or steer resolution with FailWith and OnEvent.
type Sink struct {
	mu     sync.Mutex
	events []api.Event
	fail   error
	fn     func(ev api.Event) error
}

var _ api.Sink = (*Sink)(nil)

// NewSink returns an empty recording sink.
func NewSink() *Sink { return &Sink{} }

// FailWith makes every subsequent event fail its future with err. The
// pipeline turns the returned error into an exception-caught event, the
// same way a transport would report a refused operation. A nil err
// restores the default succeed behaviour.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// OnEvent installs fn as the resolution step run after recording. When
// set, fn fully replaces the built-in succeed/fail logic. A nil fn
// removes the override.
func (s *Sink) OnEvent(fn func(ev api.Event) error) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

// EventSunk implements api.Sink.
func (s *Sink) EventSunk(_ api.Pipeline, ev api.Event) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	fn, fail := s.fn, s.fail
	s.mu.Unlock()

	if fn != nil {
		return fn(ev)
	}
	if fail != nil {
		return fail
	}
	resolve(ev)
	return nil
}

// Events returns a copy of all recorded events in arrival order.
func (s *Sink) Events() []api.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Messages returns the payloads of the recorded message events, in
// arrival order.
func (s *Sink) Messages() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, ev := range s.events {
		if me, ok := ev.(*api.MessageEvent); ok {
			out = append(out, me.Message)
		}
	}
	return out
}

// States returns the state changes of the recorded state events, in
// arrival order.
func (s *Sink) States() []api.ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.ChannelState
	for _, ev := range s.events {
		if se, ok := ev.(*api.StateEvent); ok {
			out = append(out, se.State)
		}
	}
	return out
}

// Reset drops all recorded events and clears any FailWith or OnEvent
// override.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.fail = nil
	s.fn = nil
	s.mu.Unlock()
}

// Discard is a sink that succeeds every future and keeps nothing. Use
// it when a test needs an attached pipeline but never looks at the
// downstream traffic.
type Discard struct{}

var _ api.Sink = Discard{}

// EventSunk implements api.Sink.
func (Discard) EventSunk(_ api.Pipeline, ev api.Event) error {
	resolve(ev)
	return nil
}

func resolve(ev api.Event) {
	switch e := ev.(type) {
	case *api.StateEvent:
		if e.Promise != nil {
			e.Promise.Succeed()
		}
	case *api.MessageEvent:
		if e.Promise != nil {
			e.Promise.Succeed()
		}
	}
}
