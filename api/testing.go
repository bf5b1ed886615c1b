// File: api/testing.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Test doubles for sink-facing code. Kept in the api package so every
// consumer of the contracts can stub the transport edge without pulling
// in a real one.

package api

import "sync"

// MockSink is a configurable Sink for tests. Events are recorded in order;
// EventSunkFunc, when set, decides the return value.
type MockSink struct {
	mu     sync.Mutex
	events []Event

	EventSunkFunc func(p Pipeline, ev Event) error
}

var _ Sink = (*MockSink)(nil)

// EventSunk implements Sink.
func (m *MockSink) EventSunk(p Pipeline, ev Event) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	if m.EventSunkFunc != nil {
		return m.EventSunkFunc(p, ev)
	}
	if se, ok := ev.(*StateEvent); ok && se.Promise != nil {
		se.Promise.Succeed()
	}
	if me, ok := ev.(*MessageEvent); ok && me.Promise != nil {
		me.Promise.Succeed()
	}
	return nil
}

// Events returns a snapshot of the recorded events.
func (m *MockSink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Reset drops all recorded events.
func (m *MockSink) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
