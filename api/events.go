// File: api/events.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Closed set of events routed through a Pipeline. State transitions,
// message traffic and raised errors all travel as events; handlers
// type-switch on the concrete variant.

package api

import (
	"fmt"
	"net"
)

// ChannelState names the aspect of a channel a StateEvent talks about.
type ChannelState int32

const (
	// StateOpen carries a bool Value. False requests or reports teardown.
	StateOpen ChannelState = iota
	// StateBound carries a net.Addr Value. Nil requests or reports unbind.
	StateBound
	// StateConnected carries a net.Addr Value. Nil requests or reports
	// disconnect.
	StateConnected
	// StateInterestOps carries an InterestOps Value.
	StateInterestOps
)

// String implements fmt.Stringer.
func (s ChannelState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateBound:
		return "BOUND"
	case StateConnected:
		return "CONNECTED"
	case StateInterestOps:
		return "INTEREST_OPS"
	default:
		return fmt.Sprintf("ChannelState(%d)", int32(s))
	}
}

// Event is a single occurrence flowing through a pipeline. The set of
// variants is closed: StateEvent, MessageEvent, WriteCompletionEvent and
// ExceptionEvent.
type Event interface {
	// Channel returns the channel the event belongs to.
	Channel() Channel

	sealedEvent()
}

// StateEvent reports (upstream) or requests (downstream) a change of one
// channel state aspect. The interpretation of Value depends on State.
type StateEvent struct {
	Ch      Channel
	Promise Promise
	State   ChannelState
	Value   any
}

// Channel returns the channel the event belongs to.
func (e *StateEvent) Channel() Channel { return e.Ch }

// Future returns the promise resolved once the request is carried out.
func (e *StateEvent) Future() Promise { return e.Promise }

func (*StateEvent) sealedEvent() {}

// String implements fmt.Stringer.
func (e *StateEvent) String() string {
	return fmt.Sprintf("%s %s: %v", e.Ch, e.State, e.Value)
}

// MessageEvent carries a received (upstream) or outbound (downstream)
// message. Remote is the sender or explicit recipient on transports with
// addressed I/O and nil on plain connections.
type MessageEvent struct {
	Ch      Channel
	Promise Promise
	Message any
	Remote  net.Addr
}

// Channel returns the channel the event belongs to.
func (e *MessageEvent) Channel() Channel { return e.Ch }

// Future returns the promise resolved once the message is written out.
// Upstream message events carry an already succeeded promise.
func (e *MessageEvent) Future() Promise { return e.Promise }

func (*MessageEvent) sealedEvent() {}

// String implements fmt.Stringer.
func (e *MessageEvent) String() string {
	if e.Remote != nil {
		return fmt.Sprintf("%s WRITE to %s: %v", e.Ch, e.Remote, e.Message)
	}
	return fmt.Sprintf("%s MESSAGE: %v", e.Ch, e.Message)
}

// WriteCompletionEvent reports the amount of data flushed by a finished
// write. It travels upstream only and carries no promise.
type WriteCompletionEvent struct {
	Ch      Channel
	Written int64
}

// Channel returns the channel the event belongs to.
func (e *WriteCompletionEvent) Channel() Channel { return e.Ch }

func (*WriteCompletionEvent) sealedEvent() {}

// String implements fmt.Stringer.
func (e *WriteCompletionEvent) String() string {
	return fmt.Sprintf("%s WRITTEN: %d", e.Ch, e.Written)
}

// ExceptionEvent reports an error raised by the transport or by a handler.
// It travels upstream only and carries no promise.
type ExceptionEvent struct {
	Ch    Channel
	Cause error
}

// Channel returns the channel the event belongs to.
func (e *ExceptionEvent) Channel() Channel { return e.Ch }

func (*ExceptionEvent) sealedEvent() {}

// String implements fmt.Stringer.
func (e *ExceptionEvent) String() string {
	return fmt.Sprintf("%s EXCEPTION: %v", e.Ch, e.Cause)
}
