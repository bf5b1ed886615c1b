// File: api/pipeline.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pipeline contract: an ordered chain of named handlers between the
// application and the transport sink. Upstream events climb toward the
// application, downstream events descend toward the sink.

package api

// Handler is a pipeline element. A concrete handler implements
// UpstreamHandler, DownstreamHandler or both; pipelines reject values
// implementing neither.
type Handler interface{}

// UpstreamHandler reacts to events travelling from the transport toward
// the application: received messages, state changes, raised errors.
type UpstreamHandler interface {
	// HandleUpstream processes ev and decides whether to forward it via
	// ctx.SendUpstream. A returned error is turned into an
	// exception-caught event by the pipeline.
	HandleUpstream(ctx HandlerContext, ev Event) error
}

// DownstreamHandler intercepts requests travelling from the application
// toward the transport: writes, binds, connects, closes.
type DownstreamHandler interface {
	// HandleDownstream processes ev and decides whether to forward it via
	// ctx.SendDownstream. A returned error fails the event's future and is
	// fired upstream as an exception-caught event.
	HandleDownstream(ctx HandlerContext, ev Event) error
}

// HandlerContext ties one handler to its position in a pipeline and lets
// the handler pass events on to its neighbours.
type HandlerContext interface {
	// Name returns the name the handler was registered under.
	Name() string

	// Pipeline returns the owning pipeline.
	Pipeline() Pipeline

	// Channel returns the channel the pipeline is attached to.
	Channel() Channel

	// Handler returns the handler bound to this context.
	Handler() Handler

	// CanHandleUpstream reports whether the bound handler listens upstream.
	CanHandleUpstream() bool

	// CanHandleDownstream reports whether the bound handler listens
	// downstream.
	CanHandleDownstream() bool

	// SendUpstream forwards ev to the next upstream handler closer to the
	// application.
	SendUpstream(ev Event)

	// SendDownstream forwards ev to the next downstream handler closer to
	// the sink.
	SendDownstream(ev Event)

	// Attachment returns the opaque value stashed on this context, or nil.
	Attachment() any

	// SetAttachment stashes an opaque value on this context.
	SetAttachment(v any)
}

// Sink is the terminal downstream consumer of a pipeline, implemented by
// transports. EventSunk must either carry out the requested I/O and resolve
// the event's future, or return an error; the pipeline fails the future and
// fires an exception-caught event for returned errors. A sink never drops
// an event with its future left pending.
type Sink interface {
	EventSunk(p Pipeline, ev Event) error
}

// PipelineFactory builds a fresh pipeline for every channel that needs one,
// most prominently for each accepted connection of a listening channel.
type PipelineFactory func() (Pipeline, error)

// Pipeline is an ordered, named chain of handlers attached to exactly one
// channel for the channel's whole life.
type Pipeline interface {
	// Attach binds the pipeline to its channel and sink. A pipeline can be
	// attached only once; a second call returns ErrPipelineAttached.
	Attach(ch Channel, sink Sink) error

	// IsAttached reports whether Attach has been called.
	IsAttached() bool

	// Channel returns the attached channel, or nil before Attach.
	Channel() Channel

	// Sink returns the attached sink, or a discarding placeholder before
	// Attach.
	Sink() Sink

	// AddFirst inserts a handler at the upstream-most position.
	AddFirst(name string, h Handler) error

	// AddLast appends a handler at the downstream-most position.
	AddLast(name string, h Handler) error

	// AddBefore inserts a handler just before the named one.
	AddBefore(base, name string, h Handler) error

	// AddAfter inserts a handler just after the named one.
	AddAfter(base, name string, h Handler) error

	// Remove detaches the named handler and returns it.
	Remove(name string) (Handler, error)

	// Replace swaps the named handler for a new one under a new name.
	Replace(base, name string, h Handler) (Handler, error)

	// First returns the upstream-most handler, or nil.
	First() Handler

	// Last returns the downstream-most handler, or nil.
	Last() Handler

	// Get returns the named handler, or nil.
	Get(name string) Handler

	// Context returns the context of the named handler, or nil.
	Context(name string) HandlerContext

	// Names returns the handler names in first-to-last order.
	Names() []string

	// SendUpstream routes ev from the sink end toward the application,
	// starting at the first upstream-capable handler.
	SendUpstream(ev Event)

	// SendDownstream routes ev from the application end toward the sink,
	// starting at the last downstream-capable handler. Events no handler
	// intercepts reach the sink.
	SendDownstream(ev Event)
}
