// File: pipeline/handlers.go
// Package pipeline
// Author: momentics <momentics@gmail.com>
//
// Handler glue: function adapters, the callback-based SimpleUpstream
// dispatcher and a both-ways logging handler.

package pipeline

import (
	"log"

	"github.com/momentics/chanio/api"
)

// UpstreamFunc converts a function into an api.UpstreamHandler.
type UpstreamFunc func(ctx api.HandlerContext, ev api.Event) error

// HandleUpstream calls the underlying function.
func (f UpstreamFunc) HandleUpstream(ctx api.HandlerContext, ev api.Event) error {
	return f(ctx, ev)
}

// DownstreamFunc converts a function into an api.DownstreamHandler.
type DownstreamFunc func(ctx api.HandlerContext, ev api.Event) error

// HandleDownstream calls the underlying function.
func (f DownstreamFunc) HandleDownstream(ctx api.HandlerContext, ev api.Event) error {
	return f(ctx, ev)
}

// SimpleUpstream dispatches upstream events to optional callbacks keyed
// by what happened. Events without a callback are forwarded unchanged;
// events with one are consumed unless the callback forwards them itself.
type SimpleUpstream struct {
	OnMessage         func(ctx api.HandlerContext, ev *api.MessageEvent) error
	OnWriteComplete   func(ctx api.HandlerContext, ev *api.WriteCompletionEvent) error
	OnException       func(ctx api.HandlerContext, ev *api.ExceptionEvent) error
	OnOpen            func(ctx api.HandlerContext, ev *api.StateEvent) error
	OnBound           func(ctx api.HandlerContext, ev *api.StateEvent) error
	OnConnected       func(ctx api.HandlerContext, ev *api.StateEvent) error
	OnInterestChanged func(ctx api.HandlerContext, ev *api.StateEvent) error
	OnDisconnected    func(ctx api.HandlerContext, ev *api.StateEvent) error
	OnUnbound         func(ctx api.HandlerContext, ev *api.StateEvent) error
	OnClosed          func(ctx api.HandlerContext, ev *api.StateEvent) error
}

var _ api.UpstreamHandler = (*SimpleUpstream)(nil)

// HandleUpstream implements api.UpstreamHandler.
func (h *SimpleUpstream) HandleUpstream(ctx api.HandlerContext, ev api.Event) error {
	switch e := ev.(type) {
	case *api.MessageEvent:
		if h.OnMessage != nil {
			return h.OnMessage(ctx, e)
		}
	case *api.WriteCompletionEvent:
		if h.OnWriteComplete != nil {
			return h.OnWriteComplete(ctx, e)
		}
	case *api.ExceptionEvent:
		if h.OnException != nil {
			return h.OnException(ctx, e)
		}
		log.Printf("[pipeline] unhandled exception on %v: %v", e.Ch, e.Cause)
	case *api.StateEvent:
		if fn := h.stateCallback(e); fn != nil {
			return fn(ctx, e)
		}
	}
	ctx.SendUpstream(ev)
	return nil
}

func (h *SimpleUpstream) stateCallback(e *api.StateEvent) func(api.HandlerContext, *api.StateEvent) error {
	switch e.State {
	case api.StateOpen:
		if v, _ := e.Value.(bool); v {
			return h.OnOpen
		}
		return h.OnClosed
	case api.StateBound:
		if e.Value != nil {
			return h.OnBound
		}
		return h.OnUnbound
	case api.StateConnected:
		if e.Value != nil {
			return h.OnConnected
		}
		return h.OnDisconnected
	case api.StateInterestOps:
		return h.OnInterestChanged
	}
	return nil
}

// LoggingHandler logs every event crossing its pipeline position, in
// both directions, then forwards it.
type LoggingHandler struct{}

var (
	_ api.UpstreamHandler   = (*LoggingHandler)(nil)
	_ api.DownstreamHandler = (*LoggingHandler)(nil)
)

// HandleUpstream implements api.UpstreamHandler.
func (*LoggingHandler) HandleUpstream(ctx api.HandlerContext, ev api.Event) error {
	log.Printf("[pipeline] up %v", ev)
	ctx.SendUpstream(ev)
	return nil
}

// HandleDownstream implements api.DownstreamHandler.
func (*LoggingHandler) HandleDownstream(ctx api.HandlerContext, ev api.Event) error {
	log.Printf("[pipeline] down %v", ev)
	ctx.SendDownstream(ev)
	return nil
}
