// File: pipeline/pipeline.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Default api.Pipeline implementation: a doubly-linked list of named
// handler contexts between the application end and the transport sink.
// Handler chains change rarely; traversal takes the read lock per hop and
// drops it before calling into user code, so handlers may modify the
// pipeline they run in.

package pipeline

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/momentics/chanio/api"
)

type defaultPipeline struct {
	mu       sync.RWMutex
	byName   map[string]*handlerCtx
	head     *handlerCtx
	tail     *handlerCtx
	ch       api.Channel
	sink     api.Sink
	attached atomic.Bool
}

var _ api.Pipeline = (*defaultPipeline)(nil)

// New creates an empty, unattached pipeline.
func New() api.Pipeline {
	return &defaultPipeline{byName: make(map[string]*handlerCtx)}
}

// NewWith creates a pipeline holding the given handlers in order, named
// by position: "0", "1" and so on.
func NewWith(handlers ...api.Handler) (api.Pipeline, error) {
	p := New()
	for i, h := range handlers {
		if err := p.AddLast(fmt.Sprintf("%d", i), h); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Attach implements api.Pipeline.
func (p *defaultPipeline) Attach(ch api.Channel, sink api.Sink) error {
	if ch == nil || sink == nil {
		return api.ErrInvalidArgument
	}
	if !p.attached.CompareAndSwap(false, true) {
		return api.ErrPipelineAttached
	}
	p.mu.Lock()
	p.ch = ch
	p.sink = sink
	p.mu.Unlock()
	return nil
}

// IsAttached implements api.Pipeline.
func (p *defaultPipeline) IsAttached() bool {
	return p.attached.Load()
}

// Channel implements api.Pipeline.
func (p *defaultPipeline) Channel() api.Channel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ch
}

// Sink implements api.Pipeline.
func (p *defaultPipeline) Sink() api.Sink {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.sink == nil {
		return discardSink{}
	}
	return p.sink
}

// AddFirst implements api.Pipeline.
func (p *defaultPipeline) AddFirst(name string, h api.Handler) error {
	ctx, err := p.newCtx(name, h)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.byName[name]; dup {
		return api.ErrHandlerExists
	}
	ctx.next = p.head
	if p.head != nil {
		p.head.prev = ctx
	} else {
		p.tail = ctx
	}
	p.head = ctx
	p.byName[name] = ctx
	return nil
}

// AddLast implements api.Pipeline.
func (p *defaultPipeline) AddLast(name string, h api.Handler) error {
	ctx, err := p.newCtx(name, h)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.byName[name]; dup {
		return api.ErrHandlerExists
	}
	ctx.prev = p.tail
	if p.tail != nil {
		p.tail.next = ctx
	} else {
		p.head = ctx
	}
	p.tail = ctx
	p.byName[name] = ctx
	return nil
}

// AddBefore implements api.Pipeline.
func (p *defaultPipeline) AddBefore(base, name string, h api.Handler) error {
	ctx, err := p.newCtx(name, h)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.byName[base]
	if !ok {
		return api.ErrHandlerNotFound
	}
	if _, dup := p.byName[name]; dup {
		return api.ErrHandlerExists
	}
	ctx.prev = at.prev
	ctx.next = at
	if at.prev != nil {
		at.prev.next = ctx
	} else {
		p.head = ctx
	}
	at.prev = ctx
	p.byName[name] = ctx
	return nil
}

// AddAfter implements api.Pipeline.
func (p *defaultPipeline) AddAfter(base, name string, h api.Handler) error {
	ctx, err := p.newCtx(name, h)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.byName[base]
	if !ok {
		return api.ErrHandlerNotFound
	}
	if _, dup := p.byName[name]; dup {
		return api.ErrHandlerExists
	}
	ctx.prev = at
	ctx.next = at.next
	if at.next != nil {
		at.next.prev = ctx
	} else {
		p.tail = ctx
	}
	at.next = ctx
	p.byName[name] = ctx
	return nil
}

// Remove implements api.Pipeline.
func (p *defaultPipeline) Remove(name string) (api.Handler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ctx, ok := p.byName[name]
	if !ok {
		return nil, api.ErrHandlerNotFound
	}
	p.unlink(ctx)
	delete(p.byName, name)
	return ctx.handler, nil
}

// Replace implements api.Pipeline.
func (p *defaultPipeline) Replace(base, name string, h api.Handler) (api.Handler, error) {
	ctx, err := p.newCtx(name, h)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	old, ok := p.byName[base]
	if !ok {
		return nil, api.ErrHandlerNotFound
	}
	if name != base {
		if _, dup := p.byName[name]; dup {
			return nil, api.ErrHandlerExists
		}
	}
	ctx.prev = old.prev
	ctx.next = old.next
	if old.prev != nil {
		old.prev.next = ctx
	} else {
		p.head = ctx
	}
	if old.next != nil {
		old.next.prev = ctx
	} else {
		p.tail = ctx
	}
	delete(p.byName, base)
	p.byName[name] = ctx
	return old.handler, nil
}

// First implements api.Pipeline.
func (p *defaultPipeline) First() api.Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.head == nil {
		return nil
	}
	return p.head.handler
}

// Last implements api.Pipeline.
func (p *defaultPipeline) Last() api.Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.tail == nil {
		return nil
	}
	return p.tail.handler
}

// Get implements api.Pipeline.
func (p *defaultPipeline) Get(name string) api.Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ctx, ok := p.byName[name]
	if !ok {
		return nil
	}
	return ctx.handler
}

// Context implements api.Pipeline.
func (p *defaultPipeline) Context(name string) api.HandlerContext {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ctx, ok := p.byName[name]
	if !ok {
		return nil
	}
	return ctx
}

// Names implements api.Pipeline.
func (p *defaultPipeline) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var names []string
	for ctx := p.head; ctx != nil; ctx = ctx.next {
		names = append(names, ctx.name)
	}
	return names
}

// SendUpstream implements api.Pipeline.
func (p *defaultPipeline) SendUpstream(ev api.Event) {
	if ctx := p.firstUpstream(); ctx != nil {
		p.callUpstream(ctx, ev)
		return
	}
	log.Printf("[pipeline] no upstream handlers; discarding: %v", ev)
}

// SendDownstream implements api.Pipeline.
func (p *defaultPipeline) SendDownstream(ev api.Event) {
	if ctx := p.lastDownstream(); ctx != nil {
		p.callDownstream(ctx, ev)
		return
	}
	p.sinkEvent(ev)
}

func (p *defaultPipeline) newCtx(name string, h api.Handler) (*handlerCtx, error) {
	if name == "" || h == nil {
		return nil, api.ErrInvalidArgument
	}
	_, up := h.(api.UpstreamHandler)
	_, down := h.(api.DownstreamHandler)
	if !up && !down {
		return nil, api.ErrHandlerUseless
	}
	return &handlerCtx{p: p, name: name, handler: h, canUp: up, canDown: down}, nil
}

func (p *defaultPipeline) unlink(ctx *handlerCtx) {
	if ctx.prev != nil {
		ctx.prev.next = ctx.next
	} else {
		p.head = ctx.next
	}
	if ctx.next != nil {
		ctx.next.prev = ctx.prev
	} else {
		p.tail = ctx.prev
	}
}

func (p *defaultPipeline) firstUpstream() *handlerCtx {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for ctx := p.head; ctx != nil; ctx = ctx.next {
		if ctx.canUp {
			return ctx
		}
	}
	return nil
}

func (p *defaultPipeline) lastDownstream() *handlerCtx {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for ctx := p.tail; ctx != nil; ctx = ctx.prev {
		if ctx.canDown {
			return ctx
		}
	}
	return nil
}

func (p *defaultPipeline) upstreamAfter(ctx *handlerCtx) *handlerCtx {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for c := ctx.next; c != nil; c = c.next {
		if c.canUp {
			return c
		}
	}
	return nil
}

func (p *defaultPipeline) downstreamBefore(ctx *handlerCtx) *handlerCtx {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for c := ctx.prev; c != nil; c = c.prev {
		if c.canDown {
			return c
		}
	}
	return nil
}

// callUpstream runs one upstream handler. Errors and panics become
// exception-caught events; upstream futures are pre-resolved, so nothing
// needs failing here.
func (p *defaultPipeline) callUpstream(ctx *handlerCtx, ev api.Event) {
	if err := invokeUpstream(ctx, ev); err != nil {
		p.notifyHandlerError(ev, err, false)
	}
}

// callDownstream runs one downstream handler. Errors and panics fail the
// event's future and become exception-caught events.
func (p *defaultPipeline) callDownstream(ctx *handlerCtx, ev api.Event) {
	if err := invokeDownstream(ctx, ev); err != nil {
		p.notifyHandlerError(ev, err, true)
	}
}

// sinkEvent hands ev to the transport sink at the downstream end.
func (p *defaultPipeline) sinkEvent(ev api.Event) {
	if err := invokeSink(p.Sink(), p, ev); err != nil {
		p.notifyHandlerError(ev, err, true)
	}
}

// notifyHandlerError routes a handler or sink failure. Failures while
// handling an exception event are only logged, never re-fired, so a
// broken handler cannot loop the pipeline.
func (p *defaultPipeline) notifyHandlerError(ev api.Event, err error, failFuture bool) {
	if _, ok := ev.(*api.ExceptionEvent); ok {
		log.Printf("[pipeline] handler failed while handling an exception event: %v", err)
		return
	}
	if failFuture {
		switch e := ev.(type) {
		case *api.StateEvent:
			if e.Promise != nil {
				e.Promise.Fail(err)
			}
		case *api.MessageEvent:
			if e.Promise != nil {
				e.Promise.Fail(err)
			}
		}
	}
	p.SendUpstream(&api.ExceptionEvent{Ch: ev.Channel(), Cause: err})
}

func invokeUpstream(ctx *handlerCtx, ev api.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("upstream handler %q panicked: %v", ctx.name, r)
		}
	}()
	return ctx.handler.(api.UpstreamHandler).HandleUpstream(ctx, ev)
}

func invokeDownstream(ctx *handlerCtx, ev api.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("downstream handler %q panicked: %v", ctx.name, r)
		}
	}()
	return ctx.handler.(api.DownstreamHandler).HandleDownstream(ctx, ev)
}

func invokeSink(s api.Sink, p api.Pipeline, ev api.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return s.EventSunk(p, ev)
}

// discardSink stands in before Attach. It fails pending futures instead
// of leaving them hanging and logs what it swallowed.
type discardSink struct{}

func (discardSink) EventSunk(_ api.Pipeline, ev api.Event) error {
	switch e := ev.(type) {
	case *api.StateEvent:
		if e.Promise != nil {
			e.Promise.Fail(api.ErrPipelineNotAttached)
		}
	case *api.MessageEvent:
		if e.Promise != nil {
			e.Promise.Fail(api.ErrPipelineNotAttached)
		}
	}
	log.Printf("[pipeline] not attached yet; discarding: %v", ev)
	return nil
}
