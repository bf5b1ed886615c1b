// File: pipeline/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handler context: one node of the pipeline's doubly-linked chain.

package pipeline

import (
	"sync"

	"github.com/momentics/chanio/api"
)

type handlerCtx struct {
	p       *defaultPipeline
	next    *handlerCtx
	prev    *handlerCtx
	name    string
	handler api.Handler
	canUp   bool
	canDown bool

	attMu      sync.RWMutex
	attachment any
}

var _ api.HandlerContext = (*handlerCtx)(nil)

// Name implements api.HandlerContext.
func (c *handlerCtx) Name() string { return c.name }

// Pipeline implements api.HandlerContext.
func (c *handlerCtx) Pipeline() api.Pipeline { return c.p }

// Channel implements api.HandlerContext.
func (c *handlerCtx) Channel() api.Channel { return c.p.Channel() }

// Handler implements api.HandlerContext.
func (c *handlerCtx) Handler() api.Handler { return c.handler }

// CanHandleUpstream implements api.HandlerContext.
func (c *handlerCtx) CanHandleUpstream() bool { return c.canUp }

// CanHandleDownstream implements api.HandlerContext.
func (c *handlerCtx) CanHandleDownstream() bool { return c.canDown }

// SendUpstream implements api.HandlerContext. An event forwarded past the
// application end simply stops; the last handler consumed it.
func (c *handlerCtx) SendUpstream(ev api.Event) {
	if next := c.p.upstreamAfter(c); next != nil {
		c.p.callUpstream(next, ev)
	}
}

// SendDownstream implements api.HandlerContext. An event forwarded past
// the transport end reaches the sink.
func (c *handlerCtx) SendDownstream(ev api.Event) {
	if prev := c.p.downstreamBefore(c); prev != nil {
		c.p.callDownstream(prev, ev)
		return
	}
	c.p.sinkEvent(ev)
}

// Attachment implements api.HandlerContext.
func (c *handlerCtx) Attachment() any {
	c.attMu.RLock()
	defer c.attMu.RUnlock()
	return c.attachment
}

// SetAttachment implements api.HandlerContext.
func (c *handlerCtx) SetAttachment(v any) {
	c.attMu.Lock()
	c.attachment = v
	c.attMu.Unlock()
}
