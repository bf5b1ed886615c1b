// File: channel/base.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Base carries the machinery every transport channel shares: the process
// unique identity, the pipeline reference, interest ops, the guarded close
// future and the downstream request methods. Transports embed *Base and
// supply the socket-backed parts: addresses, connection state and config.

package channel

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/internal/registry"
)

// channels tracks every open channel in the process.
var channels = registry.New(32)

// Find resolves a live channel by identity.
func Find(id int32) (api.Channel, bool) {
	return channels.Lookup(id)
}

// OpenCount returns the number of channels currently open.
func OpenCount() int {
	return channels.Len()
}

// Each applies fn to every open channel.
func Each(fn func(api.Channel)) {
	channels.Range(fn)
}

// Base implements the transport-independent part of api.Channel.
type Base struct {
	id       int32
	self     api.Channel
	parent   api.Channel
	factory  api.Factory
	pipeline api.Pipeline

	interest  atomic.Int32
	succeeded *promise
	closeF    *closeFuture
	closing   atomic.Bool

	attMu      sync.RWMutex
	attachment any

	strMu        sync.Mutex
	strVal       string
	strConnected bool
}

// NewBase wires the shared machinery for the concrete channel self:
// allocates the identity, arms the close future and attaches the pipeline
// to self and sink. The identity is released again if the attach fails.
func NewBase(self, parent api.Channel, factory api.Factory, p api.Pipeline, sink api.Sink) (*Base, error) {
	if self == nil || p == nil || sink == nil {
		return nil, api.ErrInvalidArgument
	}
	b := &Base{
		self:     self,
		parent:   parent,
		factory:  factory,
		pipeline: p,
	}
	b.interest.Store(int32(api.OpRead))
	b.closeF = newCloseFuture(self)
	b.succeeded = newPromise(self, false)
	b.succeeded.Succeed()

	b.id = channels.Acquire(self)
	if err := p.Attach(self, sink); err != nil {
		channels.Release(b.id)
		return nil, err
	}
	return b, nil
}

// ID implements api.Channel.
func (b *Base) ID() int32 { return b.id }

// IDString renders the identity the way String does: 8 hex digits.
func (b *Base) IDString() string {
	return fmt.Sprintf("%08x", uint32(b.id))
}

// Parent implements api.Channel.
func (b *Base) Parent() api.Channel { return b.parent }

// Factory implements api.Channel.
func (b *Base) Factory() api.Factory { return b.factory }

// Pipeline implements api.Channel.
func (b *Base) Pipeline() api.Pipeline { return b.pipeline }

// IsOpen implements api.Channel. A channel is open until its close future
// resolves.
func (b *Base) IsOpen() bool { return !b.closeF.IsDone() }

// InterestOps implements api.Channel.
func (b *Base) InterestOps() api.InterestOps {
	return api.InterestOps(b.interest.Load())
}

// IsReadable implements api.Channel.
func (b *Base) IsReadable() bool { return b.InterestOps().Readable() }

// IsWritable implements api.Channel.
func (b *Base) IsWritable() bool { return b.InterestOps().Writable() }

// SetInterestOpsNow stores ops without going through the pipeline and
// reports whether anything changed. Transports call it once the change
// took effect.
func (b *Base) SetInterestOpsNow(ops api.InterestOps) bool {
	return b.interest.Swap(int32(ops)) != int32(ops)
}

// CloseFuture implements api.Channel.
func (b *Base) CloseFuture() api.Future { return b.closeF }

// SucceededFuture returns the channel's shared, already resolved future.
// Upstream events that need a promise nobody waits on reuse it.
func (b *Base) SucceededFuture() api.Promise { return b.succeeded }

// SetClosed marks the channel fully closed: the identity goes back to the
// pool, then the close future resolves and its listeners run. Transports
// call it when teardown finished; it reports whether this call performed
// the transition.
func (b *Base) SetClosed() bool {
	if !b.closing.CompareAndSwap(false, true) {
		return false
	}
	channels.Release(b.id)
	return b.closeF.setClosed()
}

// Bind implements api.Channel.
func (b *Base) Bind(addr net.Addr) api.Future {
	if addr == nil {
		return FailedFuture(b.self, api.ErrInvalidArgument)
	}
	return b.sendState(api.StateBound, addr)
}

// Unbind implements api.Channel.
func (b *Base) Unbind() api.Future {
	return b.sendState(api.StateBound, nil)
}

// Connect implements api.Channel. Connect futures are cancellable: a
// cancel that beats the transport wins the race and the late success is
// dropped on the floor.
func (b *Base) Connect(addr net.Addr) api.Future {
	if addr == nil {
		return FailedFuture(b.self, api.ErrInvalidArgument)
	}
	p := NewCancellablePromise(b.self)
	b.pipeline.SendDownstream(&api.StateEvent{
		Ch:      b.self,
		Promise: p,
		State:   api.StateConnected,
		Value:   addr,
	})
	return p
}

// Disconnect implements api.Channel.
func (b *Base) Disconnect() api.Future {
	return b.sendState(api.StateConnected, nil)
}

// Close implements api.Channel. The returned future is always the close
// future, so closing twice observes the same resolution.
func (b *Base) Close() api.Future {
	b.pipeline.SendDownstream(&api.StateEvent{
		Ch:      b.self,
		Promise: b.closeF,
		State:   api.StateOpen,
		Value:   false,
	})
	return b.closeF
}

// Write implements api.Channel.
func (b *Base) Write(msg any) api.Future {
	return b.WriteTo(msg, nil)
}

// WriteTo implements api.Channel. A nil addr degrades to a plain Write.
func (b *Base) WriteTo(msg any, addr net.Addr) api.Future {
	if msg == nil {
		return FailedFuture(b.self, api.ErrInvalidArgument)
	}
	p := NewPromise(b.self)
	b.pipeline.SendDownstream(&api.MessageEvent{
		Ch:      b.self,
		Promise: p,
		Message: msg,
		Remote:  addr,
	})
	return p
}

// SetInterestOps implements api.Channel. Bits outside OpRead and OpWrite
// fail the future; the transport preserves the current OpWrite bit no
// matter what the argument says.
func (b *Base) SetInterestOps(ops api.InterestOps) api.Future {
	if ops&^(api.OpRead|api.OpWrite) != 0 {
		return FailedFuture(b.self, api.ErrInvalidArgument)
	}
	return b.sendState(api.StateInterestOps, ops)
}

// SetReadable implements api.Channel.
func (b *Base) SetReadable(readable bool) api.Future {
	ops := b.InterestOps()
	if readable {
		ops |= api.OpRead
	} else {
		ops &^= api.OpRead
	}
	return b.SetInterestOps(ops)
}

// Attachment implements api.Channel.
func (b *Base) Attachment() any {
	b.attMu.RLock()
	defer b.attMu.RUnlock()
	return b.attachment
}

// SetAttachment implements api.Channel.
func (b *Base) SetAttachment(v any) {
	b.attMu.Lock()
	b.attachment = v
	b.attMu.Unlock()
}

func (b *Base) sendState(state api.ChannelState, value any) api.Future {
	p := NewPromise(b.self)
	b.pipeline.SendDownstream(&api.StateEvent{
		Ch:      b.self,
		Promise: p,
		State:   state,
		Value:   value,
	})
	return p
}

// String implements fmt.Stringer. The rendered form is cached and only
// rebuilt when the connected flag flips, since addresses settle once.
func (b *Base) String() string {
	connected := b.self.IsConnected()
	b.strMu.Lock()
	if b.strVal != "" && b.strConnected == connected {
		s := b.strVal
		b.strMu.Unlock()
		return s
	}
	b.strMu.Unlock()

	var sb strings.Builder
	sb.WriteString("[id: 0x")
	sb.WriteString(b.IDString())
	local := b.self.LocalAddr()
	remote := b.self.RemoteAddr()
	switch {
	case remote != nil:
		sep := " :> "
		if connected {
			sep = " => "
		}
		// Child channels show the remote peer first: they exist because
		// of it.
		if b.parent != nil {
			fmt.Fprintf(&sb, ", %v%s%v", remote, sep, local)
		} else {
			fmt.Fprintf(&sb, ", %v%s%v", local, sep, remote)
		}
	case local != nil:
		fmt.Fprintf(&sb, ", %v", local)
	}
	sb.WriteByte(']')
	s := sb.String()

	b.strMu.Lock()
	b.strVal = s
	b.strConnected = connected
	b.strMu.Unlock()
	return s
}
