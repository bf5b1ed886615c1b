// File: transport/local/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package local

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
)

// ServerChannel is a bound name other channels connect to. It carries no
// traffic itself; every connect to its name spawns a fresh peer channel
// parented to it.
type ServerChannel struct {
	*channel.Base
	cfg   *Config
	owner *ServerFactory

	mu   sync.Mutex
	addr net.Addr
}

var _ api.Channel = (*ServerChannel)(nil)

func newServerChannel(owner *ServerFactory, p api.Pipeline, cfg *Config) (*ServerChannel, error) {
	c := &ServerChannel{cfg: cfg, owner: owner}
	b, err := channel.NewBase(c, nil, owner, p, owner.sink)
	if err != nil {
		return nil, err
	}
	c.Base = b
	channel.FireChannelOpen(c)
	return c, nil
}

// Config implements api.Channel.
func (c *ServerChannel) Config() api.Config { return c.cfg }

// IsBound implements api.Channel.
func (c *ServerChannel) IsBound() bool {
	c.mu.Lock()
	addr := c.addr
	c.mu.Unlock()
	return addr != nil && c.IsOpen()
}

// IsConnected implements api.Channel; bound names never connect.
func (c *ServerChannel) IsConnected() bool { return false }

// LocalAddr implements api.Channel; the name stays readable after close.
func (c *ServerChannel) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// RemoteAddr implements api.Channel.
func (c *ServerChannel) RemoteAddr() net.Addr { return nil }

// InterestOps implements api.Channel.
func (c *ServerChannel) InterestOps() api.InterestOps { return api.OpNone }

// IsReadable implements api.Channel.
func (c *ServerChannel) IsReadable() bool { return false }

// IsWritable implements api.Channel.
func (c *ServerChannel) IsWritable() bool { return false }

// Connect implements api.Channel.
func (c *ServerChannel) Connect(net.Addr) api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

// Disconnect implements api.Channel.
func (c *ServerChannel) Disconnect() api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

// Write implements api.Channel.
func (c *ServerChannel) Write(any) api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

// WriteTo implements api.Channel.
func (c *ServerChannel) WriteTo(any, net.Addr) api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

// SetInterestOps implements api.Channel.
func (c *ServerChannel) SetInterestOps(api.InterestOps) api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

// SetReadable implements api.Channel.
func (c *ServerChannel) SetReadable(bool) api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

func (c *ServerChannel) setAddr(addr net.Addr) {
	c.mu.Lock()
	c.addr = addr
	c.mu.Unlock()
}

// Channel is one end of a connected in-process pair.
type Channel struct {
	*channel.Base
	cfg *Config

	mu     sync.Mutex
	local  net.Addr
	remote net.Addr
	peer   *Channel

	bound     atomic.Bool
	connected atomic.Bool

	pendMu   sync.Mutex
	pending  *queue.Queue
	draining bool
}

var _ api.Channel = (*Channel)(nil)

// newChannel builds an endpoint without firing any event; the callers
// decide when the open event is due.
func newChannel(factory api.Factory, parent api.Channel, p api.Pipeline, snk api.Sink, cfg *Config) (*Channel, error) {
	c := &Channel{cfg: cfg}
	b, err := channel.NewBase(c, parent, factory, p, snk)
	if err != nil {
		return nil, err
	}
	c.Base = b
	return c, nil
}

// Config implements api.Channel.
func (c *Channel) Config() api.Config { return c.cfg }

// IsBound implements api.Channel.
func (c *Channel) IsBound() bool { return c.bound.Load() && c.IsOpen() }

// IsConnected implements api.Channel.
func (c *Channel) IsConnected() bool { return c.connected.Load() && c.IsOpen() }

// LocalAddr implements api.Channel; the address stays readable after close.
func (c *Channel) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local
}

// RemoteAddr implements api.Channel; the address stays readable after close.
func (c *Channel) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

func (c *Channel) setLocal(addr net.Addr) {
	c.mu.Lock()
	c.local = addr
	c.mu.Unlock()
}

func (c *Channel) setRemote(addr net.Addr) {
	c.mu.Lock()
	c.remote = addr
	c.mu.Unlock()
}

func (c *Channel) setPeer(peer *Channel) {
	c.mu.Lock()
	c.peer = peer
	c.mu.Unlock()
}

func (c *Channel) peerRef() *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

func (c *Channel) markBound()        { c.bound.Store(true) }
func (c *Channel) markConnected()    { c.connected.Store(true) }
func (c *Channel) markDisconnected() { c.connected.Store(false) }

// deliver surfaces one inbound message, or queues it while the receiver
// has reads suspended or a drain is in flight. Queued messages replay in
// arrival order; routing fresh messages through a non-empty queue keeps
// them from overtaking older ones.
func (c *Channel) deliver(msg any) {
	c.pendMu.Lock()
	if !c.IsReadable() || c.draining || (c.pending != nil && c.pending.Length() > 0) {
		if c.pending == nil {
			c.pending = queue.New()
		}
		c.pending.Add(msg)
		c.pendMu.Unlock()
		return
	}
	c.pendMu.Unlock()
	channel.FireMessageReceived(c, msg)
}

// flushPending replays queued messages after reads resumed. Only one
// drainer runs at a time; the lock is dropped around each fire so a
// handler may suspend reads or write back without deadlocking.
func (c *Channel) flushPending() {
	c.pendMu.Lock()
	if c.draining {
		c.pendMu.Unlock()
		return
	}
	c.draining = true
	for {
		if !c.IsReadable() || c.pending == nil || c.pending.Length() == 0 {
			c.draining = false
			c.pendMu.Unlock()
			return
		}
		msg := c.pending.Remove()
		c.pendMu.Unlock()
		channel.FireMessageReceived(c, msg)
		c.pendMu.Lock()
	}
}
