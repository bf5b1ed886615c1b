// File: transport/tcp/server_channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listening channel. It owns a net.Listener once bound and a shutdown
// lock the acceptor holds for its whole run, so a close only resolves
// after no further connection can be accepted.

package tcp

import (
	"net"
	"sync"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
)

// ServerChannel is a listening TCP channel. Connection-level operations
// fail with ErrNotSupported; children accepted from it carry the actual
// traffic.
type ServerChannel struct {
	*channel.Base
	cfg *ServerConfig

	// shutdownMu is held by the acceptor for its entire run and taken by
	// close before completing, so the close future resolves only once
	// accepting has truly stopped.
	shutdownMu sync.Mutex

	mu        sync.Mutex
	listener  net.Listener
	lnClosed  bool
	boundAddr net.Addr
}

var _ api.Channel = (*ServerChannel)(nil)

func newServerChannel(factory api.Factory, p api.Pipeline, sink api.Sink, cfg *ServerConfig) (*ServerChannel, error) {
	c := &ServerChannel{cfg: cfg}
	b, err := channel.NewBase(c, nil, factory, p, sink)
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
	defer c.mu.Unlock()
	return c.listener != nil && !c.lnClosed
}

// IsConnected implements api.Channel; listening channels never connect.
func (c *ServerChannel) IsConnected() bool { return false }

// LocalAddr implements api.Channel. The address is the listener's actual
// one, which differs from the requested address for port 0 binds; it
// stays readable after close.
func (c *ServerChannel) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boundAddr
}

// RemoteAddr implements api.Channel.
func (c *ServerChannel) RemoteAddr() net.Addr { return nil }

// InterestOps implements api.Channel; a listening channel carries no
// interest bits.
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

func (c *ServerChannel) setListener(ln net.Listener) {
	c.mu.Lock()
	c.listener = ln
	c.lnClosed = false
	c.boundAddr = ln.Addr()
	c.mu.Unlock()
}

func (c *ServerChannel) listenerRef() net.Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listener
}

// closeListener shuts the listener once; later calls are no-ops.
func (c *ServerChannel) closeListener() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil || c.lnClosed {
		return nil
	}
	c.lnClosed = true
	return c.listener.Close()
}
