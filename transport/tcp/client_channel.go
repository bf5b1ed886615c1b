// File: transport/tcp/client_channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
)

// ClientChannel is an outbound TCP connection. It starts open and
// unconnected; bind records the local address for the upcoming dial and
// connect establishes the stream.
type ClientChannel struct {
	*channel.Base
	cfg *ClientConfig
	st  *stream

	mu       sync.Mutex
	localReq net.Addr
	local    net.Addr
	remote   net.Addr

	bound atomic.Bool
}

var _ api.Channel = (*ClientChannel)(nil)
var _ streamChannel = (*ClientChannel)(nil)

func newClientChannel(factory api.Factory, p api.Pipeline, sink api.Sink, cfg *ClientConfig) (*ClientChannel, error) {
	c := &ClientChannel{cfg: cfg, st: newStream()}
	b, err := channel.NewBase(c, nil, factory, p, sink)
	if err != nil {
		return nil, err
	}
	c.Base = b
	channel.FireChannelOpen(c)
	return c, nil
}

// Config implements api.Channel.
func (c *ClientChannel) Config() api.Config { return c.cfg }

// IsBound implements api.Channel.
func (c *ClientChannel) IsBound() bool { return c.bound.Load() && c.IsOpen() }

// IsConnected implements api.Channel.
func (c *ClientChannel) IsConnected() bool { return c.st.alive() }

// LocalAddr implements api.Channel. Before the dial it reports the
// address bind asked for; afterwards the one the socket actually got.
func (c *ClientChannel) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local != nil {
		return c.local
	}
	return c.localReq
}

// RemoteAddr implements api.Channel; the address stays readable after close.
func (c *ClientChannel) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

func (c *ClientChannel) setLocalRequest(addr net.Addr) {
	c.mu.Lock()
	c.localReq = addr
	c.mu.Unlock()
	c.bound.Store(true)
}

func (c *ClientChannel) localRequest() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localReq
}

// setPeer records the addresses the dial settled on. The socket is bound
// from here on whether or not bind was requested beforehand.
func (c *ClientChannel) setPeer(conn net.Conn) {
	c.mu.Lock()
	c.local = conn.LocalAddr()
	c.remote = conn.RemoteAddr()
	c.mu.Unlock()
	c.bound.Store(true)
}

func (c *ClientChannel) stream() *stream { return c.st }

func (c *ClientChannel) readPoll() time.Duration { return c.cfg.ReadPoll() }

func (c *ClientChannel) readBufferSize() int { return c.cfg.ReadBufferSize() }
