// File: transport/tcp/accepted_channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"net"
	"time"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
)

// AcceptedChannel is a connection accepted by a ServerChannel. It shares
// the parent's configuration, so retuning the parent retunes every child.
type AcceptedChannel struct {
	*channel.Base
	cfg *ServerConfig
	st  *stream

	local  net.Addr
	remote net.Addr
}

var _ api.Channel = (*AcceptedChannel)(nil)
var _ streamChannel = (*AcceptedChannel)(nil)

func newAcceptedChannel(parent *ServerChannel, p api.Pipeline, sink api.Sink, conn net.Conn) (*AcceptedChannel, error) {
	c := &AcceptedChannel{
		cfg:    parent.cfg,
		st:     newStream(),
		local:  conn.LocalAddr(),
		remote: conn.RemoteAddr(),
	}
	b, err := channel.NewBase(c, parent, parent.Factory(), p, sink)
	if err != nil {
		return nil, err
	}
	c.Base = b
	c.st.setConn(conn)
	channel.FireChannelOpen(c)
	channel.FireChannelBound(c, c.local)
	channel.FireChannelConnected(c, c.remote)
	return c, nil
}

// Config implements api.Channel.
func (c *AcceptedChannel) Config() api.Config { return c.cfg }

// IsBound implements api.Channel.
func (c *AcceptedChannel) IsBound() bool { return c.st.alive() }

// IsConnected implements api.Channel.
func (c *AcceptedChannel) IsConnected() bool { return c.st.alive() }

// LocalAddr implements api.Channel; the address stays readable after close.
func (c *AcceptedChannel) LocalAddr() net.Addr { return c.local }

// RemoteAddr implements api.Channel; the address stays readable after close.
func (c *AcceptedChannel) RemoteAddr() net.Addr { return c.remote }

// Bind implements api.Channel; accepted connections are already bound.
func (c *AcceptedChannel) Bind(net.Addr) api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

// Connect implements api.Channel; accepted connections are already connected.
func (c *AcceptedChannel) Connect(net.Addr) api.Future {
	return channel.FailedFuture(c, api.ErrNotSupported)
}

func (c *AcceptedChannel) stream() *stream { return c.st }

func (c *AcceptedChannel) readPoll() time.Duration { return c.cfg.ReadPoll() }

func (c *AcceptedChannel) readBufferSize() int { return c.cfg.ReadBufferSize() }
