// File: transport/tcp/client_sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sink for the client side: dials out, then hands the connection to the
// same reader loop the server side uses.

package tcp

import (
	"fmt"
	"net"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
)

type clientSink struct {
	factory *ClientFactory
}

var _ api.Sink = (*clientSink)(nil)

func (s *clientSink) EventSunk(_ api.Pipeline, ev api.Event) error {
	ch, ok := ev.Channel().(*ClientChannel)
	if !ok {
		return fmt.Errorf("tcp: unexpected channel type %T", ev.Channel())
	}
	e, ok := ev.(*api.StateEvent)
	if !ok {
		handleStreamEvent(ch, ev, s.factory.metrics)
		return nil
	}
	switch e.State {
	case api.StateOpen:
		if open, _ := e.Value.(bool); !open {
			closeStream(ch, e.Promise, s.factory.metrics)
			return nil
		}
		return api.ErrNotSupported
	case api.StateBound:
		if addr, ok := e.Value.(net.Addr); ok && addr != nil {
			s.bindLocal(ch, e.Promise, addr)
		} else {
			closeStream(ch, e.Promise, s.factory.metrics)
		}
		return nil
	case api.StateConnected:
		if addr, ok := e.Value.(net.Addr); ok && addr != nil {
			s.connect(ch, e.Promise, addr)
		} else {
			closeStream(ch, e.Promise, s.factory.metrics)
		}
		return nil
	default:
		handleStreamEvent(ch, ev, s.factory.metrics)
		return nil
	}
}

// bindLocal records the local address for the upcoming dial. The socket
// itself is not created until connect, so the bind is a promise about
// the dial rather than an immediate syscall.
func (s *clientSink) bindLocal(ch *ClientChannel, p api.Promise, addr net.Addr) {
	if ch.IsConnected() {
		err := fmt.Errorf("tcp: cannot bind a connected channel")
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	ch.setLocalRequest(addr)
	p.Succeed()
	channel.FireChannelBound(ch, addr)
}

func (s *clientSink) connect(ch *ClientChannel, p api.Promise, remote net.Addr) {
	if ch.IsConnected() {
		err := fmt.Errorf("tcp: channel already connected")
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}

	wasBound := ch.IsBound()
	connected, workerStarted := false, false

	p.AddListener(channel.CloseOnFailure)

	// A connection without a reader would silently drop inbound data, so
	// a failure to start the reader rolls the connection back through the
	// normal close path.
	defer func() {
		if connected && !workerStarted {
			closeStream(ch, p, s.factory.metrics)
		}
	}()

	d := net.Dialer{Timeout: ch.cfg.ConnectTimeout(), LocalAddr: ch.localRequest()}
	conn, err := d.Dial(remote.Network(), remote.String())
	if err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	ch.st.setConn(conn)
	ch.setPeer(conn)
	connected = true

	p.Succeed()
	if !wasBound {
		channel.FireChannelBound(ch, conn.LocalAddr())
	}
	channel.FireChannelConnected(ch, conn.RemoteAddr())

	if err := s.factory.supervisor.Go("tcp-reader", func() { runReader(ch, s.factory.metrics) }); err != nil {
		channel.FireExceptionCaught(ch, err)
		return
	}
	workerStarted = true
}
