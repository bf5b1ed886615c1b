// File: transport/local/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The sink is where every downstream event lands. All of it runs on the
// calling goroutine; connecting, writing and closing are plain function
// calls from the caller's point of view.

package local

import (
	"fmt"
	"net"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
)

type localSink struct {
	core *core
}

var _ api.Sink = (*localSink)(nil)

func (s *localSink) EventSunk(_ api.Pipeline, ev api.Event) error {
	switch ch := ev.Channel().(type) {
	case *ServerChannel:
		return s.handleServer(ch, ev)
	case *Channel:
		return s.handleChannel(ch, ev)
	default:
		return fmt.Errorf("local: unexpected channel type %T", ev.Channel())
	}
}

func (s *localSink) handleServer(ch *ServerChannel, ev api.Event) error {
	e, ok := ev.(*api.StateEvent)
	if !ok {
		return api.ErrNotSupported
	}
	switch e.State {
	case api.StateOpen:
		if open, _ := e.Value.(bool); !open {
			s.closeServer(ch, e.Promise)
			return nil
		}
		return api.ErrNotSupported
	case api.StateBound:
		if addr, ok := e.Value.(net.Addr); ok && addr != nil {
			s.bindServer(ch, e.Promise, addr)
		} else {
			s.closeServer(ch, e.Promise)
		}
		return nil
	default:
		return api.ErrNotSupported
	}
}

func (s *localSink) bindServer(ch *ServerChannel, p api.Promise, addr net.Addr) {
	if ch.IsBound() {
		err := fmt.Errorf("local: channel already bound")
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	if ch.cfg.PipelineFactory() == nil {
		p.Fail(api.ErrNoPipelineFactory)
		channel.FireExceptionCaught(ch, api.ErrNoPipelineFactory)
		return
	}
	if err := bindName(addr, ch); err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	ch.setAddr(addr)
	p.Succeed()
	channel.FireChannelBound(ch, addr)
}

func (s *localSink) closeServer(ch *ServerChannel, p api.Promise) {
	wasBound := ch.IsBound()
	if addr := ch.LocalAddr(); addr != nil {
		unbindName(addr, ch)
	}
	if ch.SetClosed() {
		p.Succeed()
		if wasBound {
			channel.FireChannelUnbound(ch)
		}
		channel.FireChannelClosed(ch)
	} else {
		p.Succeed()
	}
}

func (s *localSink) handleChannel(ch *Channel, ev api.Event) error {
	switch e := ev.(type) {
	case *api.MessageEvent:
		s.write(ch, e.Promise, e.Message)
		return nil
	case *api.StateEvent:
		switch e.State {
		case api.StateOpen:
			if open, _ := e.Value.(bool); !open {
				s.teardown(ch, e.Promise)
				return nil
			}
			return api.ErrNotSupported
		case api.StateBound:
			if addr, ok := e.Value.(net.Addr); ok && addr != nil {
				s.bindChannel(ch, e.Promise, addr)
			} else {
				s.teardown(ch, e.Promise)
			}
			return nil
		case api.StateConnected:
			if addr, ok := e.Value.(net.Addr); ok && addr != nil {
				s.connect(ch, e.Promise, addr)
			} else {
				s.teardown(ch, e.Promise)
			}
			return nil
		case api.StateInterestOps:
			s.setInterestOps(ch, e.Promise, e.Value)
			return nil
		}
		return api.ErrNotSupported
	default:
		return fmt.Errorf("local: unsupported event type %T", ev)
	}
}

// bindChannel names the endpoint before it connects.
func (s *localSink) bindChannel(ch *Channel, p api.Promise, addr net.Addr) {
	if ch.IsConnected() {
		err := fmt.Errorf("local: cannot bind a connected channel")
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	ch.setLocal(addr)
	ch.markBound()
	p.Succeed()
	channel.FireChannelBound(ch, addr)
}

func (s *localSink) connect(ch *Channel, p api.Promise, remote net.Addr) {
	if ch.IsConnected() {
		err := fmt.Errorf("local: channel already connected")
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}

	p.AddListener(channel.CloseOnFailure)

	srv := lookupName(remote)
	if srv == nil {
		err := fmt.Errorf("%w: %s", ErrAddrUnbound, remote)
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	pf := srv.cfg.PipelineFactory()
	if pf == nil {
		p.Fail(api.ErrNoPipelineFactory)
		channel.FireExceptionCaught(ch, api.ErrNoPipelineFactory)
		return
	}
	pp, err := pf()
	if err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	peer, err := newChannel(srv.owner, srv, pp, srv.owner.sink, srv.cfg)
	if err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}

	srvAddr := srv.LocalAddr()
	freshlyBound := false
	if ch.LocalAddr() == nil {
		ch.setLocal(EphemeralAddr())
		ch.markBound()
		freshlyBound = true
	}
	ch.setRemote(srvAddr)
	peer.setLocal(srvAddr)
	peer.setRemote(ch.LocalAddr())
	peer.markBound()
	ch.setPeer(peer)
	peer.setPeer(ch)
	ch.markConnected()
	peer.markConnected()

	s.core.metrics.Inc("local.connected", 1)
	srv.owner.track(peer)

	if freshlyBound {
		channel.FireChannelBound(ch, ch.LocalAddr())
	}
	p.Succeed()
	channel.FireChannelConnected(ch, srvAddr)

	channel.FireChannelOpen(peer)
	channel.FireChannelBound(peer, srvAddr)
	channel.FireChannelConnected(peer, ch.LocalAddr())
}

// teardown closes one end and drags the peer down with it.
func (s *localSink) teardown(ch *Channel, p api.Promise) {
	connected := ch.IsConnected()
	bound := ch.IsBound()
	peer := ch.peerRef()
	ch.markDisconnected()
	if ch.SetClosed() {
		s.core.metrics.Inc("local.closed", 1)
		p.Succeed()
		if connected {
			channel.FireChannelDisconnected(ch)
		}
		if bound {
			channel.FireChannelUnbound(ch)
		}
		channel.FireChannelClosed(ch)
	} else {
		p.Succeed()
	}
	if peer != nil && peer.IsOpen() {
		peer.Close()
	}
}

func (s *localSink) write(ch *Channel, p api.Promise, msg any) {
	peer := ch.peerRef()
	if !ch.IsConnected() || peer == nil {
		p.Fail(api.ErrNotConnected)
		channel.FireExceptionCaught(ch, api.ErrNotConnected)
		return
	}
	p.Succeed()
	s.core.metrics.Inc("local.delivered", 1)
	peer.deliver(msg)
	channel.FireWriteComplete(ch, 1)
}

// setInterestOps applies a requested mask; the OpWrite bit never moves.
func (s *localSink) setInterestOps(ch *Channel, p api.Promise, value any) {
	requested, ok := value.(api.InterestOps)
	if !ok {
		p.Fail(api.ErrInvalidArgument)
		channel.FireExceptionCaught(ch, api.ErrInvalidArgument)
		return
	}
	ops := requested &^ api.OpWrite
	ops |= ch.InterestOps() & api.OpWrite

	p.Succeed()
	if ch.SetInterestOpsNow(ops) {
		channel.FireChannelInterestChanged(ch)
		if ops.Readable() {
			ch.flushPending()
		}
	}
}
