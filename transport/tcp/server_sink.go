// File: transport/tcp/server_sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sink for the server side: binds listeners, runs the acceptor and
// stands up accepted connections with their readers.

package tcp

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
)

// deadlineListener lets the acceptor poll instead of parking forever on
// Accept, so it notices an unbind between connections.
type deadlineListener interface {
	SetDeadline(t time.Time) error
}

type serverSink struct {
	factory *ServerFactory
}

var _ api.Sink = (*serverSink)(nil)

func (s *serverSink) EventSunk(_ api.Pipeline, ev api.Event) error {
	switch ch := ev.Channel().(type) {
	case *ServerChannel:
		return s.handleServer(ch, ev)
	case *AcceptedChannel:
		handleStreamEvent(ch, ev, s.factory.metrics)
		return nil
	default:
		return fmt.Errorf("tcp: unexpected channel type %T", ev.Channel())
	}
}

func (s *serverSink) handleServer(ch *ServerChannel, ev api.Event) error {
	e, ok := ev.(*api.StateEvent)
	if !ok {
		return api.ErrNotSupported
	}
	switch e.State {
	case api.StateOpen:
		if open, _ := e.Value.(bool); !open {
			s.close(ch, e.Promise)
			return nil
		}
		return api.ErrNotSupported
	case api.StateBound:
		if addr, ok := e.Value.(net.Addr); ok && addr != nil {
			s.bind(ch, e.Promise, addr)
		} else {
			s.close(ch, e.Promise)
		}
		return nil
	default:
		return api.ErrNotSupported
	}
}

func (s *serverSink) bind(ch *ServerChannel, p api.Promise, addr net.Addr) {
	if ch.IsBound() {
		err := fmt.Errorf("tcp: channel already bound")
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	if ch.cfg.PipelineFactory() == nil {
		p.Fail(api.ErrNoPipelineFactory)
		channel.FireExceptionCaught(ch, api.ErrNoPipelineFactory)
		return
	}

	// The bind is reported as soon as the listener is up. If the acceptor
	// then fails to start, the listener is rolled back through the normal
	// close path; the promise is already resolved by that point.
	bound, bossStarted := false, false
	defer func() {
		if bound && !bossStarted {
			s.close(ch, p)
		}
	}()

	ln, err := listen(addr, ch.cfg.Backlog())
	if err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	ch.setListener(ln)
	bound = true

	p.Succeed()
	channel.FireChannelBound(ch, ln.Addr())

	if err := s.factory.supervisor.Go("tcp-boss", func() { s.runBoss(ch) }); err != nil {
		channel.FireExceptionCaught(ch, err)
		return
	}
	bossStarted = true
}

func (s *serverSink) close(ch *ServerChannel, p api.Promise) {
	wasBound := ch.IsBound()
	if err := ch.closeListener(); err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}

	// The acceptor holds shutdownMu for its whole run. Waiting for it here
	// means the close future resolves only after no further connection can
	// be accepted.
	ch.shutdownMu.Lock()
	if ch.SetClosed() {
		p.Succeed()
		if wasBound {
			channel.FireChannelUnbound(ch)
		}
		channel.FireChannelClosed(ch)
	} else {
		p.Succeed()
	}
	ch.shutdownMu.Unlock()
}

func (s *serverSink) runBoss(ch *ServerChannel) {
	ch.shutdownMu.Lock()
	defer ch.shutdownMu.Unlock()

	ln := ch.listenerRef()
	dl, _ := ln.(deadlineListener)
	for ch.IsBound() {
		if dl != nil {
			dl.SetDeadline(time.Now().Add(ch.cfg.AcceptTimeout()))
		}
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			log.Printf("[tcp] failed to accept a connection: %v", err)
			s.factory.metrics.Inc("tcp.accept.errors", 1)
			s.factory.clock.Sleep(ch.cfg.AcceptBackoff())
			continue
		}
		s.initAccepted(ch, conn)
	}
}

func (s *serverSink) initAccepted(ch *ServerChannel, conn net.Conn) {
	p, err := ch.cfg.PipelineFactory()()
	if err != nil {
		log.Printf("[tcp] failed to build a pipeline for %v: %v", conn.RemoteAddr(), err)
		dropConn(conn)
		return
	}
	child, err := newAcceptedChannel(ch, p, s, conn)
	if err != nil {
		log.Printf("[tcp] failed to initialize a connection from %v: %v", conn.RemoteAddr(), err)
		dropConn(conn)
		return
	}
	s.factory.metrics.Inc("tcp.accepted", 1)
	s.factory.track(child)
	if err := s.factory.supervisor.Go("tcp-reader", func() { runReader(child, s.factory.metrics) }); err != nil {
		closeStream(child, child.SucceededFuture(), s.factory.metrics)
	}
}

func dropConn(conn net.Conn) {
	if err := conn.Close(); err != nil {
		log.Printf("[tcp] failed to close an orphaned connection: %v", err)
	}
}
