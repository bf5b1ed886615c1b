// File: transport/tcp/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket-side state shared by accepted and outbound connection channels:
// the conn reference, the reader parking lot and the write serializer.

package tcp

import (
	"net"
	"sync"
	"time"

	"github.com/momentics/chanio/api"
)

// stream holds what the reader goroutine and the sink share for one
// connection.
type stream struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool

	readMu   sync.Mutex
	readCond *sync.Cond
	stopping bool

	writeMu sync.Mutex
}

func newStream() *stream {
	s := &stream{}
	s.readCond = sync.NewCond(&s.readMu)
	return s
}

func (s *stream) setConn(c net.Conn) {
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
}

func (s *stream) getConn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// alive reports whether the socket is present and not yet shut down.
func (s *stream) alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && !s.closed
}

// shutdown stops the reader and closes the socket. The stop flag and the
// broadcast come first so a parked reader wakes even when it never held
// the socket; the close itself kicks a reader out of a blocking Read.
// Safe to call from any goroutine and more than once.
func (s *stream) shutdown() error {
	s.readMu.Lock()
	s.stopping = true
	s.readCond.Broadcast()
	s.readMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// waitReadable parks until the channel wants reads again or the stream
// shuts down. Reports whether reading may continue.
func (s *stream) waitReadable(ch api.Channel) bool {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	for !ch.IsReadable() && !s.stopping {
		s.readCond.Wait()
	}
	return !s.stopping
}

// wakeReader unparks the reader after OpRead got set again.
func (s *stream) wakeReader() {
	s.readMu.Lock()
	s.readCond.Broadcast()
	s.readMu.Unlock()
}

// streamChannel is the surface the shared reader and sink code needs
// from a connected channel. Both connection flavors satisfy it through
// their embedded channel.Base plus the accessors below.
type streamChannel interface {
	api.Channel
	SetClosed() bool
	SetInterestOpsNow(api.InterestOps) bool
	SucceededFuture() api.Promise

	stream() *stream
	readPoll() time.Duration
	readBufferSize() int
}
