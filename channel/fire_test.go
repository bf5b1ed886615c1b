// File: channel/fire_test.go
// Author: momentics <momentics@gmail.com>
//
// Unit tests for the upstream event emitters.

package channel

import (
	"fmt"
	"testing"

	"github.com/momentics/chanio/api"
)

type upRecorder struct {
	events []api.Event
}

func (r *upRecorder) HandleUpstream(_ api.HandlerContext, ev api.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func TestFireHelpersEmitUpstreamEvents(t *testing.T) {
	c := newTestChannel(t, nil, &api.MockSink{})
	defer c.SetClosed()
	rec := &upRecorder{}
	if err := c.Pipeline().AddLast("rec", rec); err != nil {
		t.Fatalf("AddLast: %v", err)
	}

	addr := tcpAddr(7000)
	FireChannelOpen(c)
	FireChannelBound(c, addr)
	FireChannelConnected(c, addr)
	FireChannelInterestChanged(c)
	FireMessageReceived(c, "ping")
	FireMessageReceivedFrom(c, "pong", addr)
	FireWriteComplete(c, 0) // swallowed
	FireWriteComplete(c, 42)
	FireExceptionCaught(c, fmt.Errorf("oops"))
	FireChannelDisconnected(c)
	FireChannelUnbound(c)
	FireChannelClosed(c)

	if got := len(rec.events); got != 11 {
		t.Fatalf("Expected 11 events (zero write swallowed), got %d", got)
	}

	open := rec.events[0].(*api.StateEvent)
	if open.State != api.StateOpen || open.Value != any(true) {
		t.Errorf("Expected open announcement, got %v", open)
	}
	if open.Promise != c.SucceededFuture() {
		t.Errorf("Expected state announcements to reuse the shared future")
	}

	bound := rec.events[1].(*api.StateEvent)
	if bound.State != api.StateBound || bound.Value == nil {
		t.Errorf("Expected bound announcement with address, got %v", bound)
	}

	interest := rec.events[3].(*api.StateEvent)
	if interest.State != api.StateInterestOps || interest.Value != any(api.OpRead) {
		t.Errorf("Expected interest announcement with OpRead, got %v", interest)
	}

	msg := rec.events[4].(*api.MessageEvent)
	if msg.Message != "ping" || msg.Remote != nil {
		t.Errorf("Expected plain message event, got %v", msg)
	}
	from := rec.events[5].(*api.MessageEvent)
	if from.Message != "pong" || from.Remote == nil {
		t.Errorf("Expected addressed message event, got %v", from)
	}

	wc := rec.events[6].(*api.WriteCompletionEvent)
	if wc.Written != 42 {
		t.Errorf("Expected 42 written bytes, got %d", wc.Written)
	}

	exc := rec.events[7].(*api.ExceptionEvent)
	if exc.Cause == nil {
		t.Errorf("Expected exception event to carry the cause")
	}

	closed := rec.events[10].(*api.StateEvent)
	if closed.State != api.StateOpen || closed.Value != any(false) {
		t.Errorf("Expected closed announcement, got %v", closed)
	}
}
