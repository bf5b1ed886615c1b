// File: pipeline/handlers_test.go
// Author: momentics <momentics@gmail.com>
//
// Unit tests for the callback dispatcher and the function adapters.

package pipeline

import (
	"net"
	"reflect"
	"testing"

	"github.com/momentics/chanio/api"
)

func TestSimpleUpstreamStateDispatch(t *testing.T) {
	var got []string
	note := func(name string) func(api.HandlerContext, *api.StateEvent) error {
		return func(api.HandlerContext, *api.StateEvent) error {
			got = append(got, name)
			return nil
		}
	}
	h := &SimpleUpstream{
		OnOpen:            note("open"),
		OnBound:           note("bound"),
		OnConnected:       note("connected"),
		OnInterestChanged: note("interest"),
		OnDisconnected:    note("disconnected"),
		OnUnbound:         note("unbound"),
		OnClosed:          note("closed"),
	}

	p := attached(t, &api.MockSink{})
	p.AddLast("h", h)

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4242}
	fire := func(state api.ChannelState, value any) {
		p.SendUpstream(&api.StateEvent{Ch: stubChannel{}, State: state, Value: value})
	}
	fire(api.StateOpen, true)
	fire(api.StateBound, net.Addr(addr))
	fire(api.StateConnected, net.Addr(addr))
	fire(api.StateInterestOps, api.OpRead)
	fire(api.StateConnected, nil)
	fire(api.StateBound, nil)
	fire(api.StateOpen, false)

	want := []string{"open", "bound", "connected", "interest", "disconnected", "unbound", "closed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected dispatch %v, got %v", want, got)
	}
}

func TestSimpleUpstreamMessageAndWriteComplete(t *testing.T) {
	var msg any
	var written int64
	h := &SimpleUpstream{
		OnMessage: func(_ api.HandlerContext, ev *api.MessageEvent) error {
			msg = ev.Message
			return nil
		},
		OnWriteComplete: func(_ api.HandlerContext, ev *api.WriteCompletionEvent) error {
			written = ev.Written
			return nil
		},
	}
	p := attached(t, &api.MockSink{})
	p.AddLast("h", h)

	p.SendUpstream(&api.MessageEvent{Ch: stubChannel{}, Message: "hello"})
	p.SendUpstream(&api.WriteCompletionEvent{Ch: stubChannel{}, Written: 7})

	if msg != "hello" {
		t.Errorf("Expected message callback to see hello, got %v", msg)
	}
	if written != 7 {
		t.Errorf("Expected write completion of 7 bytes, got %d", written)
	}
}

func TestSimpleUpstreamForwardsUnhandled(t *testing.T) {
	var trace []string
	p := attached(t, &api.MockSink{})
	p.AddLast("quiet", &SimpleUpstream{})
	p.AddLast("after", &recordingHandler{name: "after", log: &trace})

	p.SendUpstream(&api.MessageEvent{Ch: stubChannel{}, Message: "pass-through"})

	if !reflect.DeepEqual(trace, []string{"up:after"}) {
		t.Errorf("Expected unhandled event to reach the next handler, got %v", trace)
	}
}

func TestFuncAdapters(t *testing.T) {
	upCalled := false
	downCalled := false
	p := attached(t, &api.MockSink{})
	p.AddLast("up", UpstreamFunc(func(api.HandlerContext, api.Event) error {
		upCalled = true
		return nil
	}))
	p.AddLast("down", DownstreamFunc(func(ctx api.HandlerContext, ev api.Event) error {
		downCalled = true
		ctx.SendDownstream(ev)
		return nil
	}))

	p.SendUpstream(&api.MessageEvent{Ch: stubChannel{}, Message: "m"})
	p.SendDownstream(&api.MessageEvent{Ch: stubChannel{}, Message: "m"})

	if !upCalled {
		t.Errorf("Expected upstream func adapter to run")
	}
	if !downCalled {
		t.Errorf("Expected downstream func adapter to run")
	}
}
