// File: channel/base_test.go
// Author: momentics <momentics@gmail.com>
//
// Unit tests for the shared channel machinery: identity wiring, downstream
// request events, the guarded close future and string rendering.

package channel

import (
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/pipeline"
)

// testChannel is a minimal concrete channel around Base.
type testChannel struct {
	*Base
	local     net.Addr
	remote    net.Addr
	connected atomic.Bool
	bound     atomic.Bool
}

func (c *testChannel) Config() api.Config   { return nil }
func (c *testChannel) IsBound() bool        { return c.bound.Load() }
func (c *testChannel) IsConnected() bool    { return c.connected.Load() }
func (c *testChannel) LocalAddr() net.Addr  { return c.local }
func (c *testChannel) RemoteAddr() net.Addr { return c.remote }

func newTestChannel(t *testing.T, parent api.Channel, sink api.Sink) *testChannel {
	t.Helper()
	c := &testChannel{}
	b, err := NewBase(c, parent, nil, pipeline.New(), sink)
	if err != nil {
		t.Fatalf("Expected NewBase to succeed, got %v", err)
	}
	c.Base = b
	return c
}

func tcpAddr(port int) net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func TestNewBaseWiring(t *testing.T) {
	sink := &api.MockSink{}
	c := newTestChannel(t, nil, sink)
	defer c.SetClosed()

	if c.ID() == 0 {
		t.Errorf("Expected non-zero identity")
	}
	if got, ok := Find(c.ID()); !ok || got != api.Channel(c) {
		t.Errorf("Expected registry to resolve the new channel")
	}
	if !c.Pipeline().IsAttached() {
		t.Errorf("Expected pipeline to be attached")
	}
	if c.Pipeline().Channel() != api.Channel(c) {
		t.Errorf("Expected pipeline to point back at the channel")
	}
	if !c.IsOpen() {
		t.Errorf("Expected fresh channel to be open")
	}
	if got := c.InterestOps(); got != api.OpRead {
		t.Errorf("Expected initial interest OpRead, got %v", got)
	}
	if !c.IsReadable() || !c.IsWritable() {
		t.Errorf("Expected fresh channel readable and writable")
	}
}

func TestNewBaseRollsBackOnAttachFailure(t *testing.T) {
	pl := pipeline.New()
	if err := pl.Attach(&testChannel{}, &api.MockSink{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	before := OpenCount()
	c := &testChannel{}
	if _, err := NewBase(c, nil, nil, pl, &api.MockSink{}); err != api.ErrPipelineAttached {
		t.Fatalf("Expected ErrPipelineAttached, got %v", err)
	}
	if got := OpenCount(); got != before {
		t.Errorf("Expected identity rollback, open count went %d -> %d", before, got)
	}
}

func TestRequestsTravelDownstream(t *testing.T) {
	sink := &api.MockSink{}
	c := newTestChannel(t, nil, sink)
	defer c.SetClosed()

	addr := tcpAddr(9000)
	futures := []api.Future{
		c.Bind(addr),
		c.Connect(addr),
		c.Write("payload"),
		c.Unbind(),
		c.Disconnect(),
	}
	for i, f := range futures {
		if !f.IsDone() || !f.IsSuccess() {
			t.Errorf("Expected request %d to be resolved by the sink", i)
		}
	}

	events := sink.Events()
	if len(events) != 5 {
		t.Fatalf("Expected 5 sunk events, got %d", len(events))
	}
	bind, ok := events[0].(*api.StateEvent)
	if !ok || bind.State != api.StateBound || bind.Value != net.Addr(addr) {
		t.Errorf("Expected bind event with address, got %v", events[0])
	}
	if msg, ok := events[2].(*api.MessageEvent); !ok || msg.Message != "payload" {
		t.Errorf("Expected message event with payload, got %v", events[2])
	}
	if unbind, ok := events[3].(*api.StateEvent); !ok || unbind.State != api.StateBound || unbind.Value != nil {
		t.Errorf("Expected unbind event with nil value, got %v", events[3])
	}
}

func TestNilArgumentsFailFast(t *testing.T) {
	sink := &api.MockSink{}
	c := newTestChannel(t, nil, sink)
	defer c.SetClosed()

	for name, f := range map[string]api.Future{
		"bind":    c.Bind(nil),
		"connect": c.Connect(nil),
		"write":   c.Write(nil),
	} {
		if !f.IsDone() || f.Cause() != api.ErrInvalidArgument {
			t.Errorf("Expected %s(nil) to fail fast, got %v", name, f.Cause())
		}
	}
	if got := len(sink.Events()); got != 0 {
		t.Errorf("Expected no events for rejected requests, got %d", got)
	}
}

func TestSetInterestOpsValidation(t *testing.T) {
	sink := &api.MockSink{}
	c := newTestChannel(t, nil, sink)
	defer c.SetClosed()

	if f := c.SetInterestOps(api.InterestOps(1 << 5)); f.Cause() != api.ErrInvalidArgument {
		t.Errorf("Expected unknown bits to be rejected, got %v", f.Cause())
	}

	c.SetReadable(false)
	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("Expected one interest event, got %d", len(events))
	}
	ev := events[0].(*api.StateEvent)
	if ev.State != api.StateInterestOps {
		t.Fatalf("Expected interest-ops event, got %v", ev.State)
	}
	if ops := ev.Value.(api.InterestOps); ops.Readable() {
		t.Errorf("Expected requested ops without OpRead, got %v", ops)
	}
}

func TestSetInterestOpsNowReportsChange(t *testing.T) {
	c := newTestChannel(t, nil, &api.MockSink{})
	defer c.SetClosed()

	if !c.SetInterestOpsNow(api.OpNone) {
		t.Errorf("Expected change from OpRead to OpNone")
	}
	if c.SetInterestOpsNow(api.OpNone) {
		t.Errorf("Expected no-op set to report false")
	}
	if c.IsReadable() {
		t.Errorf("Expected channel to be non-readable now")
	}
}

func TestCloseUsesGuardedFuture(t *testing.T) {
	sink := &api.MockSink{}
	c := newTestChannel(t, nil, sink)

	f := c.Close()
	if f != c.CloseFuture() {
		t.Fatalf("Expected Close to hand out the close future")
	}
	// The mock sink "succeeds" the event future, but the close future only
	// arms through SetClosed.
	if f.IsDone() {
		t.Fatalf("Expected close future to stay pending until SetClosed")
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("Expected one close request, got %d", len(events))
	}
	se := events[0].(*api.StateEvent)
	if se.State != api.StateOpen || se.Value != any(false) {
		t.Errorf("Expected open=false request, got %v", se)
	}
	if se.Promise.Succeed() || se.Promise.Fail(fmt.Errorf("nope")) {
		t.Errorf("Expected guarded promise to ignore public completion")
	}

	id := c.ID()
	freedAtNotify := false
	c.CloseFuture().AddListener(func(api.Future) {
		_, ok := Find(id)
		freedAtNotify = !ok
	})

	if !c.SetClosed() {
		t.Fatalf("Expected SetClosed to perform the transition")
	}
	if c.SetClosed() {
		t.Errorf("Expected second SetClosed to report false")
	}
	if !f.IsDone() || !f.IsSuccess() {
		t.Errorf("Expected armed close future to be successful")
	}
	if !freedAtNotify {
		t.Errorf("Expected identity to be released before listeners ran")
	}
	if c.IsOpen() {
		t.Errorf("Expected closed channel to report not open")
	}
	if f2 := c.Close(); f2 != c.CloseFuture() || !f2.IsDone() {
		t.Errorf("Expected repeated Close to return the resolved close future")
	}
}

func TestSucceededFutureIsShared(t *testing.T) {
	c := newTestChannel(t, nil, &api.MockSink{})
	defer c.SetClosed()

	a := SucceededFuture(c)
	b := SucceededFuture(c)
	if a != b {
		t.Errorf("Expected the shared succeeded future to be reused")
	}
	if !a.IsDone() || !a.IsSuccess() {
		t.Errorf("Expected shared future to be resolved")
	}
}

func TestStringRendering(t *testing.T) {
	c := newTestChannel(t, nil, &api.MockSink{})
	defer c.SetClosed()

	c.local = tcpAddr(8080)
	want := fmt.Sprintf("[id: 0x%s, 127.0.0.1:8080]", c.IDString())
	if got := c.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	c.remote = tcpAddr(9090)
	c.connected.Store(true)
	want = fmt.Sprintf("[id: 0x%s, 127.0.0.1:8080 => 127.0.0.1:9090]", c.IDString())
	if got := c.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if got := c.String(); got != want {
		t.Errorf("Expected cached rendering to be stable, got %q", got)
	}

	c.connected.Store(false)
	if got := c.String(); !strings.Contains(got, " :> ") {
		t.Errorf("Expected disconnected separator, got %q", got)
	}
}

func TestStringShowsRemoteFirstForChildren(t *testing.T) {
	parent := newTestChannel(t, nil, &api.MockSink{})
	defer parent.SetClosed()

	child := &testChannel{local: tcpAddr(80), remote: tcpAddr(5555)}
	b, err := NewBase(child, parent, nil, pipeline.New(), &api.MockSink{})
	if err != nil {
		t.Fatalf("NewBase: %v", err)
	}
	child.Base = b
	defer child.SetClosed()
	child.connected.Store(true)

	want := fmt.Sprintf("[id: 0x%s, 127.0.0.1:5555 => 127.0.0.1:80]", child.IDString())
	if got := child.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if child.Parent() != api.Channel(parent) {
		t.Errorf("Expected parent wiring")
	}
}

func TestIDStringPadsToEightHexDigits(t *testing.T) {
	c := newTestChannel(t, nil, &api.MockSink{})
	defer c.SetClosed()
	if got := len(c.IDString()); got != 8 {
		t.Errorf("Expected 8 hex digits, got %d (%q)", got, c.IDString())
	}
}
