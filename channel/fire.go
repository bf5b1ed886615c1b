// File: channel/fire.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Upstream event emitters. Transports call these to announce what
// happened on the wire; each builds the matching event and sends it up
// the channel's pipeline. State announcements reuse the channel's shared
// succeeded future since nobody resolves them.

package channel

import (
	"net"

	"github.com/momentics/chanio/api"
)

// succeededPromise fetches the channel's shared resolved promise, falling
// back to a fresh one for foreign channel implementations.
func succeededPromise(ch api.Channel) api.Promise {
	if s, ok := ch.(interface{ SucceededFuture() api.Promise }); ok {
		return s.SucceededFuture()
	}
	p := newPromise(ch, false)
	p.Succeed()
	return p
}

func fireState(ch api.Channel, state api.ChannelState, value any) {
	ch.Pipeline().SendUpstream(&api.StateEvent{
		Ch:      ch,
		Promise: succeededPromise(ch),
		State:   state,
		Value:   value,
	})
}

// FireChannelOpen announces a freshly created channel.
func FireChannelOpen(ch api.Channel) {
	fireState(ch, api.StateOpen, true)
}

// FireChannelBound announces that ch got bound to addr.
func FireChannelBound(ch api.Channel, addr net.Addr) {
	fireState(ch, api.StateBound, addr)
}

// FireChannelConnected announces that ch got connected to addr.
func FireChannelConnected(ch api.Channel, addr net.Addr) {
	fireState(ch, api.StateConnected, addr)
}

// FireChannelInterestChanged announces that the interest ops of ch
// changed to their current value.
func FireChannelInterestChanged(ch api.Channel) {
	fireState(ch, api.StateInterestOps, ch.InterestOps())
}

// FireChannelDisconnected announces that ch lost its remote peer.
func FireChannelDisconnected(ch api.Channel) {
	fireState(ch, api.StateConnected, nil)
}

// FireChannelUnbound announces that ch released its local address.
func FireChannelUnbound(ch api.Channel) {
	fireState(ch, api.StateBound, nil)
}

// FireChannelClosed announces the end of ch's life. Transports mark the
// channel closed first; this only tells the handlers.
func FireChannelClosed(ch api.Channel) {
	fireState(ch, api.StateOpen, false)
}

// FireMessageReceived hands an inbound message to the handlers.
func FireMessageReceived(ch api.Channel, msg any) {
	FireMessageReceivedFrom(ch, msg, nil)
}

// FireMessageReceivedFrom hands an inbound message to the handlers along
// with the sender address on transports that know it.
func FireMessageReceivedFrom(ch api.Channel, msg any, remote net.Addr) {
	ch.Pipeline().SendUpstream(&api.MessageEvent{
		Ch:      ch,
		Promise: succeededPromise(ch),
		Message: msg,
		Remote:  remote,
	})
}

// FireWriteComplete announces written bytes. Zero-length completions are
// swallowed.
func FireWriteComplete(ch api.Channel, written int64) {
	if written == 0 {
		return
	}
	ch.Pipeline().SendUpstream(&api.WriteCompletionEvent{Ch: ch, Written: written})
}

// FireExceptionCaught hands a transport or handler error to the handlers.
func FireExceptionCaught(ch api.Channel, cause error) {
	ch.Pipeline().SendUpstream(&api.ExceptionEvent{Ch: ch, Cause: cause})
}
