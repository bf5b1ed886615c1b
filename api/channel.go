// File: api/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Core channel contract: an open connection or a listening socket with an
// integer identity, an attached pipeline, and future-returning operations.
// Transports implement the contract; application code programs against it.

package api

import (
	"fmt"
	"net"
)

// InterestOps is the I/O interest bitmask of a Channel.
type InterestOps int32

const (
	// OpNone carries no interest bits.
	OpNone InterestOps = 0
	// OpRead keeps the transport's read path active. Clearing it suspends
	// inbound traffic until it is set again.
	OpRead InterestOps = 1 << 0
	// OpWrite suppresses writability. The polarity is inverted on purpose:
	// a channel is writable while OpWrite is NOT set, so a fresh channel is
	// writable by default. The bit belongs to the transport; attempts to
	// flip it through Channel.SetInterestOps are ignored.
	OpWrite InterestOps = 1 << 2
)

// Readable reports whether the read bit is set.
func (ops InterestOps) Readable() bool { return ops&OpRead != 0 }

// Writable reports whether the write-suppression bit is clear.
func (ops InterestOps) Writable() bool { return ops&OpWrite == 0 }

// Channel is an open connection or a listening socket bound to a transport.
//
// Every I/O operation is asynchronous: it enqueues a downstream event into
// the channel's pipeline and returns a Future that the transport sink
// completes once the real I/O resolves. Callers that need blocking behavior
// Await the returned future.
//
// A Channel carries an int32 identity unique among all channels open in the
// process. Identities are reclaimed on close and may be reused by channels
// created later.
type Channel interface {
	fmt.Stringer

	// ID returns the channel identity, unique while the channel is open.
	ID() int32

	// Parent returns the channel that gave birth to this one (the
	// listening channel for accepted connections), or nil.
	Parent() Channel

	// Factory returns the factory which created this channel.
	Factory() Factory

	// Pipeline returns the pipeline attached to this channel.
	Pipeline() Pipeline

	// Config returns the channel configuration.
	Config() Config

	// IsOpen reports whether the channel has not been closed yet.
	IsOpen() bool

	// IsBound reports whether the channel is bound to a local address.
	IsBound() bool

	// IsConnected reports whether the channel is connected to a remote peer.
	IsConnected() bool

	// LocalAddr returns the bound local address, or nil.
	LocalAddr() net.Addr

	// RemoteAddr returns the connected remote address, or nil.
	RemoteAddr() net.Addr

	// InterestOps returns the current interest bitmask.
	InterestOps() InterestOps

	// IsReadable reports whether the read bit is currently set.
	IsReadable() bool

	// IsWritable reports whether writes would be accepted immediately.
	IsWritable() bool

	// Bind asks the transport to bind the channel to the given local address.
	Bind(addr net.Addr) Future

	// Unbind releases the local address. For a listening channel this closes
	// the listener.
	Unbind() Future

	// Connect asks the transport to connect the channel to a remote address.
	Connect(addr net.Addr) Future

	// Disconnect drops the remote peer while keeping the channel open where
	// the transport supports it. Connection-oriented transports close.
	Disconnect() Future

	// Close tears the channel down. Closing an already closed channel is a
	// no-op that returns the same completed close future.
	Close() Future

	// Write sends a message to the connected peer.
	Write(msg any) Future

	// WriteTo sends a message to an explicit address on transports that
	// support addressed writes. Others fail the future with ErrNotSupported.
	WriteTo(msg any, addr net.Addr) Future

	// SetInterestOps requests a new interest bitmask. The OpWrite bit is
	// preserved from the current state regardless of the argument.
	SetInterestOps(ops InterestOps) Future

	// SetReadable sets or clears OpRead, a convenience over SetInterestOps.
	SetReadable(readable bool) Future

	// CloseFuture returns the future that completes when the channel is
	// fully closed. It always succeeds, never fails and cannot be completed
	// from outside the channel: Succeed and Fail on it are silent no-ops.
	CloseFuture() Future

	// Attachment returns the opaque value stashed on the channel, or nil.
	Attachment() any

	// SetAttachment stashes an opaque value on the channel.
	SetAttachment(v any)
}
