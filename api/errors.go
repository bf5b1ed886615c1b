// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values and the structured channel error used across the
// chanio library.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrChannelClosed       = fmt.Errorf("channel is closed")
	ErrNotConnected        = fmt.Errorf("channel is not connected")
	ErrFactoryReleased     = fmt.Errorf("factory is released")
	ErrCancelled           = fmt.Errorf("operation cancelled")
	ErrNotSupported        = fmt.Errorf("operation not supported")
	ErrInvalidArgument     = fmt.Errorf("invalid argument")
	ErrPipelineAttached    = fmt.Errorf("pipeline already attached")
	ErrPipelineNotAttached = fmt.Errorf("pipeline not attached")
	ErrHandlerNotFound     = fmt.Errorf("handler not found")
	ErrHandlerExists       = fmt.Errorf("handler name already in use")
	ErrHandlerUseless      = fmt.Errorf("handler implements neither direction")
	ErrNoPipelineFactory   = fmt.Errorf("no pipeline factory configured")
)

// ChannelError decorates a transport failure with the operation and the
// identity of the channel it happened on.
type ChannelError struct {
	Op  string // "bind", "connect", "write", "accept", ...
	ID  int32  // channel identity, zero when unknown
	Err error
}

// Error implements the error interface.
func (e *ChannelError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s [id: 0x%08x]: %v", e.Op, uint32(e.ID), e.Err)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *ChannelError) Unwrap() error { return e.Err }

// NewChannelError creates a structured channel error.
func NewChannelError(op string, id int32, err error) *ChannelError {
	return &ChannelError{Op: op, ID: id, Err: err}
}
