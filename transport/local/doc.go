// File: transport/local/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package local is an in-process transport. A server channel binds a
// name in a process-wide table; connecting to that name creates a pair
// of channels whose writes surface directly in the peer's pipeline, on
// the writer's goroutine. No sockets, no reader goroutines.
//
// Messages written while the receiver has reads suspended queue up and
// replay in order once reads resume. The transport is mainly useful for
// wiring tests and same-process plumbing without touching the network.
package local
