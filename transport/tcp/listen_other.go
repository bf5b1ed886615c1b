//go:build !linux
// +build !linux

// File: transport/tcp/listen_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable listener construction. The requested backlog cannot reach
// listen(2) through the net package, so the kernel default applies.

package tcp

import (
	"context"
	"fmt"
	"net"

	"github.com/momentics/chanio/api"
)

// listen opens a TCP listener on addr. The backlog argument is accepted
// for interface parity and ignored by the portable path.
func listen(addr net.Addr, backlog int) (net.Listener, error) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("listen %v: %w: want *net.TCPAddr, got %T", addr, api.ErrInvalidArgument, addr)
	}
	_ = backlog
	var lc net.ListenConfig
	return lc.Listen(context.Background(), "tcp", tcpAddr.String())
}
