//go:build linux
// +build linux

// File: transport/tcp/listen_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw listener construction. The portable net package ignores the listen
// backlog, so the socket is built by hand and handed back through
// net.FileListener once listen(2) ran with the configured depth.

package tcp

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/momentics/chanio/api"
)

// listen opens a TCP listener on addr with the given accept backlog.
// Zero backlog picks the transport default.
func listen(addr net.Addr, backlog int) (net.Listener, error) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("listen %v: %w: want *net.TCPAddr, got %T", addr, api.ErrInvalidArgument, addr)
	}
	if backlog <= 0 {
		backlog = defaultBacklog
	}

	family := unix.AF_INET
	ip := tcpAddr.IP
	if ip != nil && ip.To4() == nil {
		family = unix.AF_INET6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}

	var sa unix.Sockaddr
	if family == unix.AF_INET {
		sa4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		if ip4 := ip.To4(); ip4 != nil {
			copy(sa4.Addr[:], ip4)
		}
		sa = sa4
	} else {
		sa6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], ip.To16())
		sa = sa6
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	// FileListener dups the descriptor and registers it with the poller.
	f := os.NewFile(uintptr(fd), "tcp-listener")
	ln, err := net.FileListener(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	return ln, nil
}
