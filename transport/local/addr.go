// File: transport/local/addr.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package local

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrAddrUnbound is returned by connect when no server channel holds
	// the target name.
	ErrAddrUnbound = fmt.Errorf("local: address not bound")

	// ErrAddrInUse is returned by bind when another server channel
	// already holds the name.
	ErrAddrInUse = fmt.Errorf("local: address already bound")
)

// Addr names an in-process endpoint.
type Addr string

var _ net.Addr = Addr("")

// Network implements net.Addr.
func (a Addr) Network() string { return "local" }

// String implements net.Addr.
func (a Addr) String() string { return string(a) }

// NewAddr returns the address for a well-known name.
func NewAddr(name string) Addr { return Addr("local:" + name) }

// EphemeralAddr returns a throwaway address that will not collide with
// any other, named or ephemeral.
func EphemeralAddr() Addr { return Addr("local:ephemeral-" + uuid.NewString()) }

// bindings is the process-wide name table. Every bound server channel
// lives here until it closes.
var bindings = struct {
	mu sync.RWMutex
	m  map[string]*ServerChannel
}{m: make(map[string]*ServerChannel)}

func bindName(addr net.Addr, ch *ServerChannel) error {
	key := addr.String()
	bindings.mu.Lock()
	defer bindings.mu.Unlock()
	if _, taken := bindings.m[key]; taken {
		return fmt.Errorf("%w: %s", ErrAddrInUse, key)
	}
	bindings.m[key] = ch
	return nil
}

// unbindName releases a name, but only if ch still holds it; a late
// second close must not evict whoever rebound the name since.
func unbindName(addr net.Addr, ch *ServerChannel) {
	key := addr.String()
	bindings.mu.Lock()
	if bindings.m[key] == ch {
		delete(bindings.m, key)
	}
	bindings.mu.Unlock()
}

func lookupName(addr net.Addr) *ServerChannel {
	bindings.mu.RLock()
	defer bindings.mu.RUnlock()
	return bindings.m[addr.String()]
}
