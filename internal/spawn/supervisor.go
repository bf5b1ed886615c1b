// File: internal/spawn/supervisor.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Supervisor starts the long-lived transport goroutines (acceptor and
// connection loops), recovers their panics and accounts for their
// lifetimes so a factory release can wait for full quiescence.
//

package spawn

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Go after the supervisor has been closed.
var ErrClosed = fmt.Errorf("supervisor is closed")

// PanicHandler is invoked on the failing goroutine when a spawned function
// panics. The default handler logs the panic with a stack trace.
type PanicHandler func(name string, recovered any)

// Supervisor runs named goroutines with panic recovery and lifetime
// accounting.
type Supervisor struct {
	// mu orders spawns against Close: no Add may slip in after the closed
	// transition, or the WaitGroup could be waited on mid-Add.
	mu      sync.RWMutex
	wg      sync.WaitGroup
	live    atomic.Int32
	started atomic.Int64
	closed  atomic.Bool
	onPanic PanicHandler
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithPanicHandler overrides the default panic handler.
func WithPanicHandler(fn PanicHandler) Option {
	return func(s *Supervisor) { s.onPanic = fn }
}

// NewSupervisor creates a supervisor ready to spawn goroutines.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{onPanic: logPanic}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Go starts fn on a fresh goroutine under the supervisor. The name shows
// up in panic logs only; it carries no uniqueness requirement. Go fails
// once the supervisor is closed so late spawns cannot outlive a released
// factory.
func (s *Supervisor) Go(name string, fn func()) error {
	s.mu.RLock()
	if s.closed.Load() {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.wg.Add(1)
	s.mu.RUnlock()
	s.live.Add(1)
	s.started.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.onPanic(name, r)
			}
			s.live.Add(-1)
			s.wg.Done()
		}()
		fn()
	}()
	return nil
}

// Live returns the number of goroutines currently running.
func (s *Supervisor) Live() int {
	return int(s.live.Load())
}

// Started returns the total number of goroutines ever spawned.
func (s *Supervisor) Started() int64 {
	return s.started.Load()
}

// Close rejects further spawns and blocks until every running goroutine
// has exited. Callers must stop the work those goroutines loop on before
// closing, or Close waits forever.
func (s *Supervisor) Close() {
	s.mu.Lock()
	first := s.closed.CompareAndSwap(false, true)
	s.mu.Unlock()
	if first {
		s.wg.Wait()
	}
}

func logPanic(name string, recovered any) {
	log.Printf("[spawn] %s panicked: %v\n%s", name, recovered, debug.Stack())
}
