// File: channel/future.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Promise implementation behind every asynchronous channel operation.
// A promise resolves exactly once; the first of Succeed, Fail or Cancel
// wins and later attempts are ignored. Listeners registered before
// resolution are drained FIFO on the resolving goroutine.

package channel

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/chanio/api"
)

var errNilCause = fmt.Errorf("future failed with nil cause")

// promise is the single concrete Future/Promise implementation.
type promise struct {
	ch          api.Channel
	cancellable bool

	mu        sync.Mutex
	done      chan struct{}
	completed bool
	cancelled bool
	cause     error
	listeners *queue.Queue // api.FutureListener, lazily allocated
}

var _ api.Promise = (*promise)(nil)

// NewPromise creates an unresolved promise for an operation that cannot
// be cancelled; Cancel on it always reports false.
func NewPromise(ch api.Channel) api.Promise {
	return newPromise(ch, false)
}

// NewCancellablePromise creates an unresolved promise whose operation may
// be cancelled before the transport resolves it.
func NewCancellablePromise(ch api.Channel) api.Promise {
	return newPromise(ch, true)
}

func newPromise(ch api.Channel, cancellable bool) *promise {
	return &promise{
		ch:          ch,
		cancellable: cancellable,
		done:        make(chan struct{}),
	}
}

// SucceededFuture returns an already succeeded future for ch, reusing the
// channel's shared instance when ch exposes one.
func SucceededFuture(ch api.Channel) api.Future {
	return succeededPromise(ch)
}

// FailedFuture returns an already failed future for ch.
func FailedFuture(ch api.Channel, cause error) api.Future {
	p := newPromise(ch, false)
	p.Fail(cause)
	return p
}

// CloseOnFailure is a future listener that closes the channel of any
// future that did not resolve successfully. Transports hang it on connect
// futures so a failed or cancelled dial never leaks a half-open channel.
func CloseOnFailure(f api.Future) {
	if !f.IsSuccess() {
		if ch := f.Channel(); ch != nil {
			ch.Close()
		}
	}
}

// Channel implements api.Future.
func (p *promise) Channel() api.Channel { return p.ch }

// Done implements api.Future.
func (p *promise) Done() <-chan struct{} { return p.done }

// IsDone implements api.Future.
func (p *promise) IsDone() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// IsSuccess implements api.Future.
func (p *promise) IsSuccess() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed && p.cause == nil
}

// IsCancelled implements api.Future.
func (p *promise) IsCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// Cause implements api.Future.
func (p *promise) Cause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cause
}

// Await implements api.Future. A future that already resolved never fails
// the wait, even with an expired context.
func (p *promise) Await(ctx context.Context) error {
	select {
	case <-p.done:
		return p.Cause()
	default:
	}
	select {
	case <-p.done:
		return p.Cause()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddListener implements api.Future.
func (p *promise) AddListener(fn api.FutureListener) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	if !p.completed {
		if p.listeners == nil {
			p.listeners = queue.New()
		}
		p.listeners.Add(fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.notify(fn)
}

// Cancel implements api.Future.
func (p *promise) Cancel() bool {
	if !p.cancellable {
		return false
	}
	return p.complete(api.ErrCancelled, true)
}

// Succeed implements api.Promise.
func (p *promise) Succeed() bool {
	return p.complete(nil, false)
}

// Fail implements api.Promise.
func (p *promise) Fail(cause error) bool {
	if cause == nil {
		cause = errNilCause
	}
	return p.complete(cause, false)
}

// complete performs the one-shot resolution and drains listeners in
// registration order on the calling goroutine.
func (p *promise) complete(cause error, viaCancel bool) bool {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return false
	}
	p.completed = true
	p.cancelled = viaCancel
	p.cause = cause

	var fns []api.FutureListener
	if p.listeners != nil {
		fns = make([]api.FutureListener, 0, p.listeners.Length())
		for p.listeners.Length() > 0 {
			fns = append(fns, p.listeners.Remove().(api.FutureListener))
		}
		p.listeners = nil
	}
	close(p.done)
	p.mu.Unlock()

	for _, fn := range fns {
		p.notify(fn)
	}
	return true
}

// notify shields the resolver from listener panics.
func (p *promise) notify(fn api.FutureListener) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[channel] future listener panic: %v", r)
		}
	}()
	fn(p)
}

// closeFuture is the guarded close future of a channel. Application code
// cannot resolve it: Succeed, Fail and Cancel are silent no-ops. The
// owning channel arms it through setClosed exactly once.
type closeFuture struct {
	*promise
}

func newCloseFuture(ch api.Channel) *closeFuture {
	return &closeFuture{promise: newPromise(ch, false)}
}

// Succeed implements api.Promise as a guarded no-op.
func (f *closeFuture) Succeed() bool { return false }

// Fail implements api.Promise as a guarded no-op.
func (f *closeFuture) Fail(error) bool { return false }

// setClosed performs the privileged resolution.
func (f *closeFuture) setClosed() bool {
	return f.promise.Succeed()
}
