// File: api/future.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One-shot result of an asynchronous channel operation. Future is the
// observer half handed to callers; Promise is the completer half held by
// the party performing the I/O. A future resolves exactly once.

package api

import "context"

// FutureListener is invoked exactly once when the observed future resolves.
// Listeners added after resolution run immediately on the caller's
// goroutine; listeners added before run on the resolving goroutine in
// registration order.
type FutureListener func(f Future)

// Future observes the outcome of an asynchronous channel operation.
type Future interface {
	// Channel returns the channel the operation belongs to.
	Channel() Channel

	// Done returns a channel closed when the future resolves. It is safe to
	// select on alongside other readiness signals.
	Done() <-chan struct{}

	// IsDone reports whether the future has resolved.
	IsDone() bool

	// IsSuccess reports whether the future resolved successfully.
	IsSuccess() bool

	// IsCancelled reports whether the future was cancelled.
	IsCancelled() bool

	// Cause returns the failure of a resolved future: nil on success,
	// ErrCancelled after cancellation, otherwise the I/O error.
	Cause() error

	// Await blocks until the future resolves or ctx expires. It returns
	// ctx.Err() when the wait is cut short, otherwise Cause().
	Await(ctx context.Context) error

	// AddListener registers fn per the FutureListener contract.
	AddListener(fn FutureListener)

	// Cancel tries to resolve the future as cancelled. It reports false if
	// the future already resolved or the operation cannot be cancelled.
	Cancel() bool
}

// Promise is the completer half of a Future. Succeed and Fail report false
// when the future had already resolved; the first resolution wins and later
// attempts change nothing.
type Promise interface {
	Future

	// Succeed resolves the future successfully.
	Succeed() bool

	// Fail resolves the future with the given cause.
	Fail(cause error) bool
}
