// Package tcp
// Author: momentics <momentics@gmail.com>
//
// Blocking TCP transport. Every listening channel runs one acceptor
// goroutine that owns the listener for the channel's whole bound life;
// every connection runs one reader goroutine that parks while OpRead is
// cleared. Writes happen on the caller's goroutine, serialized per
// channel.
//
// On Linux the listener is built from a raw socket so the configured
// accept backlog actually reaches listen(2); elsewhere the portable
// net.ListenConfig path is used and the kernel default applies.

package tcp
