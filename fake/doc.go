// File: fake/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package fake provides predictable doubles for pipeline and transport
// tests: a recording Sink that stands in for a transport, collecting
// handlers that stand in for an application, and a Discard sink for
// cases where only future resolution matters.
//
// All doubles are safe for concurrent use and resolve event futures the
// way a well-behaved transport would, so code under test never blocks
// on an Await.
package fake
