// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime control plane for chanio transports: dynamic configuration,
// metrics counters and debug introspection.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic merges
//   - Reload observers notified on config changes
//   - Counter and gauge telemetry for transport internals
//   - State export and debug probe registration
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
