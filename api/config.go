// File: api/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Configuration and factory contracts. Config is the narrow surface a
// transport sink consumes at bind and accept time; Factory creates
// channels for one transport flavor.

package api

// Config exposes the per-channel settings a transport consults. Dynamic
// options ride a string-keyed store so transports can add knobs without
// widening the interface.
type Config interface {
	// PipelineFactory returns the factory used to build a fresh pipeline
	// for every child channel. Listening channels require it before bind.
	PipelineFactory() PipelineFactory

	// SetPipelineFactory installs the child pipeline factory.
	SetPipelineFactory(f PipelineFactory)

	// Backlog returns the accept backlog requested at bind time. Zero picks
	// the transport default. Meaningless on non-listening channels.
	Backlog() int

	// Option returns a dynamic option by name.
	Option(name string) (any, bool)

	// SetOption sets one dynamic option. Unknown names are stored verbatim
	// so handlers can piggyback their own settings.
	SetOption(name string, value any) error

	// SetOptions applies a batch of dynamic options. Valid values apply
	// even when others are rejected; the rejections come back combined
	// into one error.
	SetOptions(opts map[string]any) error
}

// Factory creates channels of one transport flavor. Implementations own
// whatever background resources their channels share and release them in
// Release.
type Factory interface {
	// NewChannel creates a fresh channel wired to the given pipeline. The
	// pipeline must not be attached yet.
	NewChannel(p Pipeline) (Channel, error)

	// Release closes every channel the factory still tracks and frees
	// shared resources. The factory is unusable afterwards; NewChannel
	// returns ErrFactoryReleased.
	Release() error
}
