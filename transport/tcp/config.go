// File: transport/tcp/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel configuration backed by the control-plane config store, so
// acceptor timing and buffer sizes can be retuned while channels run.

package tcp

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/control"
)

// Option keys understood by this transport. Unknown keys are stored
// verbatim for handlers to piggyback on.
const (
	OptionBacklog        = "backlog"         // int
	OptionAcceptTimeout  = "accept.timeout"  // time.Duration
	OptionAcceptBackoff  = "accept.backoff"  // time.Duration
	OptionConnectTimeout = "connect.timeout" // time.Duration
	OptionReadPoll       = "read.poll"       // time.Duration
	OptionReadBuffer     = "read.buffer"     // int
)

const (
	defaultBacklog        = 128
	defaultAcceptTimeout  = time.Second
	defaultAcceptBackoff  = time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultReadPoll       = time.Second
	defaultReadBuffer     = 8192
)

// baseConfig implements the api.Config plumbing shared by the server and
// client variants.
type baseConfig struct {
	store *control.ConfigStore
}

// The pipeline factory changes rarely; it rides the store like any other
// option so reload listeners see it too.
const optionPipelineFactory = "pipeline.factory"

func newBaseConfig(store *control.ConfigStore) baseConfig {
	if store == nil {
		store = control.NewConfigStore()
	}
	return baseConfig{store: store}
}

// Store exposes the backing config store for reload hooks and batch
// snapshots.
func (c *baseConfig) Store() *control.ConfigStore { return c.store }

// PipelineFactory implements api.Config.
func (c *baseConfig) PipelineFactory() api.PipelineFactory {
	v, ok := c.store.Get(optionPipelineFactory)
	if !ok {
		return nil
	}
	pf, _ := v.(api.PipelineFactory)
	return pf
}

// SetPipelineFactory implements api.Config.
func (c *baseConfig) SetPipelineFactory(f api.PipelineFactory) {
	c.store.Set(optionPipelineFactory, f)
}

// Option implements api.Config.
func (c *baseConfig) Option(name string) (any, bool) {
	return c.store.Get(name)
}

// SetOption implements api.Config.
func (c *baseConfig) SetOption(name string, value any) error {
	if err := validateOption(name, value); err != nil {
		return err
	}
	c.store.Set(name, value)
	return nil
}

// SetOptions implements api.Config. Valid values apply even when others
// are rejected; rejections come back as one combined error.
func (c *baseConfig) SetOptions(opts map[string]any) error {
	var err error
	for name, value := range opts {
		err = multierr.Append(err, c.SetOption(name, value))
	}
	return err
}

func validateOption(name string, value any) error {
	switch name {
	case OptionBacklog, OptionReadBuffer:
		if _, ok := value.(int); !ok {
			return fmt.Errorf("option %q: %w: want int, got %T", name, api.ErrInvalidArgument, value)
		}
	case OptionAcceptTimeout, OptionAcceptBackoff, OptionConnectTimeout, OptionReadPoll:
		if _, ok := value.(time.Duration); !ok {
			return fmt.Errorf("option %q: %w: want time.Duration, got %T", name, api.ErrInvalidArgument, value)
		}
	case optionPipelineFactory:
		if _, ok := value.(api.PipelineFactory); !ok {
			return fmt.Errorf("option %q: %w: want api.PipelineFactory, got %T", name, api.ErrInvalidArgument, value)
		}
	}
	return nil
}

func (c *baseConfig) durationOption(name string, def time.Duration) time.Duration {
	if v, ok := c.store.Get(name); ok {
		if d, ok := v.(time.Duration); ok && d > 0 {
			return d
		}
	}
	return def
}

func (c *baseConfig) intOption(name string, def int) int {
	if v, ok := c.store.Get(name); ok {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	return def
}

// ServerConfig configures a listening channel and the children it
// accepts.
type ServerConfig struct {
	baseConfig
}

var _ api.Config = (*ServerConfig)(nil)

// NewServerConfig creates a server config with default settings on a
// fresh store.
func NewServerConfig() *ServerConfig {
	return &ServerConfig{baseConfig: newBaseConfig(nil)}
}

// Backlog implements api.Config. Zero means "transport default".
func (c *ServerConfig) Backlog() int {
	return c.intOption(OptionBacklog, 0)
}

// AcceptTimeout returns how long one Accept may block before the
// acceptor re-checks the bound state.
func (c *ServerConfig) AcceptTimeout() time.Duration {
	return c.durationOption(OptionAcceptTimeout, defaultAcceptTimeout)
}

// AcceptBackoff returns the pause after a transient accept failure.
func (c *ServerConfig) AcceptBackoff() time.Duration {
	return c.durationOption(OptionAcceptBackoff, defaultAcceptBackoff)
}

// ReadPoll returns the read deadline slice for accepted connections.
func (c *ServerConfig) ReadPoll() time.Duration {
	return c.durationOption(OptionReadPoll, defaultReadPoll)
}

// ReadBufferSize returns the per-read buffer size for accepted
// connections.
func (c *ServerConfig) ReadBufferSize() int {
	return c.intOption(OptionReadBuffer, defaultReadBuffer)
}

// ClientConfig configures an outbound connection channel.
type ClientConfig struct {
	baseConfig
}

var _ api.Config = (*ClientConfig)(nil)

// NewClientConfig creates a client config with default settings on a
// fresh store.
func NewClientConfig() *ClientConfig {
	return &ClientConfig{baseConfig: newBaseConfig(nil)}
}

// Backlog implements api.Config; meaningless for outbound channels.
func (c *ClientConfig) Backlog() int { return 0 }

// ConnectTimeout returns the dial timeout.
func (c *ClientConfig) ConnectTimeout() time.Duration {
	return c.durationOption(OptionConnectTimeout, defaultConnectTimeout)
}

// ReadPoll returns the read deadline slice for the connection.
func (c *ClientConfig) ReadPoll() time.Duration {
	return c.durationOption(OptionReadPoll, defaultReadPoll)
}

// ReadBufferSize returns the per-read buffer size.
func (c *ClientConfig) ReadBufferSize() int {
	return c.intOption(OptionReadBuffer, defaultReadBuffer)
}
