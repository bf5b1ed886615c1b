// File: transport/local/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package local

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/control"
)

const optionPipelineFactory = "pipeline.factory"

// Config carries the handful of settings a threadless transport needs.
// Unknown options are stored verbatim for handlers to piggyback on.
type Config struct {
	store *control.ConfigStore
}

var _ api.Config = (*Config)(nil)

func NewConfig() *Config {
	return &Config{store: control.NewConfigStore()}
}

// Store exposes the backing config store for reload hooks.
func (c *Config) Store() *control.ConfigStore { return c.store }

// PipelineFactory implements api.Config.
func (c *Config) PipelineFactory() api.PipelineFactory {
	v, ok := c.store.Get(optionPipelineFactory)
	if !ok {
		return nil
	}
	pf, _ := v.(api.PipelineFactory)
	return pf
}

// SetPipelineFactory implements api.Config.
func (c *Config) SetPipelineFactory(f api.PipelineFactory) {
	c.store.Set(optionPipelineFactory, f)
}

// Backlog implements api.Config; connects never queue here.
func (c *Config) Backlog() int { return 0 }

// Option implements api.Config.
func (c *Config) Option(name string) (any, bool) {
	return c.store.Get(name)
}

// SetOption implements api.Config.
func (c *Config) SetOption(name string, value any) error {
	if name == optionPipelineFactory {
		if _, ok := value.(api.PipelineFactory); !ok {
			return fmt.Errorf("option %q: %w: want api.PipelineFactory, got %T", name, api.ErrInvalidArgument, value)
		}
	}
	c.store.Set(name, value)
	return nil
}

// SetOptions implements api.Config. Valid values apply even when others
// are rejected; rejections come back as one combined error.
func (c *Config) SetOptions(opts map[string]any) error {
	var err error
	for name, value := range opts {
		err = multierr.Append(err, c.SetOption(name, value))
	}
	return err
}
