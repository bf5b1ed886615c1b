// File: transport/local/factory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package local

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
	"github.com/momentics/chanio/control"
)

// core is the runtime both factory flavors share. The transport spawns
// no goroutines, so there is far less of it than on the socket side.
type core struct {
	sink    *localSink
	metrics *control.MetricsRegistry

	released atomic.Bool

	mu      sync.Mutex
	tracked map[int32]api.Channel
}

// FactoryOption tunes a factory at construction time.
type FactoryOption func(*core)

// WithMetrics shares one metrics registry across factories.
func WithMetrics(m *control.MetricsRegistry) FactoryOption {
	return func(c *core) { c.metrics = m }
}

func newCore(opts ...FactoryOption) *core {
	c := &core{
		metrics: control.NewMetricsRegistry(),
		tracked: make(map[int32]api.Channel),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sink = &localSink{core: c}
	return c
}

// Metrics exposes the factory's counters.
func (c *core) Metrics() *control.MetricsRegistry { return c.metrics }

// track remembers a live channel until its close future resolves. A
// channel arriving after Release snapshotted the map is closed on the
// spot instead of tracked.
func (c *core) track(ch api.Channel) {
	id := ch.ID()
	c.mu.Lock()
	if c.released.Load() {
		c.mu.Unlock()
		ch.Close()
		return
	}
	c.tracked[id] = ch
	c.mu.Unlock()
	ch.CloseFuture().AddListener(func(api.Future) {
		c.mu.Lock()
		delete(c.tracked, id)
		c.mu.Unlock()
	})
}

func (c *core) release() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	open := make([]api.Channel, 0, len(c.tracked))
	for _, ch := range c.tracked {
		open = append(open, ch)
	}
	c.mu.Unlock()

	var err error
	for _, ch := range open {
		if cause := ch.Close().Await(context.Background()); cause != nil {
			err = multierr.Append(err, cause)
		}
	}
	return err
}

// ServerFactory builds bindable name channels.
type ServerFactory struct {
	*core
}

var _ api.Factory = (*ServerFactory)(nil)

func NewServerFactory(opts ...FactoryOption) *ServerFactory {
	return &ServerFactory{core: newCore(opts...)}
}

// NewChannel implements api.Factory.
func (f *ServerFactory) NewChannel(p api.Pipeline) (api.Channel, error) {
	if f.released.Load() {
		return nil, api.ErrFactoryReleased
	}
	ch, err := newServerChannel(f, p, NewConfig())
	if err != nil {
		return nil, err
	}
	f.track(ch)
	return ch, nil
}

// Release implements api.Factory. It closes every channel the factory
// still tracks and reports the failures combined into one error.
func (f *ServerFactory) Release() error { return f.release() }

// ClientFactory builds connectable endpoint channels.
type ClientFactory struct {
	*core
}

var _ api.Factory = (*ClientFactory)(nil)

func NewClientFactory(opts ...FactoryOption) *ClientFactory {
	return &ClientFactory{core: newCore(opts...)}
}

// NewChannel implements api.Factory.
func (f *ClientFactory) NewChannel(p api.Pipeline) (api.Channel, error) {
	if f.released.Load() {
		return nil, api.ErrFactoryReleased
	}
	ch, err := newChannel(f, nil, p, f.sink, NewConfig())
	if err != nil {
		return nil, err
	}
	channel.FireChannelOpen(ch)
	f.track(ch)
	return ch, nil
}

// Release implements api.Factory.
func (f *ClientFactory) Release() error { return f.release() }
