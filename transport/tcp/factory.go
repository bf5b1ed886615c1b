// File: transport/tcp/factory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
	"github.com/momentics/chanio/control"
	"github.com/momentics/chanio/internal/spawn"
)

// factoryCore carries the runtime shared by both factory flavors: the
// goroutine supervisor, metric counters, debug probes and the clock
// behind accept backoff.
type factoryCore struct {
	supervisor *spawn.Supervisor
	metrics    *control.MetricsRegistry
	probes     *control.DebugProbes
	clock      clock.Clock

	released atomic.Bool

	mu      sync.Mutex
	tracked map[int32]api.Channel
}

// FactoryOption tunes a factory at construction time.
type FactoryOption func(*factoryCore)

// WithClock substitutes the clock behind accept backoff. Tests pass a
// mock so a backoff does not slow them down; socket deadlines always use
// real time.
func WithClock(c clock.Clock) FactoryOption {
	return func(fc *factoryCore) { fc.clock = c }
}

// WithMetrics shares one metrics registry across factories.
func WithMetrics(m *control.MetricsRegistry) FactoryOption {
	return func(fc *factoryCore) { fc.metrics = m }
}

func newFactoryCore(opts ...FactoryOption) *factoryCore {
	fc := &factoryCore{
		supervisor: spawn.NewSupervisor(),
		metrics:    control.NewMetricsRegistry(),
		probes:     control.NewDebugProbes(),
		clock:      clock.New(),
		tracked:    make(map[int32]api.Channel),
	}
	for _, opt := range opts {
		opt(fc)
	}
	control.RegisterPlatformProbes(fc.probes)
	fc.probes.RegisterProbe("channels.open", func() any { return channel.OpenCount() })
	fc.probes.RegisterProbe("goroutines.live", func() any { return fc.supervisor.Live() })
	return fc
}

// Probes exposes the factory's debug probes.
func (fc *factoryCore) Probes() *control.DebugProbes { return fc.probes }

// Metrics exposes the factory's counters.
func (fc *factoryCore) Metrics() *control.MetricsRegistry { return fc.metrics }

// track remembers a live channel until its close future resolves, so
// Release can tear down whatever is still open. A channel arriving after
// Release snapshotted the map is closed on the spot instead of tracked,
// or its reader would outlive the supervisor drain.
func (fc *factoryCore) track(ch api.Channel) {
	id := ch.ID()
	fc.mu.Lock()
	if fc.released.Load() {
		fc.mu.Unlock()
		ch.Close()
		return
	}
	fc.tracked[id] = ch
	fc.mu.Unlock()
	ch.CloseFuture().AddListener(func(api.Future) {
		fc.mu.Lock()
		delete(fc.tracked, id)
		fc.mu.Unlock()
	})
}

func (fc *factoryCore) release() error {
	if !fc.released.CompareAndSwap(false, true) {
		return nil
	}
	fc.mu.Lock()
	open := make([]api.Channel, 0, len(fc.tracked))
	for _, ch := range fc.tracked {
		open = append(open, ch)
	}
	fc.mu.Unlock()

	var err error
	for _, ch := range open {
		if cause := ch.Close().Await(context.Background()); cause != nil {
			err = multierr.Append(err, cause)
		}
	}
	fc.supervisor.Close()
	return err
}

// ServerFactory builds listening channels served by a blocking accept
// loop. One factory may serve any number of listeners; they share its
// supervisor and counters.
type ServerFactory struct {
	*factoryCore
	sink *serverSink
}

var _ api.Factory = (*ServerFactory)(nil)

func NewServerFactory(opts ...FactoryOption) *ServerFactory {
	f := &ServerFactory{factoryCore: newFactoryCore(opts...)}
	f.sink = &serverSink{factory: f}
	return f
}

// NewChannel implements api.Factory. The channel starts open and
// unbound; bind it to start accepting.
func (f *ServerFactory) NewChannel(p api.Pipeline) (api.Channel, error) {
	if f.released.Load() {
		return nil, api.ErrFactoryReleased
	}
	ch, err := newServerChannel(f, p, f.sink, NewServerConfig())
	if err != nil {
		return nil, err
	}
	f.metrics.Inc("tcp.server.channels", 1)
	f.track(ch)
	return ch, nil
}

// Release implements api.Factory. It closes every channel the factory
// still tracks, waits for their goroutines and reports the close
// failures combined into one error.
func (f *ServerFactory) Release() error { return f.release() }

// ClientFactory builds outbound channels, one blocking reader per
// connection.
type ClientFactory struct {
	*factoryCore
	sink *clientSink
}

var _ api.Factory = (*ClientFactory)(nil)

func NewClientFactory(opts ...FactoryOption) *ClientFactory {
	f := &ClientFactory{factoryCore: newFactoryCore(opts...)}
	f.sink = &clientSink{factory: f}
	return f
}

// NewChannel implements api.Factory. The channel starts open and
// unconnected; connect it to dial out.
func (f *ClientFactory) NewChannel(p api.Pipeline) (api.Channel, error) {
	if f.released.Load() {
		return nil, api.ErrFactoryReleased
	}
	ch, err := newClientChannel(f, p, f.sink, NewClientConfig())
	if err != nil {
		return nil, err
	}
	f.metrics.Inc("tcp.client.channels", 1)
	f.track(ch)
	return ch, nil
}

// Release implements api.Factory.
func (f *ClientFactory) Release() error { return f.release() }
