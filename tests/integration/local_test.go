// File: tests/integration/local_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/pipeline"
	"github.com/momentics/chanio/transport/local"
)

func TestLocalPairsPingPongConcurrently(t *testing.T) {
	const pairs = 16

	serverFactory := local.NewServerFactory()
	t.Cleanup(func() { serverFactory.Release() })
	clientFactory := local.NewClientFactory()
	t.Cleanup(func() { clientFactory.Release() })

	server, err := serverFactory.NewChannel(pipeline.New())
	require.NoError(t, err)
	server.Config().SetPipelineFactory(func() (api.Pipeline, error) {
		return pipeline.NewWith(&pipeline.SimpleUpstream{
			OnMessage: func(ctx api.HandlerContext, ev *api.MessageEvent) error {
				ctx.Channel().Write("pong:" + ev.Message.(string))
				return nil
			},
		})
	})

	addr := local.NewAddr("integration-pingpong")
	require.NoError(t, server.Bind(addr).Await(context.Background()))

	var g errgroup.Group
	for i := 0; i < pairs; i++ {
		i := i
		g.Go(func() error {
			replies := make(chan string, 1)
			p, err := pipeline.NewWith(&pipeline.SimpleUpstream{
				OnMessage: func(ctx api.HandlerContext, ev *api.MessageEvent) error {
					replies <- ev.Message.(string)
					return nil
				},
			})
			if err != nil {
				return err
			}
			ch, err := clientFactory.NewChannel(p)
			if err != nil {
				return err
			}
			defer ch.Close()

			if err := ch.Connect(addr).Await(context.Background()); err != nil {
				return fmt.Errorf("connect %d: %w", i, err)
			}
			ping := fmt.Sprintf("ping-%d", i)
			if err := ch.Write(ping).Await(context.Background()); err != nil {
				return fmt.Errorf("write %d: %w", i, err)
			}

			// Delivery is synchronous, so the reply is already here.
			select {
			case got := <-replies:
				if got != "pong:"+ping {
					return fmt.Errorf("pair %d: got %q", i, got)
				}
			default:
				return fmt.Errorf("pair %d: no reply after write", i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(pairs), clientFactory.Metrics().Counter("local.connected"))
}

func TestFactoriesCanShareOneMetricsRegistry(t *testing.T) {
	// One registry can serve several factories; keys stay distinct per
	// transport prefix.
	serverFactory := local.NewServerFactory()
	t.Cleanup(func() { serverFactory.Release() })
	clientFactory := local.NewClientFactory(local.WithMetrics(serverFactory.Metrics()))
	t.Cleanup(func() { clientFactory.Release() })

	server, err := serverFactory.NewChannel(pipeline.New())
	require.NoError(t, err)
	server.Config().SetPipelineFactory(func() (api.Pipeline, error) {
		return pipeline.New(), nil
	})
	addr := local.EphemeralAddr()
	require.NoError(t, server.Bind(addr).Await(context.Background()))

	ch, err := clientFactory.NewChannel(pipeline.New())
	require.NoError(t, err)
	require.NoError(t, ch.Connect(addr).Await(context.Background()))
	require.NoError(t, ch.Write("one").Await(context.Background()))
	awaited := ch.Close()
	require.NoError(t, awaited.Await(context.Background()))

	snap := serverFactory.Metrics().GetSnapshot()
	assert.Contains(t, snap, "local.connected")
	assert.Contains(t, snap, "local.delivered")
	assert.Contains(t, snap, "local.closed")
}
