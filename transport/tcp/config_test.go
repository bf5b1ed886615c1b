// File: transport/tcp/config_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/pipeline"
)

func TestServerConfigDefaults(t *testing.T) {
	cfg := NewServerConfig()
	if got := cfg.Backlog(); got != 0 {
		t.Errorf("Expected default backlog 0, got %d", got)
	}
	if got := cfg.AcceptTimeout(); got != time.Second {
		t.Errorf("Expected accept timeout 1s, got %v", got)
	}
	if got := cfg.AcceptBackoff(); got != time.Second {
		t.Errorf("Expected accept backoff 1s, got %v", got)
	}
	if got := cfg.ReadPoll(); got != time.Second {
		t.Errorf("Expected read poll 1s, got %v", got)
	}
	if got := cfg.ReadBufferSize(); got != 8192 {
		t.Errorf("Expected read buffer 8192, got %d", got)
	}
}

func TestClientConfigDefaults(t *testing.T) {
	cfg := NewClientConfig()
	if got := cfg.ConnectTimeout(); got != 10*time.Second {
		t.Errorf("Expected connect timeout 10s, got %v", got)
	}
	if got := cfg.Backlog(); got != 0 {
		t.Errorf("Expected backlog 0 on a client config, got %d", got)
	}
}

func TestSetOptionAppliesTypedValues(t *testing.T) {
	cfg := NewServerConfig()
	if err := cfg.SetOption(OptionBacklog, 64); err != nil {
		t.Fatalf("SetOption backlog: %v", err)
	}
	if got := cfg.Backlog(); got != 64 {
		t.Errorf("Expected backlog 64, got %d", got)
	}
	if err := cfg.SetOption(OptionReadPoll, 50*time.Millisecond); err != nil {
		t.Fatalf("SetOption read poll: %v", err)
	}
	if got := cfg.ReadPoll(); got != 50*time.Millisecond {
		t.Errorf("Expected read poll 50ms, got %v", got)
	}
}

func TestSetOptionRejectsWrongType(t *testing.T) {
	cfg := NewServerConfig()
	err := cfg.SetOption(OptionBacklog, "not an int")
	if err == nil {
		t.Fatalf("Expected an error for a string backlog")
	}
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if got := cfg.Backlog(); got != 0 {
		t.Errorf("Rejected option must not apply, got backlog %d", got)
	}
}

func TestSetOptionsKeepsValidRejectsInvalid(t *testing.T) {
	cfg := NewServerConfig()
	err := cfg.SetOptions(map[string]any{
		OptionBacklog:       256,
		OptionAcceptTimeout: "soon",
		OptionReadBuffer:    3.5,
	})
	if err == nil {
		t.Fatalf("Expected a combined error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("Expected 2 rejections, got %d: %v", got, err)
	}
	if got := cfg.Backlog(); got != 256 {
		t.Errorf("Valid option must still apply, got backlog %d", got)
	}
	if got := cfg.AcceptTimeout(); got != time.Second {
		t.Errorf("Rejected option must not apply, got %v", got)
	}
}

func TestUnknownOptionsRideTheStore(t *testing.T) {
	cfg := NewClientConfig()
	if err := cfg.SetOption("app.greeting", "hello"); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	v, ok := cfg.Option("app.greeting")
	if !ok || v != "hello" {
		t.Errorf("Expected stored custom option, got %v (ok=%v)", v, ok)
	}
}

func TestPipelineFactoryOption(t *testing.T) {
	cfg := NewServerConfig()
	if cfg.PipelineFactory() != nil {
		t.Fatalf("Expected no pipeline factory initially")
	}
	cfg.SetPipelineFactory(func() (api.Pipeline, error) { return pipeline.New(), nil })
	if cfg.PipelineFactory() == nil {
		t.Fatalf("Expected the pipeline factory to be set")
	}
	if err := cfg.SetOption(optionPipelineFactory, 42); err == nil {
		t.Errorf("Expected a type error for a non-factory value")
	}
}

func TestConfigReloadListener(t *testing.T) {
	cfg := NewServerConfig()
	fired := make(chan struct{}, 1)
	cfg.Store().OnReload(func() { fired <- struct{}{} })

	cfg.Store().SetConfigSync(map[string]any{OptionReadBuffer: 1024})

	select {
	case <-fired:
	default:
		t.Fatalf("Expected the reload listener to fire")
	}
	if got := cfg.ReadBufferSize(); got != 1024 {
		t.Errorf("Expected read buffer 1024 after reload, got %d", got)
	}
}
