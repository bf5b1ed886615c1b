// File: internal/spawn/supervisor_test.go
// Author: momentics <momentics@gmail.com>
//
// Unit tests for supervised goroutine spawning.

package spawn

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoRunsFunction(t *testing.T) {
	s := NewSupervisor()
	done := make(chan struct{})
	if err := s.Go("probe", func() { close(done) }); err != nil {
		t.Fatalf("Expected spawn to succeed, got %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Expected spawned function to run")
	}
	s.Close()
	if got := s.Live(); got != 0 {
		t.Errorf("Expected 0 live goroutines after Close, got %d", got)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	var recovered atomic.Value
	notified := make(chan struct{})
	s := NewSupervisor(WithPanicHandler(func(name string, r any) {
		recovered.Store(name)
		close(notified)
	}))

	if err := s.Go("faulty", func() { panic("boom") }); err != nil {
		t.Fatalf("Expected spawn to succeed, got %v", err)
	}
	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatalf("Expected panic handler to fire")
	}
	if got := recovered.Load(); got != "faulty" {
		t.Errorf("Expected panic handler to see name %q, got %v", "faulty", got)
	}
	s.Close()
}

func TestGoAfterCloseFails(t *testing.T) {
	s := NewSupervisor()
	s.Close()
	if err := s.Go("late", func() {}); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestCloseWaitsForGoroutines(t *testing.T) {
	s := NewSupervisor()
	release := make(chan struct{})
	var finished atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		err := s.Go("loop", func() {
			defer wg.Done()
			<-release
			finished.Store(true)
		})
		if err != nil {
			t.Fatalf("Expected spawn to succeed, got %v", err)
		}
	}

	if got := s.Live(); got != 8 {
		t.Errorf("Expected 8 live goroutines, got %d", got)
	}
	close(release)
	s.Close()
	wg.Wait()
	if !finished.Load() {
		t.Errorf("Expected Close to return only after goroutines finished")
	}
	if got := s.Started(); got != 8 {
		t.Errorf("Expected 8 started goroutines, got %d", got)
	}
}
