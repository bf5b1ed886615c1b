// File: internal/registry/registry_test.go
// Author: momentics <momentics@gmail.com>
//
// Unit tests for identity allocation, release and collision handling.

package registry

import (
	"sync"
	"testing"

	"github.com/momentics/chanio/api"
)

// stubChannel satisfies api.Channel without implementing any behavior.
// The registry never calls into its channels.
type stubChannel struct {
	api.Channel
}

func TestAcquireAssignsDistinctIDs(t *testing.T) {
	r := New(4)
	seen := make(map[int32]bool)
	for i := 0; i < 1000; i++ {
		id := r.Acquire(&stubChannel{})
		if id == 0 {
			t.Fatalf("Expected non-zero id, got 0 at iteration %d", i)
		}
		if seen[id] {
			t.Fatalf("Expected distinct ids, got duplicate %d", id)
		}
		seen[id] = true
	}
	if got := r.Len(); got != 1000 {
		t.Errorf("Expected 1000 registered channels, got %d", got)
	}
}

func TestLookupAndRelease(t *testing.T) {
	r := New(0)
	ch := &stubChannel{}
	id := r.Acquire(ch)

	got, ok := r.Lookup(id)
	if !ok {
		t.Fatalf("Expected Lookup to find id %d", id)
	}
	if got != ch {
		t.Errorf("Expected Lookup to return the registered channel")
	}

	if !r.Release(id) {
		t.Errorf("Expected first Release to report true")
	}
	if r.Release(id) {
		t.Errorf("Expected second Release to report false")
	}
	if _, ok := r.Lookup(id); ok {
		t.Errorf("Expected Lookup to miss after Release")
	}
	if got := r.Len(); got != 0 {
		t.Errorf("Expected empty registry, got %d entries", got)
	}
}

func TestAcquireSkipsZeroOnWraparound(t *testing.T) {
	r := New(2)
	r.next.Store(-1)
	id := r.Acquire(&stubChannel{})
	if id == 0 {
		t.Fatalf("Expected wraparound to skip id 0")
	}
	if id != 1 {
		t.Errorf("Expected id 1 after wraparound, got %d", id)
	}
}

func TestAcquireAdvancesPastCollision(t *testing.T) {
	r := New(2)
	taken := r.Acquire(&stubChannel{})

	// Force the next candidate onto the taken identity.
	r.next.Store(taken - 1)
	id := r.Acquire(&stubChannel{})
	if id == taken {
		t.Fatalf("Expected collision with id %d to advance, got the same id", taken)
	}
	if _, ok := r.Lookup(id); !ok {
		t.Errorf("Expected advanced id %d to be registered", id)
	}
}

func TestReleasedIdentityIsReusable(t *testing.T) {
	r := New(2)
	id := r.Acquire(&stubChannel{})
	r.Release(id)

	r.next.Store(id - 1)
	again := r.Acquire(&stubChannel{})
	if again != id {
		t.Errorf("Expected released id %d to be handed out again, got %d", id, again)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	const goroutines = 16
	const perGoroutine = 200

	r := New(8)
	ids := make(chan int32, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				ids <- r.Acquire(&stubChannel{})
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int32]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("Expected unique ids under contention, got duplicate %d", id)
		}
		seen[id] = true
	}
	if got := r.Len(); got != goroutines*perGoroutine {
		t.Errorf("Expected %d registered channels, got %d", goroutines*perGoroutine, got)
	}
}

func TestRangeVisitsAllChannels(t *testing.T) {
	r := New(4)
	for i := 0; i < 50; i++ {
		r.Acquire(&stubChannel{})
	}
	count := 0
	r.Range(func(api.Channel) { count++ })
	if count != 50 {
		t.Errorf("Expected Range to visit 50 channels, got %d", count)
	}
}

func BenchmarkAcquireRelease(b *testing.B) {
	r := New(32)
	ch := &stubChannel{}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			r.Release(r.Acquire(ch))
		}
	})
}
