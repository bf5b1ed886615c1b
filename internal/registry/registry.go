// File: internal/registry/registry.go
// Package registry
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe identity registry. Every open channel in the
// process holds one int32 identity; the registry hands identities out,
// resolves them back to channels and reclaims them on close.

package registry

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/chanio/api"
)

// Registry allocates process-unique channel identities and tracks the
// channel behind each identity for as long as it stays open.
type Registry struct {
	next   atomic.Int32
	shards []*shard
	mask   uint32
}

type shard struct {
	mu       sync.RWMutex
	channels map[int32]api.Channel
}

// New constructs a registry with shardCount shards, rounded up to a power
// of two for bitmasking. Non-positive counts pick the default of 16.
func New(shardCount int) *Registry {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*shard, m)
	for i := range shards {
		shards[i] = &shard{channels: make(map[int32]api.Channel)}
	}
	return &Registry{shards: shards, mask: m - 1}
}

// shard picks the shard responsible for an identity.
func (r *Registry) shard(id int32) *shard {
	return r.shards[uint32(id)&r.mask]
}

// Acquire reserves a fresh identity for ch and returns it. The candidate
// comes from an atomic counter; collisions with identities still held by
// open channels advance the candidate until a free slot is found. Zero is
// never handed out, so id 0 can mean "no channel".
func (r *Registry) Acquire(ch api.Channel) int32 {
	id := r.next.Add(1)
	for {
		if id == 0 {
			id++
			continue
		}
		sh := r.shard(id)
		sh.mu.Lock()
		if _, dup := sh.channels[id]; !dup {
			sh.channels[id] = ch
			sh.mu.Unlock()
			return id
		}
		sh.mu.Unlock()
		id++
	}
}

// Release returns an identity to the pool. It reports whether the identity
// was registered; releasing twice is harmless.
func (r *Registry) Release(id int32) bool {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.channels[id]; !ok {
		return false
	}
	delete(sh.channels, id)
	return true
}

// Lookup resolves an identity to its open channel.
func (r *Registry) Lookup(id int32) (api.Channel, bool) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	ch, ok := sh.channels[id]
	return ch, ok
}

// Range applies fn to every registered channel.
func (r *Registry) Range(fn func(api.Channel)) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, ch := range sh.channels {
			fn(ch)
		}
		sh.mu.RUnlock()
	}
}

// Len counts the registered channels.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.channels)
		sh.mu.RUnlock()
	}
	return n
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
