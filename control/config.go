// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and reload
// propagation. Transport channel configs keep their string-keyed options
// here so settings can change while channels run.

package control

import (
	"sync"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener
// support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// Get returns a single config value.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// Set stores one value and notifies listeners.
func (cs *ConfigStore) Set(key string, value any) {
	cs.SetConfig(map[string]any{key: value})
}

// SetConfig merges new values and dispatches reload notifications
// asynchronously.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	fns := cs.merge(newCfg)
	for _, fn := range fns {
		go fn()
	}
}

// SetConfigSync merges new values and runs reload notifications on the
// calling goroutine, for deterministic tests and ordered reconfiguration.
func (cs *ConfigStore) SetConfigSync(newCfg map[string]any) {
	fns := cs.merge(newCfg)
	for _, fn := range fns {
		fn()
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// merge applies the new values and returns the listeners to notify.
func (cs *ConfigStore) merge(newCfg map[string]any) []func() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	fns := make([]func(), len(cs.listeners))
	copy(fns, cs.listeners)
	return fns
}
