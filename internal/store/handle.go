package store

import "sync"

// Handle is a shared reference to a cached resource. Sync replaces the value
// in place, so a handle obtained once keeps observing reloads: handles are
// snapshots by reference, not by value.
//
// Get may be called from other goroutines while the store owner runs Sync.
type Handle[R any] struct {
	mu      sync.RWMutex
	key     Key
	value   R
	version uint64
}

func newHandle[R any](key Key, value R) *Handle[R] {
	return &Handle[R]{key: key, value: value}
}

// Get returns the current value.
func (h *Handle[R]) Get() R {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value
}

// Key returns the resolved key the value was loaded from.
func (h *Handle[R]) Key() Key {
	return h.key
}

// Version counts successful in-place replacements; 0 means the value is the
// one from the first load.
func (h *Handle[R]) Version() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

func (h *Handle[R]) set(value R) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = value
	h.version++
}
