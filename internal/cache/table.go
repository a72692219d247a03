package cache

import "sync"

// Table maps keys to values and remembers insertion order.
// Entries are never removed.
//
// Thread-safe: Uses RWMutex for concurrent access.
type Table[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	order   []K
}

// NewTable creates an empty table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{
		entries: make(map[K]V, 64),
	}
}

// Get retrieves the value stored for key.
func (t *Table[K, V]) Get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (t *Table[K, V]) Has(key K) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.entries[key]
	return ok
}

// Set stores value for key. Returns true if the key was new.
func (t *Table[K, V]) Set(key K, value V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.entries[key]
	t.entries[key] = value
	if exists {
		return false
	}
	t.order = append(t.order, key)
	return true
}

// Keys returns all keys in insertion order.
func (t *Table[K, V]) Keys() []K {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]K, len(t.order))
	copy(keys, t.order)
	return keys
}

// Range calls fn for every entry in insertion order until fn returns false.
// fn runs without the table lock held, so it may call back into the table.
func (t *Table[K, V]) Range(fn func(K, V) bool) {
	for _, key := range t.Keys() {
		v, ok := t.Get(key)
		if !ok {
			continue
		}
		if !fn(key, v) {
			return
		}
	}
}

// Len returns the current number of entries.
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Stats returns current table statistics.
func (t *Table[K, V]) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{
		Size: len(t.entries),
	}
}
