package store

import (
	"fmt"
	"reflect"
)

// slot is the cache address of an entry: one value per (type, key).
type slot struct {
	typ reflect.Type
	key Key
}

func slotFor[R any](key Key) slot {
	return slot{typ: reflect.TypeOf((*R)(nil)).Elem(), key: key}
}

// entry owns one cached value. The value itself lives in handle (a
// *Handle[R]); reload re-runs the loader for R and is nil for inserted values.
type entry[C any] struct {
	slot   slot
	handle any
	reload func(ctx C) error
	deps   []Key
}

func (e *entry[C]) dependsOn(keys map[Key]bool) bool {
	for _, dep := range e.deps {
		if keys[dep] {
			return true
		}
	}
	return false
}

// frame records the keys requested while one entry is loading.
type frame struct {
	slot slot
	deps []Key
	seen map[Key]bool
}

func (f *frame) add(key Key) {
	if key == f.slot.key || f.seen[key] {
		return
	}
	if f.seen == nil {
		f.seen = make(map[Key]bool)
	}
	f.seen[key] = true
	f.deps = append(f.deps, key)
}

// ReloadError reports a failed reload during Sync. The entry keeps its
// previous value.
type ReloadError struct {
	Key  Key
	Type string
	Err  error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reload %s (%s): %v", e.Key, e.Type, e.Err)
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}
