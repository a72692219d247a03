package store

import (
	"errors"
	"fmt"

	"hotcache/internal/common"
)

// Loadable is implemented by a pointer to each resource type. Load fills the
// receiver from key, which is already resolved.
//
// Loaders must fail with common.ErrUnsupportedKeyKind for key variants they
// cannot service, read path keys through s.ReadFile, and may request other
// resources from s with Get (those become dependencies). Load is one attempt;
// it must not retry.
type Loadable[C any] interface {
	Load(key Key, s *Store[C], ctx C) error
}

// Get returns the cached handle for type R and key, loading it first if
// needed. A failed load caches nothing, so the next call tries again.
//
//	h, err := store.Get[resource.Text[*Device]](s, store.Path("shader.wgsl"), dev)
func Get[R any, PT interface {
	*R
	Loadable[C]
}, C any](s *Store[C], key Key, ctx C) (*Handle[R], error) {
	resolved, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}
	s.noteDependency(resolved)

	sl := slotFor[R](resolved)
	if h, ok := lookup[R](s, sl); ok {
		return h, nil
	}
	if s.isLoading(sl) {
		return nil, fmt.Errorf("%w: %s", common.ErrCycle, resolved)
	}

	value, deps, err := load[R, PT](s, sl, ctx)
	if err != nil {
		s.counters.loadFailures++
		s.log.WithError(err).Debugf("load failed: key=%s type=%s", resolved, sl.typ)
		return nil, fmt.Errorf("load %s: %w", resolved, err)
	}
	s.counters.loads++

	h := newHandle(resolved, value)
	s.add(newLoadedEntry[R, PT](s, sl, h, deps))
	s.log.Debugf("loaded: key=%s type=%s deps=%d", resolved, sl.typ, len(deps))
	return h, nil
}

// Insert caches a value built by the caller. Inserted values have no loader
// and never reload. It fails with common.ErrAlreadyCached if the slot is
// taken.
func Insert[R any, C any](s *Store[C], key Key, value R) (*Handle[R], error) {
	resolved, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}
	sl := slotFor[R](resolved)
	if s.entries.Has(sl) {
		return nil, fmt.Errorf("%w: %s (%s)", common.ErrAlreadyCached, resolved, sl.typ)
	}

	h := newHandle(resolved, value)
	s.add(&entry[C]{slot: sl, handle: h})
	return h, nil
}

// GetProxied is Get with a stand-in: when the load fails, proxy() is cached
// instead and the key is tracked, so a later Sync swaps in the real resource
// once it loads. The load error is logged, not returned.
func GetProxied[R any, PT interface {
	*R
	Loadable[C]
}, C any](s *Store[C], key Key, ctx C, proxy func() R) *Handle[R] {
	h, err := Get[R, PT](s, key, ctx)
	if err == nil {
		return h
	}

	resolved, rerr := s.Resolve(key)
	if rerr != nil || errors.Is(err, common.ErrCycle) {
		s.log.WithError(err).Warnf("load failed for %s, proxy not cached", key)
		return newHandle(key, proxy())
	}

	s.log.WithError(err).Warnf("load failed for %s, caching proxy", resolved)
	sl := slotFor[R](resolved)
	h = newHandle(resolved, proxy())
	s.add(newLoadedEntry[R, PT](s, sl, h, nil))
	return h
}

func lookup[R any, C any](s *Store[C], sl slot) (*Handle[R], bool) {
	e, ok := s.entries.Get(sl)
	if !ok {
		return nil, false
	}
	h, ok := e.handle.(*Handle[R])
	return h, ok
}

// load runs the loader for R inside a dependency frame.
func load[R any, PT interface {
	*R
	Loadable[C]
}, C any](s *Store[C], sl slot, ctx C) (R, []Key, error) {
	f := s.pushFrame(sl)
	defer s.popFrame()

	var value R
	if err := PT(&value).Load(sl.key, s, ctx); err != nil {
		var zero R
		return zero, nil, err
	}
	return value, f.deps, nil
}

func newLoadedEntry[R any, PT interface {
	*R
	Loadable[C]
}, C any](s *Store[C], sl slot, h *Handle[R], deps []Key) *entry[C] {
	e := &entry[C]{slot: sl, handle: h, deps: deps}
	e.reload = func(ctx C) error {
		value, deps, err := load[R, PT](s, sl, ctx)
		if err != nil {
			return err
		}
		h.set(value)
		e.deps = deps
		return nil
	}
	return e
}
