package store

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"hotcache/internal/util"
)

// Sync reloads every cached resource whose file changed since it was last
// loaded, plus the resources that depend on them, then runs discovery.
//
// A failed reload keeps the previous value and does not stop the other
// reloads; the failures are returned together as *ReloadError values joined
// with errors.Join. Callers decide whether to log, ignore or abort.
func (s *Store[C]) Sync(ctx C) error {
	var errs []error

	if stale := s.detector.StaleKeys(); len(stale) > 0 {
		errs = s.reloadStale(stale, ctx)
	}
	if s.discover != nil {
		s.discover.run(s, ctx)
	}
	return errors.Join(errs...)
}

func (s *Store[C]) reloadStale(paths []string, ctx C) []error {
	stale := make(map[Key]bool, len(paths))
	for _, p := range paths {
		stale[Path(p)] = true
	}

	plan := s.planReload(stale)

	// changed holds keys whose dependents must reload: cached keys that
	// reloaded, and stale keys nothing caches (declared with DependOn).
	changed := make(map[Key]bool)
	cached := make(map[Key]bool, len(plan))
	for _, e := range plan {
		cached[e.slot.key] = true
	}
	for key := range stale {
		if !cached[key] {
			changed[key] = true
		}
	}

	var errs []error
	for _, e := range plan {
		key := e.slot.key
		if e.reload == nil {
			continue
		}
		// Dependents only reload when one of their dependencies did.
		if !stale[key] && !e.dependsOn(changed) {
			continue
		}
		if err := s.reloadEntry(e, ctx); err != nil {
			errs = append(errs, &ReloadError{Key: key, Type: e.slot.typ.String(), Err: err})
			continue
		}
		changed[key] = true
	}
	return errs
}

// planReload lists the entries affected by the stale keys, dependencies
// before dependents.
func (s *Store[C]) planReload(stale map[Key]bool) []*entry[C] {
	var all []*entry[C]
	s.entries.Range(func(_ slot, e *entry[C]) bool {
		all = append(all, e)
		return true
	})

	affected := make(map[Key]bool, len(stale))
	for key := range stale {
		affected[key] = true
	}
	for changed := true; changed; {
		changed = false
		for _, e := range all {
			if e.slot.key.IsLogical() {
				continue
			}
			if !affected[e.slot.key] && e.dependsOn(affected) {
				affected[e.slot.key] = true
				changed = true
			}
		}
	}

	byKey := make(map[Key][]*entry[C])
	for _, e := range all {
		if affected[e.slot.key] {
			byKey[e.slot.key] = append(byKey[e.slot.key], e)
		}
	}

	var plan []*entry[C]
	visited := make(map[Key]bool, len(byKey))
	var visit func(key Key)
	visit = func(key Key) {
		if visited[key] {
			return
		}
		visited[key] = true
		for _, e := range byKey[key] {
			for _, dep := range e.deps {
				if affected[dep] {
					visit(dep)
				}
			}
		}
		plan = append(plan, byKey[key]...)
	}
	for _, e := range all {
		if affected[e.slot.key] {
			visit(e.slot.key)
		}
	}
	return plan
}

func (s *Store[C]) reloadEntry(e *entry[C], ctx C) error {
	fields := log.Fields{
		"key":  e.slot.key.String(),
		"type": e.slot.typ.String(),
	}

	attempts := 0
	err := util.Retry(context.Background(), func() error {
		attempts++
		return e.reload(ctx)
	}, util.ReloadRetryOptions(context.Background(), s.opts.ReloadAttempts, s.opts.ReloadDelay)...)
	fields["attempts"] = attempts

	if err != nil {
		s.counters.reloadFailures++
		s.log.WithFields(fields).WithError(err).Warn("reload failed, keeping previous value")
		return err
	}
	s.counters.reloads++
	s.log.WithFields(fields).Debug("reloaded")
	return nil
}
