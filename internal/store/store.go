// Copyright 2024 Hotcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store implements the hot-reloading resource store.
//
// Resources are requested by type and Key with Get. The first request runs
// the type's loader and caches the value; later requests return the cached
// handle. Sync asks the change detector which path keys went stale and
// reloads them in place, so handles held by callers observe new content.
//
// A Store is owned by one goroutine: Get, Insert and Sync must not be called
// concurrently. Only Handle.Get is safe to call from elsewhere.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avast/retry-go/v4"
	billy "github.com/go-git/go-billy/v5"
	billyutil "github.com/go-git/go-billy/v5/util"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"hotcache/internal/cache"
	"hotcache/internal/common"
	"hotcache/internal/detect"
	"hotcache/internal/util"
)

var errLockBusy = errors.New("file is locked for writing")

// Store caches typed resources and reloads them when their files change.
// C is the type of the caller-owned context handed to every loader.
type Store[C any] struct {
	id       string
	opts     Options[C]
	fs       billy.Filesystem
	roots    []string
	detector detect.Detector
	filter   *detect.Filter
	entries  *cache.Table[slot, *entry[C]]
	tracked  map[string]bool
	loading  []*frame
	discover *discoverer[C]
	counters counters
	log      *log.Entry
}

type counters struct {
	loads          uint64
	loadFailures   uint64
	reloads        uint64
	reloadFailures uint64
	discovered     uint64
}

// Stats is a snapshot of store activity.
type Stats struct {
	ID             string
	Entries        int
	Tracked        int
	Loads          uint64
	LoadFailures   uint64
	Reloads        uint64
	ReloadFailures uint64
	Discovered     uint64
}

// New creates a store.
func New[C any](opts Options[C]) (*Store[C], error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to resolve store roots: %w", err)
	}

	id := uuid.NewString()
	s := &Store[C]{
		id:       id,
		opts:     opts,
		fs:       opts.FS,
		roots:    opts.Roots,
		detector: opts.Detector,
		filter:   detect.NewFilter(opts.FS, opts.Roots, opts.Excludes),
		entries:  cache.NewTable[slot, *entry[C]](),
		tracked:  make(map[string]bool),
		log:      log.WithField("store", id),
	}
	if opts.Discovery != nil && opts.Discovery.Found != nil {
		s.discover = newDiscoverer(opts.Discovery)
	}

	s.log.Debugf("store created: roots=%v", s.roots)
	return s, nil
}

// ID returns the random identifier of this store instance.
func (s *Store[C]) ID() string {
	return s.id
}

// FS returns the filesystem path keys are read from.
func (s *Store[C]) FS() billy.Filesystem {
	return s.fs
}

// Roots returns the absolute search roots.
func (s *Store[C]) Roots() []string {
	return append([]string(nil), s.roots...)
}

// Resolve turns a relative path key into an absolute one by searching the
// roots in order. The first root holding the file wins; if none does, the
// first root is used and the load will report the missing file. Logical keys
// are returned unchanged.
func (s *Store[C]) Resolve(key Key) (Key, error) {
	switch key.Kind() {
	case KindLogical:
		return key, nil
	case KindPath:
	default:
		return Key{}, fmt.Errorf("%w: %s", common.ErrInvalidKey, key)
	}

	p := key.Value()
	if p == "" {
		return Key{}, fmt.Errorf("%w: empty path", common.ErrInvalidKey)
	}
	if filepath.IsAbs(p) {
		return Path(filepath.Clean(p)), nil
	}
	for _, root := range s.roots {
		candidate := common.ResolveAgainst(root, p)
		if _, err := s.fs.Stat(candidate); err == nil {
			return Path(candidate), nil
		}
	}
	return Path(common.ResolveAgainst(s.roots[0], p)), nil
}

// ReadFile reads the file behind a resolved path key. Loaders use it so that
// reads go through the store filesystem and honor LockReads. Failures are
// returned as *common.IOError.
func (s *Store[C]) ReadFile(key Key) ([]byte, error) {
	if !key.IsPath() {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedKeyKind, key)
	}
	path := key.Value()

	if s.opts.LockReads {
		lock := flock.New(path, flock.SetFlag(os.O_RDONLY))
		if err := tryReadLock(lock); err != nil {
			return nil, common.NewIOError("lock", path, err)
		}
		defer lock.Unlock()
	}

	data, err := billyutil.ReadFile(s.fs, path)
	if err != nil {
		return nil, common.NewIOError("read", path, err)
	}
	return data, nil
}

// tryReadLock takes a shared lock without blocking, retrying with backoff
// while a writer holds the file. A sync never waits on a writer for long.
func tryReadLock(lock *flock.Flock) error {
	return util.Retry(context.Background(), func() error {
		ok, err := lock.TryRLock()
		if err != nil {
			return retry.Unrecoverable(err)
		}
		if !ok {
			return errLockBusy
		}
		return nil
	}, util.DefaultRetryOptions(context.Background())...)
}

// DependOn records key as a dependency of the resource currently loading, so
// the resource reloads whenever key changes. A path key is tracked even if
// nothing caches it. Keys requested with Get during a load are recorded
// automatically. Outside a load, or while loading a logical key, it does
// nothing.
func (s *Store[C]) DependOn(key Key) error {
	resolved, err := s.Resolve(key)
	if err != nil {
		return err
	}
	if s.noteDependency(resolved) && resolved.IsPath() {
		s.track(resolved.Value())
	}
	return nil
}

// Contains reports whether any resource type is cached for key.
func (s *Store[C]) Contains(key Key) bool {
	resolved, err := s.Resolve(key)
	if err != nil {
		return false
	}
	for _, sl := range s.entries.Keys() {
		if sl.key == resolved {
			return true
		}
	}
	return false
}

// Len returns the number of cached entries (one per type and key).
func (s *Store[C]) Len() int {
	return s.entries.Len()
}

// Keys returns the distinct cached keys in first-load order.
func (s *Store[C]) Keys() []Key {
	seen := make(map[Key]bool)
	var keys []Key
	for _, sl := range s.entries.Keys() {
		if seen[sl.key] {
			continue
		}
		seen[sl.key] = true
		keys = append(keys, sl.key)
	}
	return keys
}

// Stats returns a snapshot of store counters.
func (s *Store[C]) Stats() Stats {
	table := s.entries.Stats()
	return Stats{
		ID:             s.id,
		Entries:        table.Size,
		Tracked:        s.detector.Tracked(),
		Loads:          s.counters.loads,
		LoadFailures:   s.counters.loadFailures,
		Reloads:        s.counters.reloads,
		ReloadFailures: s.counters.reloadFailures,
		Discovered:     s.counters.discovered,
	}
}

// Close releases the change detector. Cached handles stay readable.
func (s *Store[C]) Close() error {
	return s.detector.Close()
}

// add caches e and starts tracking its file when it can be reloaded.
func (s *Store[C]) add(e *entry[C]) {
	s.entries.Set(e.slot, e)
	if e.reload == nil || !e.slot.key.IsPath() {
		return
	}
	s.track(e.slot.key.Value())
}

func (s *Store[C]) track(path string) {
	if s.tracked[path] {
		return
	}
	if s.filter.Excluded(path) {
		s.log.Debugf("not tracking excluded path %q", path)
		return
	}
	if err := s.detector.Track(path); err != nil {
		s.log.WithError(err).Warnf("cannot track %q, it will not reload", path)
		return
	}
	s.tracked[path] = true
}

func (s *Store[C]) pushFrame(sl slot) *frame {
	f := &frame{slot: sl}
	s.loading = append(s.loading, f)
	return f
}

func (s *Store[C]) popFrame() {
	s.loading = s.loading[:len(s.loading)-1]
}

func (s *Store[C]) isLoading(sl slot) bool {
	for _, f := range s.loading {
		if f.slot == sl {
			return true
		}
	}
	return false
}

// noteDependency records key on the innermost loading frame. Logical
// entries never reload, so their frames record nothing.
func (s *Store[C]) noteDependency(key Key) bool {
	n := len(s.loading)
	if n == 0 || s.loading[n-1].slot.key.IsLogical() {
		return false
	}
	s.loading[n-1].add(key)
	return true
}
