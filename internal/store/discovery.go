package store

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/util"

	"hotcache/internal/common"
	"hotcache/internal/detect"
)

// discoverer walks the roots on every Sync and reports matching files it has
// not seen before.
type discoverer[C any] struct {
	found   func(s *Store[C], key Key, ctx C)
	matcher *detect.Matcher
	seen    map[string]bool
}

func newDiscoverer[C any](cfg *Discovery[C]) *discoverer[C] {
	return &discoverer[C]{
		found:   cfg.Found,
		matcher: detect.NewMatcher(cfg.Patterns),
		seen:    make(map[string]bool),
	}
}

func (d *discoverer[C]) run(s *Store[C], ctx C) {
	for _, root := range s.roots {
		err := util.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if path != root && s.filter.ExcludedDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.seen[path] {
				return nil
			}
			rel, inside := common.RelativeTo(root, path)
			if !inside || !d.matcher.Matches(rel) || s.filter.Excluded(path) {
				return nil
			}
			d.seen[path] = true

			key := Path(path)
			if s.Contains(key) {
				return nil
			}
			s.counters.discovered++
			s.log.Debugf("discovered %q", path)
			d.found(s, key, ctx)
			return nil
		})
		if err != nil {
			s.log.WithError(err).Warnf("discovery walk failed for root %q", root)
		}
	}
}
