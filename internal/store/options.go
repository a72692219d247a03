package store

import (
	"os"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"hotcache/internal/common"
	"hotcache/internal/detect"
)

const defaultReloadDelay = 50 * time.Millisecond

// Discovery reports files under the roots that are not cached yet.
type Discovery[C any] struct {
	// Patterns select files by their slash path relative to a root, in
	// gitignore syntax ("*.yaml", "shaders/**", "!draft.yaml").
	Patterns []string

	// Found is called once per newly seen matching file, usually to Get it.
	Found func(s *Store[C], key Key, ctx C)
}

// Options configures a Store.
type Options[C any] struct {
	// Roots are searched in order when resolving relative path keys.
	// Default: the current working directory.
	Roots []string

	// FS is the filesystem path keys are read from (default: osfs.New("/")).
	FS billy.Filesystem

	// Detector reports stale paths. Default: a PollDetector over FS.
	Detector detect.Detector

	// UpdateDelay is handed to the default PollDetector; a change must be
	// stable for this long before it triggers a reload.
	UpdateDelay time.Duration

	// Excludes are gitignore-style patterns for paths that are never tracked
	// for changes (they load once, like logical keys). Each root's
	// .hotcacheignore file is merged in.
	Excludes []string

	// LockReads takes a shared advisory lock on a file while reading it.
	// Only meaningful for the OS filesystem.
	LockReads bool

	// ReloadAttempts is how many times Sync tries a failing reload before
	// reporting it (default 1: no retry). Get never retries.
	ReloadAttempts uint

	// ReloadDelay is the pause between reload attempts.
	ReloadDelay time.Duration

	// Discovery enables reporting of new files during Sync.
	Discovery *Discovery[C]
}

func (o *Options[C]) applyDefaults() error {
	if o.FS == nil {
		o.FS = osfs.New("/")
	}
	if o.ReloadAttempts == 0 {
		o.ReloadAttempts = 1
	}
	if o.ReloadDelay <= 0 {
		o.ReloadDelay = defaultReloadDelay
	}

	roots, err := common.AbsAll(o.Roots)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		roots = []string{wd}
	}
	o.Roots = roots

	if o.Detector == nil {
		o.Detector = detect.NewPollDetector(detect.PollOptions{
			FS:          o.FS,
			UpdateDelay: o.UpdateDelay,
		})
	}
	return nil
}
