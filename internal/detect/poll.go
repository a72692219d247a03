package detect

import (
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	log "github.com/sirupsen/logrus"

	"hotcache/internal/common"
)

// token is the last observed state of a file.
type token struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (t token) equal(other token) bool {
	return t.exists == other.exists && t.size == other.size && t.modTime.Equal(other.modTime)
}

type pollEntry struct {
	token     token
	pending   token     // state observed while waiting out the update delay
	changedAt time.Time // zero when no change is pending
}

// PollOptions configures a PollDetector.
type PollOptions struct {
	// FS is the filesystem used to stat tracked paths (default: osfs.New("/")).
	FS billy.Basic

	// UpdateDelay is how long a change must stay unchanged before it is
	// reported. Zero reports changes on the first check that sees them.
	UpdateDelay time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// PollDetector compares the size and modification time of tracked files on
// every StaleKeys call.
//
// Thread-safe: Uses a mutex around the tracked set.
type PollDetector struct {
	fs    billy.Basic
	delay time.Duration
	now   func() time.Time

	mu      sync.Mutex
	tracked map[string]*pollEntry
	closed  bool
}

// NewPollDetector creates a polling detector.
func NewPollDetector(opts PollOptions) *PollDetector {
	fs := opts.FS
	if fs == nil {
		fs = osfs.New("/")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &PollDetector{
		fs:      fs,
		delay:   opts.UpdateDelay,
		now:     now,
		tracked: make(map[string]*pollEntry),
	}
}

func (d *PollDetector) stat(path string) token {
	info, err := d.fs.Stat(path)
	if err != nil {
		// Missing or unreadable; either way the next successful stat differs.
		return token{}
	}
	return token{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// Track records the current state of path. An already tracked path keeps
// its recorded state, so a change not yet reported is not lost.
func (d *PollDetector) Track(path string) error {
	tok := d.stat(path)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return common.ErrDetectorClosed
	}
	if _, ok := d.tracked[path]; ok {
		return nil
	}
	d.tracked[path] = &pollEntry{token: tok}
	return nil
}

// StaleKeys stats every tracked path and returns those whose state changed.
func (d *PollDetector) StaleKeys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	var stale []string
	now := d.now()
	for path, entry := range d.tracked {
		current := d.stat(path)
		if current.equal(entry.token) {
			entry.changedAt = time.Time{}
			continue
		}

		if d.delay > 0 {
			if entry.changedAt.IsZero() || !current.equal(entry.pending) {
				// New or still-moving change: restart the wait.
				entry.pending = current
				entry.changedAt = now
				continue
			}
			if now.Sub(entry.changedAt) < d.delay {
				continue
			}
		}

		log.Debugf("[PollDetector] stale: path=%q exists=%v size=%d", path, current.exists, current.size)
		entry.token = current
		entry.changedAt = time.Time{}
		stale = append(stale, path)
	}
	return stale
}

// Tracked returns the number of tracked paths.
func (d *PollDetector) Tracked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tracked)
}

// Close stops tracking. Later calls to Track fail with ErrDetectorClosed.
func (d *PollDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.tracked = nil
	return nil
}
