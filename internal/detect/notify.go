package detect

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"hotcache/internal/common"
)

// NotifyDetector is a push-based Detector: fsnotify events for tracked paths
// are collected as they arrive and drained by StaleKeys.
//
// Parent directories are watched rather than files so that editors which
// save by rename are still observed.
type NotifyDetector struct {
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	tracked map[string]struct{}
	dirs    map[string]int
	pending map[string]struct{}
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewNotifyDetector creates an fsnotify-backed detector.
func NewNotifyDetector() (*NotifyDetector, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	d := &NotifyDetector{
		watcher: watcher,
		tracked: make(map[string]struct{}),
		dirs:    make(map[string]int),
		pending: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d, nil
}

func (d *NotifyDetector) run() {
	defer d.wg.Done()
	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handleEvent(event)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("[NotifyDetector] watch error")
		case <-d.done:
			return
		}
	}
}

func (d *NotifyDetector) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	path := filepath.Clean(event.Name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tracked[path]; !ok {
		return
	}
	log.Debugf("[NotifyDetector] event: path=%q op=%s", path, event.Op)
	d.pending[path] = struct{}{}
}

// Track watches the parent directory of path. Re-tracking a path is a no-op
// and keeps any pending change.
func (d *NotifyDetector) Track(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return common.ErrDetectorClosed
	}
	if _, ok := d.tracked[path]; ok {
		return nil
	}
	if d.dirs[dir] == 0 {
		if err := d.watcher.Add(dir); err != nil {
			return common.NewIOError("watch", dir, err)
		}
		log.Debugf("[NotifyDetector] watching dir %q", dir)
	}
	d.dirs[dir]++
	d.tracked[path] = struct{}{}
	return nil
}

// StaleKeys drains the paths that received events since the last call.
func (d *NotifyDetector) StaleKeys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return nil
	}
	stale := make([]string, 0, len(d.pending))
	for path := range d.pending {
		stale = append(stale, path)
	}
	d.pending = make(map[string]struct{})
	return stale
}

// Tracked returns the number of tracked paths.
func (d *NotifyDetector) Tracked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tracked)
}

// Close stops the event loop and the underlying watcher.
func (d *NotifyDetector) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	close(d.done)
	err := d.watcher.Close()
	d.wg.Wait()
	return err
}
