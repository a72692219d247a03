package detect

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotcache/internal/common"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestPollDetectorReportsModifiedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, "hello", base)

	d := NewPollDetector(PollOptions{})
	defer d.Close()
	require.NoError(t, d.Track(path))
	assert.Equal(t, 1, d.Tracked())

	assert.Empty(t, d.StaleKeys(), "unchanged file is not stale")

	writeFile(t, path, "hello draw", base.Add(time.Second))
	assert.Equal(t, []string{path}, d.StaleKeys())
	assert.Empty(t, d.StaleKeys(), "a change is reported once")
}

func TestPollDetectorReportsRemovalAndReappearance(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	writeFile(t, path, "x", time.Now().Add(-time.Hour))

	d := NewPollDetector(PollOptions{})
	require.NoError(t, d.Track(path))

	require.NoError(t, os.Remove(path))
	assert.Equal(t, []string{path}, d.StaleKeys(), "disappearance counts as a change")
	assert.Empty(t, d.StaleKeys())

	writeFile(t, path, "back", time.Now())
	assert.Equal(t, []string{path}, d.StaleKeys())
}

func TestPollDetectorTracksMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "later.txt")
	d := NewPollDetector(PollOptions{})
	require.NoError(t, d.Track(path))
	assert.Empty(t, d.StaleKeys())

	writeFile(t, path, "now here", time.Now())
	assert.Equal(t, []string{path}, d.StaleKeys())
}

func TestPollDetectorRetrackKeepsPendingChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, "one", base)

	d := NewPollDetector(PollOptions{})
	require.NoError(t, d.Track(path))

	writeFile(t, path, "two", base.Add(time.Second))
	require.NoError(t, d.Track(path))
	assert.Equal(t, []string{path}, d.StaleKeys(), "re-tracking must not swallow the change")
	assert.Empty(t, d.StaleKeys())
	assert.Equal(t, 1, d.Tracked())
}

func TestPollDetectorUpdateDelay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "slow.txt")
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, "v1", base)

	now := base
	d := NewPollDetector(PollOptions{
		UpdateDelay: 100 * time.Millisecond,
		Now:         func() time.Time { return now },
	})
	require.NoError(t, d.Track(path))

	writeFile(t, path, "v2", base.Add(time.Second))
	assert.Empty(t, d.StaleKeys(), "first sighting starts the delay")

	now = now.Add(50 * time.Millisecond)
	assert.Empty(t, d.StaleKeys(), "delay not yet elapsed")

	// Still being written: the wait restarts.
	writeFile(t, path, "v2 more", base.Add(2*time.Second))
	now = now.Add(60 * time.Millisecond)
	assert.Empty(t, d.StaleKeys())

	now = now.Add(100 * time.Millisecond)
	assert.Equal(t, []string{path}, d.StaleKeys())
	assert.Empty(t, d.StaleKeys())
}

func TestPollDetectorMultiplePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	paths := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c.txt"),
	}
	d := NewPollDetector(PollOptions{})
	for _, p := range paths {
		writeFile(t, p, "x", base)
		require.NoError(t, d.Track(p))
	}

	writeFile(t, paths[0], "xy", base.Add(time.Second))
	writeFile(t, paths[2], "xyz", base.Add(time.Second))

	stale := d.StaleKeys()
	sort.Strings(stale)
	assert.Equal(t, []string{paths[0], paths[2]}, stale)
}

func TestPollDetectorClosed(t *testing.T) {
	t.Parallel()

	d := NewPollDetector(PollOptions{})
	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Track("/nowhere"), common.ErrDetectorClosed)
	assert.Nil(t, d.StaleKeys())
}
