package detect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"

	"hotcache/internal/common"
)

// collectStale keeps draining StaleKeys so Eventually sees the union of
// everything reported while polling.
func collectStale(d Detector) func() []string {
	var seen []string
	return func() []string {
		seen = append(seen, d.StaleKeys()...)
		return seen
	}
}

func TestNotifyDetectorReportsWrite(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	d, err := NewNotifyDetector()
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Track(path))
	g.Expect(d.Tracked()).To(Equal(1))
	g.Consistently(d.StaleKeys, 100*time.Millisecond, 20*time.Millisecond).Should(BeEmpty())

	require.NoError(t, os.WriteFile(path, []byte("hello draw"), 0o644))
	g.Eventually(collectStale(d), 5*time.Second, 25*time.Millisecond).Should(ContainElement(path))
}

func TestNotifyDetectorIgnoresUntrackedSiblings(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	tracked := filepath.Join(dir, "tracked.txt")
	other := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(tracked, []byte("a"), 0o644))

	d, err := NewNotifyDetector()
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Track(tracked))

	require.NoError(t, os.WriteFile(other, []byte("b"), 0o644))
	g.Consistently(d.StaleKeys, 200*time.Millisecond, 25*time.Millisecond).Should(BeEmpty())
}

func TestNotifyDetectorReportsAtomicReplace(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1"), 0o644))

	d, err := NewNotifyDetector()
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Track(path))

	tmp := filepath.Join(dir, ".config.yaml.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("a: 2"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	g.Eventually(collectStale(d), 5*time.Second, 25*time.Millisecond).Should(ContainElement(path))
}

func TestNotifyDetectorRetrackKeepsPendingChange(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	d, err := NewNotifyDetector()
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Track(path))

	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	// Let the event land in the pending set before re-tracking.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, d.Track(path))
	g.Expect(d.Tracked()).To(Equal(1))
	g.Eventually(collectStale(d), 5*time.Second, 25*time.Millisecond).Should(ContainElement(path))
}

func TestNotifyDetectorClose(t *testing.T) {
	d, err := NewNotifyDetector()
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close(), "Close is idempotent")
	require.ErrorIs(t, d.Track(filepath.Join(t.TempDir(), "x")), common.ErrDetectorClosed)
}

func TestNotifyDetectorMissingDirectory(t *testing.T) {
	d, err := NewNotifyDetector()
	require.NoError(t, err)
	defer d.Close()

	err = d.Track(filepath.Join(t.TempDir(), "no", "such", "dir", "file.txt"))
	require.ErrorIs(t, err, common.ErrIO)
}
