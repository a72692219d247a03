package store_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hotcache/internal/common"
	"hotcache/internal/store"
)

// probe is the mutable context threaded through every load in these tests.
type probe struct {
	attempts map[string]int
	reads    map[string]int
	fail     map[string]error
	failN    map[string]int // fail this many more attempts, then succeed

	// afterRead runs after text reads a file, with the read count so far.
	afterRead func(path string, n int)
}

func newProbe() *probe {
	return &probe{
		attempts: make(map[string]int),
		reads:    make(map[string]int),
		fail:     make(map[string]error),
		failN:    make(map[string]int),
	}
}

func (p *probe) totalReads() int {
	n := 0
	for _, c := range p.reads {
		n += c
	}
	return n
}

// text loads a file verbatim and only understands path keys.
type text struct {
	content string
}

func (t *text) Load(key store.Key, s *store.Store[*probe], p *probe) error {
	if !key.IsPath() {
		return fmt.Errorf("text: %w", common.ErrUnsupportedKeyKind)
	}
	p.attempts[key.Value()]++
	if err := p.fail[key.Value()]; err != nil {
		return err
	}
	if p.failN[key.Value()] > 0 {
		p.failN[key.Value()]--
		return errors.New("transient failure")
	}
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	p.reads[key.Value()]++
	t.content = string(data)
	if p.afterRead != nil {
		p.afterRead(key.Value(), p.reads[key.Value()])
	}
	return nil
}

// upper is a second resource type that can share a key with text.
type upper struct {
	content string
}

func (u *upper) Load(key store.Key, s *store.Store[*probe], _ *probe) error {
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	u.content = strings.ToUpper(string(data))
	return nil
}

// palette only understands logical keys.
type palette struct {
	name string
}

func (c *palette) Load(key store.Key, _ *store.Store[*probe], p *probe) error {
	if !key.IsLogical() {
		return fmt.Errorf("palette: %w", common.ErrUnsupportedKeyKind)
	}
	p.attempts[key.String()]++
	c.name = key.Value()
	return nil
}

// bundle lists other files, one per line, and loads each as text.
type bundle struct {
	parts []string
}

func (b *bundle) Load(key store.Key, s *store.Store[*probe], p *probe) error {
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	b.parts = nil
	dir := filepath.Dir(key.Value())
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		h, err := store.Get[text](s, store.Path(filepath.Join(dir, line)), p)
		if err != nil {
			return err
		}
		b.parts = append(b.parts, h.Get().content)
	}
	return nil
}

// banner is a logical resource built from a file it reads while loading.
type banner struct {
	line string
}

func (b *banner) Load(key store.Key, s *store.Store[*probe], p *probe) error {
	if !key.IsLogical() {
		return fmt.Errorf("banner: %w", common.ErrUnsupportedKeyKind)
	}
	if err := s.DependOn(store.Path("banner.txt")); err != nil {
		return err
	}
	h, err := store.Get[text](s, store.Path("banner.txt"), p)
	if err != nil {
		return err
	}
	p.attempts[key.String()]++
	b.line = key.Value() + ":" + h.Get().content
	return nil
}

// stamped reads its own file plus version.txt, declaring the second one
// with DependOn instead of caching it.
type stamped struct {
	content string
}

func (st *stamped) Load(key store.Key, s *store.Store[*probe], _ *probe) error {
	own, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	version := store.Path(filepath.Join(filepath.Dir(key.Value()), "version.txt"))
	if err := s.DependOn(version); err != nil {
		return err
	}
	v, err := s.ReadFile(version)
	if err != nil {
		return err
	}
	st.content = string(own) + "@" + string(v)
	return nil
}

// loop requests itself while loading.
type loop struct{}

func (l *loop) Load(key store.Key, s *store.Store[*probe], p *probe) error {
	_, err := store.Get[loop](s, key, p)
	return err
}

var baseTime = time.Now().Add(-time.Hour).Truncate(time.Second)

// writeAt writes content and pins the modification time so changes are
// always visible to the poll detector.
func writeAt(t *testing.T, path, content string, tick int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	mtime := baseTime.Add(time.Duration(tick) * time.Second)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newStore(t *testing.T, opts store.Options[*probe]) *store.Store[*probe] {
	t.Helper()
	s, err := store.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
