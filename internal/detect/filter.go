package detect

import (
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	ignore "github.com/sabhiram/go-gitignore"
	log "github.com/sirupsen/logrus"

	"hotcache/internal/common"
)

// IgnoreFileName is read from every root and merged with the configured
// exclude patterns.
const IgnoreFileName = ".hotcacheignore"

// Filter matches paths against gitignore-style patterns scoped to a set of
// roots. A path outside every root is matched by its cleaned slash form.
type Filter struct {
	matchers []scopedMatcher
	global   *ignore.GitIgnore
}

type scopedMatcher struct {
	root   string
	ignore *ignore.GitIgnore
}

// NewFilter compiles patterns for every root. When fs is non-nil, each
// root's ignore file is appended to the patterns for that root.
// A nil *Filter excludes nothing.
func NewFilter(fs billy.Basic, roots []string, patterns []string) *Filter {
	f := &Filter{}
	if len(patterns) > 0 {
		f.global = ignore.CompileIgnoreLines(patterns...)
	}

	for _, root := range roots {
		lines := append([]string(nil), patterns...)
		if fs != nil {
			lines = append(lines, readIgnoreFile(fs, root)...)
		}
		if len(lines) == 0 {
			continue
		}
		f.matchers = append(f.matchers, scopedMatcher{
			root:   root,
			ignore: ignore.CompileIgnoreLines(lines...),
		})
	}

	if len(f.matchers) == 0 && f.global == nil {
		return nil
	}
	return f
}

func readIgnoreFile(fs billy.Basic, root string) []string {
	path := fs.Join(root, IgnoreFileName)
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil
	}
	log.Debugf("[Filter] using ignore file %q", path)
	return strings.Split(string(data), "\n")
}

// Excluded reports whether path matches an exclude pattern.
func (f *Filter) Excluded(path string) bool {
	return f.match(path, false)
}

// ExcludedDir reports whether the directory at path is excluded, so a walk
// can skip it.
func (f *Filter) ExcludedDir(path string) bool {
	return f.match(path, true)
}

func (f *Filter) match(path string, isDir bool) bool {
	if f == nil {
		return false
	}
	for _, sm := range f.matchers {
		rel, inside := common.RelativeTo(sm.root, path)
		if !inside || rel == "" {
			continue
		}
		if isDir {
			rel += "/"
		}
		return sm.ignore.MatchesPath(rel)
	}
	if f.global == nil {
		return false
	}
	check := common.NormalizePath(toSlash(path))
	if isDir {
		check += "/"
	}
	return f.global.MatchesPath(check)
}

func toSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// Matcher compiles include patterns, for callers that want the positive
// form of the same syntax (discovery).
type Matcher struct {
	ignore *ignore.GitIgnore
}

// NewMatcher compiles patterns. A nil *Matcher matches nothing.
func NewMatcher(patterns []string) *Matcher {
	if len(patterns) == 0 {
		return nil
	}
	return &Matcher{ignore: ignore.CompileIgnoreLines(patterns...)}
}

// Matches reports whether the slash-separated relative path matches.
func (m *Matcher) Matches(rel string) bool {
	if m == nil {
		return false
	}
	return m.ignore.MatchesPath(rel)
}
