package resource

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"hotcache/internal/common"
	"hotcache/internal/store"
)

// Manifest is a YAML file listing other text files:
//
//	files:
//	  - header.txt
//	  - body/main.txt
//
// Relative entries are resolved against the manifest's directory. Each listed
// file is loaded through the store as Text, so the manifest reloads whenever
// one of them changes.
type Manifest[C any] struct {
	Parts []Part
}

// Part is one listed file and its content at load time.
type Part struct {
	Path    string
	Content string
}

type manifestFile struct {
	Files []string `yaml:"files"`
}

// Load decodes the manifest and loads every listed file.
func (m *Manifest[C]) Load(key store.Key, s *store.Store[C], ctx C) error {
	if !key.IsPath() {
		return unsupported("manifest", key)
	}
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return fmt.Errorf("%w: manifest %s: %v", common.ErrDecode, key.Value(), err)
	}

	dir := filepath.Dir(key.Value())
	parts := make([]Part, 0, len(mf.Files))
	for _, f := range mf.Files {
		path := common.ResolveAgainst(dir, f)
		h, err := store.Get[Text[C]](s, store.Path(path), ctx)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", key.Value(), err)
		}
		parts = append(parts, Part{Path: path, Content: h.Get().Content})
	}
	m.Parts = parts
	return nil
}

// Concat joins the content of every part in order.
func (m Manifest[C]) Concat() string {
	var total int
	for _, p := range m.Parts {
		total += len(p.Content)
	}
	buf := make([]byte, 0, total)
	for _, p := range m.Parts {
		buf = append(buf, p.Content...)
	}
	return string(buf)
}
