package resource

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"hotcache/internal/common"
	"hotcache/internal/store"
)

// YAML is a decoded YAML document.
type YAML[C any] struct {
	Data any
}

// Load reads and decodes the file behind key.
func (y *YAML[C]) Load(key store.Key, s *store.Store[C], _ C) error {
	if !key.IsPath() {
		return unsupported("yaml", key)
	}
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: yaml %s: %v", common.ErrDecode, key.Value(), err)
	}
	y.Data = doc
	return nil
}

// Lookup traverses the document using a dotted key path ("window.title").
func (y YAML[C]) Lookup(path string) (any, bool) {
	var current any = y.Data
	if path == "" {
		return current, current != nil
	}
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString returns the string at path, or def when it is missing or not a
// string.
func (y YAML[C]) GetString(path, def string) string {
	v, ok := y.Lookup(path)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
