package resource

import (
	"fmt"

	"github.com/tidwall/gjson"

	"hotcache/internal/common"
	"hotcache/internal/store"
)

// JSON is a validated JSON document queried with gjson paths.
type JSON[C any] struct {
	Raw []byte
}

// Load reads the file behind key and checks that it is valid JSON.
func (j *JSON[C]) Load(key store.Key, s *store.Store[C], _ C) error {
	if !key.IsPath() {
		return unsupported("json", key)
	}
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: invalid json in %s", common.ErrDecode, key.Value())
	}
	j.Raw = data
	return nil
}

// Get queries the document ("window.size.width", "layers.#.name").
func (j JSON[C]) Get(path string) gjson.Result {
	return gjson.GetBytes(j.Raw, path)
}
