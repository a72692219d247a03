// Copyright 2024 Hotcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resource provides ready-made resource types for the store.
//
// Every type is generic over the store context C because it does not use
// the context itself; request one with the context type of your store:
//
//	h, err := store.Get[resource.Text[*App]](s, store.Path("test.txt"), app)
//
// Path-only types fail with common.ErrUnsupportedKeyKind for logical keys.
package resource

import (
	"fmt"

	"hotcache/internal/common"
	"hotcache/internal/store"
)

// Text is the content of a text file, byte for byte.
type Text[C any] struct {
	Content string
}

// Load reads the file behind key. Invalid UTF-8 is kept as is.
func (t *Text[C]) Load(key store.Key, s *store.Store[C], _ C) error {
	if !key.IsPath() {
		return unsupported("text", key)
	}
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	t.Content = string(data)
	return nil
}

func (t Text[C]) String() string {
	return t.Content
}

// Blob is the raw content of a file.
type Blob[C any] struct {
	Data []byte
}

// Load reads the file behind key.
func (b *Blob[C]) Load(key store.Key, s *store.Store[C], _ C) error {
	if !key.IsPath() {
		return unsupported("blob", key)
	}
	data, err := s.ReadFile(key)
	if err != nil {
		return err
	}
	b.Data = data
	return nil
}

// Size returns the blob length in bytes.
func (b Blob[C]) Size() int {
	return len(b.Data)
}

func unsupported(kind string, key store.Key) error {
	return fmt.Errorf("%s resource cannot load %s: %w", kind, key, common.ErrUnsupportedKeyKind)
}
