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

package store

import (
	"fmt"
	"strings"
)

// Kind discriminates the two key variants.
type Kind uint8

const (
	// KindPath keys name a file, resolved against the store roots.
	KindPath Kind = iota + 1
	// KindLogical keys are opaque names with no backing file.
	KindLogical
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindLogical:
		return "logical"
	default:
		return "invalid"
	}
}

const (
	pathPrefix    = "path:"
	logicalPrefix = "logical:"
)

// Key identifies a resource. The variant is fixed at construction; two keys
// are the same cache slot iff kind and value are equal, so Key can be used
// directly as a map key.
type Key struct {
	kind  Kind
	value string
}

// Path returns a filesystem key.
func Path(p string) Key {
	return Key{kind: KindPath, value: p}
}

// Logical returns a logical key.
func Logical(name string) Key {
	return Key{kind: KindLogical, value: name}
}

// ParseKey parses the String form of a key. Strings without a recognized
// prefix are treated as paths.
func ParseKey(s string) Key {
	switch {
	case strings.HasPrefix(s, logicalPrefix):
		return Logical(strings.TrimPrefix(s, logicalPrefix))
	case strings.HasPrefix(s, pathPrefix):
		return Path(strings.TrimPrefix(s, pathPrefix))
	default:
		return Path(s)
	}
}

func (k Key) Kind() Kind { return k.kind }
func (k Key) Value() string { return k.value }
func (k Key) IsPath() bool { return k.kind == KindPath }
func (k Key) IsLogical() bool { return k.kind == KindLogical }
func (k Key) IsZero() bool { return k.kind == 0 }

func (k Key) String() string {
	switch k.kind {
	case KindPath:
		return pathPrefix + k.value
	case KindLogical:
		return logicalPrefix + k.value
	default:
		return fmt.Sprintf("invalid:%q", k.value)
	}
}
