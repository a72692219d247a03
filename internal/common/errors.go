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

package common

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedKeyKind = errors.New("unsupported key kind")
	ErrInvalidKey         = errors.New("invalid key")
	ErrIO                 = errors.New("I/O error")
	ErrDecode             = errors.New("decode error")
	ErrAlreadyCached      = errors.New("already cached")
	ErrCycle              = errors.New("resource dependency cycle")
	ErrDetectorClosed     = errors.New("detector closed")
)

// IOError reports a failed open or read of a path-backed resource.
// It matches ErrIO with errors.Is and unwraps to the underlying cause.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("I/O error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports ErrIO as a match so callers can test the error kind without
// caring about the cause.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIOError wraps err for op on path. A nil err yields nil.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}
