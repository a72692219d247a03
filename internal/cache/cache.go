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

// Package cache provides the in-memory tables backing the resource store.
//
// Design Principles:
// 1. No eviction - an entry stays until the process exits
// 2. Deterministic iteration - entries are visited in insertion order
//
// Currently provides:
// - Table: keyed entry table with insertion-ordered iteration (used by store)
package cache

// Stats describes the current size of a table.
type Stats struct {
	Size int
}
