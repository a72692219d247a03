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

// Package detect reports which tracked files changed since they were last
// loaded.
//
// Two implementations share the Detector contract:
// - PollDetector stats every tracked file when asked (default)
// - NotifyDetector collects fsnotify events between checks
//
// Detectors work on cleaned absolute paths and know nothing about resource
// keys or types.
package detect

// Detector reports tracked paths that became stale.
type Detector interface {
	// Track starts tracking path. Tracking an already tracked path changes
	// nothing and never drops an unreported change. A missing file can be
	// tracked; its appearance is a change.
	Track(path string) error

	// StaleKeys returns the tracked paths that changed since they were first
	// tracked or last reported, in no particular order. Each change is
	// reported once; reporting advances the recorded state.
	StaleKeys() []string

	// Tracked returns the number of tracked paths.
	Tracked() int

	// Close releases detector resources.
	Close() error
}
