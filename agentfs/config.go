// Copyright 2024 The AgentFS Authors.
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

// Package agentfs is the public, path-addressed API of spec §4.5: a
// user-space copy-on-write overlay filesystem backed by a single
// database file. FileSystem composes internal/storage,
// internal/meta, internal/overlay and internal/pathcache into the
// stateless-per-call surface host extensions and the CLI speak
// through.
package agentfs

import "github.com/mulatta/agentfs/internal/overlay"

// CacheConfig controls the path-resolution cache, per spec §6's
// open-time configuration: "{ cache: { enabled: bool, max_entries: u32 } }".
type CacheConfig struct {
	Enabled    bool
	MaxEntries int
}

// Config is the open-time configuration of spec §6:
// "{ path: string | ':memory:'; cache: {...} }".
type Config struct {
	// Path is the backend database file, or ":memory:" for a
	// non-persistent backend.
	Path string

	Cache CacheConfig

	// Clock overrides time.Now for tests; nil uses the real clock.
	Clock overlay.Clock
}

// DefaultCacheMaxEntries is used when Cache.Enabled is true but
// MaxEntries is left at zero.
const DefaultCacheMaxEntries = 16384
