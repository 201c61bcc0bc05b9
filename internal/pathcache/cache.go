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

// Package pathcache implements the bounded path-resolution cache and the
// resolver that walks logical paths against the overlay view, per spec
// §4.4. The cache is generalized from the dentry-keyed LRU in the
// riverlytech-art reference overlay (parentIno+name -> child ino) to a
// full normalized-path-keyed LRU, which is what makes subtree-prefix
// invalidation under directory rename/rmdir possible.
package pathcache

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mulatta/agentfs/internal/meta"
)

// Entry is the value stored per cached path: a resolution binding only,
// never an attribute snapshot (spec §4.4, §9: "storing attribute
// snapshots would create a second coherence problem").
type Entry struct {
	Ino        uint64
	Kind       meta.Kind
	Generation uint64
}

// Stats mirrors spec §4.4's CacheStats: hits, misses, entries and the
// derived hit rate. A disabled cache reports the "not present" sentinel
// via Enabled == false.
type Stats struct {
	Enabled bool
	Hits    uint64
	Misses  uint64
	Entries int
}

func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a bounded, approximate-LRU path->binding cache. It is safe
// for concurrent use; invalidation holds the lock only long enough to
// remove the affected keys (spec §5).
type Cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[string, Entry]
	enabled bool
	gen     uint64
	hits    uint64
	misses  uint64
}

// NewCache returns a Cache with room for maxEntries bindings. maxEntries
// <= 0 disables the cache entirely: Get always misses, Put is a no-op,
// and Stats reports Enabled == false.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		return &Cache{enabled: false}
	}
	l, _ := lru.New[string, Entry](maxEntries)
	return &Cache{lru: l, enabled: true}
}

// Normalize collapses a path to the canonical form cache keys use:
// absolute, no trailing slash (except the root itself), no "." or ".."
// segments, no repeated slashes.
func Normalize(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	var out []string
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		if p == ".." {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

// Get looks up the normalized path in the cache.
func (c *Cache) Get(path string) (Entry, bool) {
	if !c.enabled {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(path)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return e, ok
}

// Put records path's resolution binding, stamping the current
// generation counter.
func (c *Cache) Put(path string, ino uint64, kind meta.Kind) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Add(path, Entry{Ino: ino, Kind: kind, Generation: c.gen})
}

// Invalidate removes exactly the given path's binding.
func (c *Cache) Invalidate(path string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(path)
}

// InvalidateSubtree removes path's own binding plus every cached key
// with prefix path+"/" — the recursive invalidation spec §4.4 requires
// for rmdir and directory rename.
func (c *Cache) InvalidateSubtree(path string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := path
	if prefix != "/" {
		prefix += "/"
	}
	var toRemove []string
	for _, k := range c.lru.Keys() {
		if k == path || strings.HasPrefix(k, prefix) {
			toRemove = append(toRemove, k)
		}
	}
	for _, k := range toRemove {
		c.lru.Remove(k)
	}
}

// InvalidateRename applies the table in spec §4.4 for rename(a, b): a
// and b always; their subtrees too when isDir.
func (c *Cache) InvalidateRename(a, b string, isDir bool) {
	if !c.enabled {
		return
	}
	if isDir {
		c.InvalidateSubtree(a)
		c.InvalidateSubtree(b)
		return
	}
	c.Invalidate(a)
	c.Invalidate(b)
}

// Clear drops every cached binding.
func (c *Cache) Clear() {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Stats reports the cache's current counters.
func (c *Cache) Stats() Stats {
	if !c.enabled {
		return Stats{Enabled: false}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Enabled: true, Hits: c.hits, Misses: c.misses, Entries: c.lru.Len()}
}
