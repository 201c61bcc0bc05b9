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

package pathcache

import (
	"context"
	"strings"

	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/overlay"
	"github.com/mulatta/agentfs/internal/storage"
)

// MaxSymlinkDepth bounds symlink-following during path resolution (spec
// §4.4: "default 40; exceed -> ELOOP").
const MaxSymlinkDepth = 40

// Resolver walks absolute logical paths against the overlay view,
// consulting Cache before falling through to a directory lookup, and
// following symlinks in internal path components.
type Resolver struct {
	backend storage.Backend
	cache   *Cache
	rootIno uint64
}

// NewResolver returns a Resolver over backend, using cache for memoized
// bindings and rootIno as the resolution root.
func NewResolver(backend storage.Backend, cache *Cache, rootIno uint64) *Resolver {
	return &Resolver{backend: backend, cache: cache, rootIno: rootIno}
}

// Cache exposes the resolver's underlying Cache for invalidation calls
// from mutating operations.
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolved is what Resolve returns: the final component's binding.
type Resolved struct {
	Ino  uint64
	Kind meta.Kind
}

// Resolve walks path from the root, following symlinks in interior
// components (and, when followLastSymlink is true, in the final
// component too — the lstat/stat distinction).
func (r *Resolver) Resolve(ctx context.Context, path string, followLastSymlink bool) (Resolved, error) {
	norm := Normalize(path)
	if norm == "/" {
		return Resolved{Ino: r.rootIno, Kind: meta.KindDir}, nil
	}

	var out Resolved
	err := withRead(ctx, r.backend, func(tx storage.ReadTx) error {
		var err error
		out, err = r.resolveLocked(tx, norm, followLastSymlink, 0)
		return err
	})
	return out, err
}

func withRead(ctx context.Context, backend storage.Backend, fn func(tx storage.ReadTx) error) error {
	tx, err := backend.BeginRead(ctx)
	if err != nil {
		return err
	}
	return fn(tx)
}

func (r *Resolver) resolveLocked(tx storage.ReadTx, path string, followLastSymlink bool, depth int) (Resolved, error) {
	if depth > MaxSymlinkDepth {
		return Resolved{}, apperr.New("resolve", path, apperr.KindTooManyLinks)
	}

	components := strings.Split(strings.TrimPrefix(path, "/"), "/")
	ino := r.rootIno
	kind := meta.KindDir

	for i, name := range components {
		last := i == len(components)-1

		if e, ok := r.cache.Get(joinPrefix(components[:i+1])); ok {
			ino, kind = e.Ino, e.Kind
		} else {
			childIno, childKind, err := overlay.LookupChild(tx, ino, name)
			if err != nil {
				return Resolved{}, err
			}
			ino, kind = childIno, childKind
			r.cache.Put(joinPrefix(components[:i+1]), ino, kind)
		}

		if kind == meta.KindSymlink && (!last || followLastSymlink) {
			target, err := overlay.ReadSymlinkTx(tx, ino)
			if err != nil {
				return Resolved{}, err
			}
			resolvedPath := joinSymlinkTarget(components[:i], target)
			res, err := r.resolveLocked(tx, resolvedPath, followLastSymlink, depth+1)
			if err != nil {
				return Resolved{}, err
			}
			ino, kind = res.Ino, res.Kind
		} else if !last && kind != meta.KindDir {
			return Resolved{}, apperr.New("resolve", name, apperr.KindNotDirectory)
		}
	}

	return Resolved{Ino: ino, Kind: kind}, nil
}

func joinPrefix(components []string) string {
	return "/" + strings.Join(components, "/")
}

func joinSymlinkTarget(dirComponents []string, target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	return joinPrefix(dirComponents) + "/" + target
}
