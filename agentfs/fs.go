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

package agentfs

import (
	"context"
	"path"
	"strings"

	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/overlay"
	"github.com/mulatta/agentfs/internal/pathcache"
	"github.com/mulatta/agentfs/internal/storage"
)

// FileSystem is the stateless-per-call, path-addressed overlay
// filesystem of spec §4.5. Every method re-resolves its path argument
// against the cache and the current transaction view; no method is
// keyed by an opaque file descriptor.
type FileSystem struct {
	backend  storage.Backend
	store    *meta.Store
	engine   *overlay.Engine
	cache    *pathcache.Cache
	resolver *pathcache.Resolver
	rootIno  uint64
}

// Open mounts the database at cfg.Path (or an in-memory backend for
// ":memory:"), initializing it on first use and refusing to mount a
// database whose inode-id reservation invariant (spec §9) does not
// hold.
func Open(ctx context.Context, cfg Config) (*FileSystem, error) {
	backend, err := openBackend(cfg.Path)
	if err != nil {
		return nil, err
	}

	store := meta.NewStore()
	if err := bootstrap(ctx, backend); err != nil {
		_ = backend.Close()
		return nil, err
	}

	maxEntries := cfg.Cache.MaxEntries
	if cfg.Cache.Enabled && maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if !cfg.Cache.Enabled {
		maxEntries = 0
	}
	cache := pathcache.NewCache(maxEntries)

	engine := overlay.New(backend, store, cfg.Clock)
	resolver := pathcache.NewResolver(backend, cache, meta.RootIno)

	return &FileSystem{
		backend:  backend,
		store:    store,
		engine:   engine,
		cache:    cache,
		resolver: resolver,
		rootIno:  meta.RootIno,
	}, nil
}

func openBackend(p string) (storage.Backend, error) {
	if p == "" || p == ":memory:" {
		return storage.NewMemBackend(), nil
	}
	return storage.OpenBolt(p)
}

// bootstrap ensures META/next_ino, META/root_ino and the root directory
// inode exist, and validates the inode-id reservation invariant.
func bootstrap(ctx context.Context, backend storage.Backend) error {
	tx, err := backend.BeginWrite(ctx)
	if err != nil {
		return err
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Abort()
		}
	}()

	countersExist, err := hasKey(tx, storage.MetaKeyNextIno)
	if err != nil {
		return err
	}
	if !countersExist {
		if err := meta.InitCounters(tx, 0); err != nil {
			return err
		}
	}

	maxBase, err := maxBaseIno(tx)
	if err != nil {
		return err
	}
	if err := meta.ValidateReservation(tx, maxBase); err != nil {
		return err
	}

	// Spec §3: "Root inode is a reserved constant; it is always present
	// in the delta after first mount." If seeding populated only the
	// base layer, write the base root record into the delta unchanged
	// (its provenance is not set to CopiedUp, unlike ensureDelta's
	// copy-up); with no base root either, write a fresh directory record.
	if _, ok, err := tx.Get(storage.InodeKey(storage.LayerDelta, meta.RootIno)); err != nil {
		return err
	} else if !ok {
		root, ok, err := meta.GetInode(tx, storage.LayerBase, meta.RootIno)
		if err != nil {
			return err
		}
		if !ok {
			root = &meta.InodeRecord{Mode: meta.ModeDir | 0o755, NLink: 1}
		}
		if err := meta.PutInode(tx, storage.LayerDelta, meta.RootIno, root); err != nil {
			return err
		}
	}

	commit = true
	return tx.Commit()
}

func hasKey(tx storage.ReadTx, key []byte) (bool, error) {
	_, ok, err := tx.Get(key)
	return ok, err
}

func maxBaseIno(tx storage.ReadTx) (uint64, error) {
	var max uint64
	prefix := storage.InodeLayerPrefix(storage.LayerBase)
	err := tx.ForEachPrefix(prefix, func(key, _ []byte) error {
		ino := parseInoSuffix(prefix, key)
		if ino > max {
			max = ino
		}
		return nil
	})
	return max, err
}

func parseInoSuffix(prefix, key []byte) uint64 {
	suffix := key[len(prefix):]
	var ino uint64
	for _, c := range suffix {
		if c < '0' || c > '9' {
			break
		}
		ino = ino*10 + uint64(c-'0')
	}
	return ino
}

// Close releases the backend's resources.
func (fs *FileSystem) Close() error { return fs.backend.Close() }

// CacheStats reports the path-resolution cache's current counters.
func (fs *FileSystem) CacheStats() pathcache.Stats { return fs.cache.Stats() }

// ClearCache drops every cached resolution binding.
func (fs *FileSystem) ClearCache() { fs.cache.Clear() }

func splitPath(p string) (dir, base string) {
	norm := pathcache.Normalize(p)
	if norm == "/" {
		return "/", ""
	}
	return path.Dir(norm), path.Base(norm)
}

// resolveParent resolves p's parent directory, following symlinks fully.
func (fs *FileSystem) resolveParent(ctx context.Context, p string) (uint64, string, error) {
	dir, base := splitPath(p)
	if base == "" {
		return 0, "", apperr.New("resolve", p, apperr.KindInvalidArgument)
	}
	res, err := fs.resolver.Resolve(ctx, dir, true)
	if err != nil {
		return 0, "", apperr.WithPath(err, dir)
	}
	if res.Kind != meta.KindDir {
		return 0, "", apperr.New("resolve", dir, apperr.KindNotDirectory)
	}
	return res.Ino, base, nil
}

// resolve resolves p entirely, following a trailing symlink iff
// followSymlink is true (the stat/lstat distinction).
func (fs *FileSystem) resolve(ctx context.Context, p string, followSymlink bool) (pathcache.Resolved, error) {
	res, err := fs.resolver.Resolve(ctx, p, followSymlink)
	if err != nil {
		return pathcache.Resolved{}, apperr.WithPath(err, p)
	}
	return res, nil
}

func isRoot(p string) bool { return pathcache.Normalize(p) == "/" || strings.TrimSpace(p) == "" }
