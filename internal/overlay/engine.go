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

// Package overlay implements the copy-up engine of spec §4.3: it
// composes the base and delta directory/inode stores into one logical
// namespace, materializes base objects into the delta on first
// mutation while preserving inode-number stability, and enforces the
// whiteout/rename/link/remove semantics spec §4.3 specifies.
package overlay

import (
	"context"
	"sort"
	"time"

	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/storage"
)

// Clock abstracts wall-clock time so tests can control timestamps
// deterministically, grounded on the teacher's own clock package.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock is the default Clock, backed by time.Now.
var RealClock Clock = realClock{}

// Engine is the copy-up engine. It owns the Storage Backend handle, and
// every exported method runs inside exactly one transaction, per spec
// §5's concurrency model.
type Engine struct {
	backend storage.Backend
	store   *meta.Store
	clock   Clock
}

// New returns an Engine over backend, using store for entity access and
// clock for timestamps.
func New(backend storage.Backend, store *meta.Store, clock Clock) *Engine {
	if clock == nil {
		clock = RealClock
	}
	return &Engine{backend: backend, store: store, clock: clock}
}

func (e *Engine) now() int64 { return e.clock.Now().UnixNano() }

// Backend exposes the underlying storage backend, for agentfs.FileSystem
// to run cross-cutting reads (statfs) without duplicating the dial-out.
func (e *Engine) Backend() storage.Backend { return e.backend }

func (e *Engine) withRead(ctx context.Context, fn func(tx storage.ReadTx) error) error {
	tx, err := e.backend.BeginRead(ctx)
	if err != nil {
		return err
	}
	return fn(tx)
}

func (e *Engine) withWrite(ctx context.Context, fn func(tx storage.WriteTx) error) error {
	tx, err := e.backend.BeginWrite(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Abort()
		return err
	}
	return tx.Commit()
}

// LookupChild resolves one path component: the delta entry wins when
// present; otherwise a whiteout hides the base entry; otherwise the base
// entry (if any) resolves. Returns apperr KindNotFound when neither
// layer has a live binding.
func LookupChild(tx storage.ReadTx, parent uint64, name string) (ino uint64, kind meta.Kind, err error) {
	if child, ok, err := meta.GetChild(tx, storage.LayerDelta, parent, name); err != nil {
		return 0, 0, err
	} else if ok {
		return resolveKind(tx, storage.LayerDelta, child)
	}

	whited, err := meta.HasWhiteout(tx, parent, name)
	if err != nil {
		return 0, 0, err
	}
	if whited {
		return 0, 0, apperr.New("lookup", name, apperr.KindNotFound)
	}

	if child, ok, err := meta.GetChild(tx, storage.LayerBase, parent, name); err != nil {
		return 0, 0, err
	} else if ok {
		return resolveKind(tx, storage.LayerBase, child)
	}

	return 0, 0, apperr.New("lookup", name, apperr.KindNotFound)
}

func resolveKind(tx storage.ReadTx, layer storage.Layer, ino uint64) (uint64, meta.Kind, error) {
	_ = layer
	_, _, kd, err := loadRecord(tx, ino)
	if err != nil {
		return 0, 0, err
	}
	return ino, kd, nil
}

// loadRecord returns the currently-effective record for ino (delta if
// present, else base), and which layer it came from.
func loadRecord(tx storage.ReadTx, ino uint64) (*meta.InodeRecord, storage.Layer, meta.Kind, error) {
	if rec, ok, err := meta.GetInode(tx, storage.LayerDelta, ino); err != nil {
		return nil, 0, 0, err
	} else if ok {
		return rec, storage.LayerDelta, rec.Kind(), nil
	}
	rec, ok, err := meta.GetInode(tx, storage.LayerBase, ino)
	if err != nil {
		return nil, 0, 0, err
	}
	if !ok {
		return nil, 0, 0, apperr.New("stat", "", apperr.KindNotFound)
	}
	return rec, storage.LayerBase, rec.Kind(), nil
}

// ReadSymlinkTx returns ino's symlink target within an already-open
// transaction, for use by the path resolver while it is mid-walk.
func ReadSymlinkTx(tx storage.ReadTx, ino uint64) (string, error) {
	_, layer, kind, err := loadRecord(tx, ino)
	if err != nil {
		return "", err
	}
	if kind != meta.KindSymlink {
		return "", apperr.New("readlink", "", apperr.KindInvalidArgument)
	}
	target, ok, err := meta.GetSymlink(tx, layer, ino)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.New("readlink", "", apperr.KindIO)
	}
	return target, nil
}

// Stat returns ino's currently-effective inode record.
func (e *Engine) Stat(ctx context.Context, ino uint64) (*meta.InodeRecord, error) {
	var out *meta.InodeRecord
	err := e.withRead(ctx, func(tx storage.ReadTx) error {
		rec, _, _, err := loadRecord(tx, ino)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// Readlink returns ino's symlink target.
func (e *Engine) Readlink(ctx context.Context, ino uint64) (string, error) {
	var out string
	err := e.withRead(ctx, func(tx storage.ReadTx) error {
		target, err := ReadSymlinkTx(tx, ino)
		out = target
		return err
	})
	return out, err
}

// ReadAt reads ino's content at offset into buf.
func (e *Engine) ReadAt(ctx context.Context, ino uint64, offset int64, buf []byte) (int, error) {
	var n int
	err := e.withRead(ctx, func(tx storage.ReadTx) error {
		_, layer, _, err := loadRecord(tx, ino)
		if err != nil {
			return err
		}
		n, err = meta.ReadContent(tx, layer, ino, offset, buf)
		return err
	})
	return n, err
}

// GetXAttr returns the named extended attribute on ino.
func (e *Engine) GetXAttr(ctx context.Context, ino uint64, name string) ([]byte, error) {
	var out []byte
	err := e.withRead(ctx, func(tx storage.ReadTx) error {
		_, layer, _, err := loadRecord(tx, ino)
		if err != nil {
			return err
		}
		v, ok, err := meta.GetXAttr(tx, layer, ino, name)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New("getxattr", name, apperr.KindNotFound)
		}
		out = v
		return nil
	})
	return out, err
}

// ListXAttr lists the extended attribute names on ino.
func (e *Engine) ListXAttr(ctx context.Context, ino uint64) ([]string, error) {
	var out []string
	err := e.withRead(ctx, func(tx storage.ReadTx) error {
		_, layer, _, err := loadRecord(tx, ino)
		if err != nil {
			return err
		}
		out, err = meta.ListXAttrs(tx, layer, ino)
		return err
	})
	return out, err
}

// DirListing is one readdir-ready entry.
type DirListing struct {
	Name string
	Ino  uint64
	Kind meta.Kind
}

// Readdir returns parent's merged, lexicographically-ordered listing
// (spec §4.2: base minus whiteouts, unioned with delta, delta wins).
func (e *Engine) Readdir(ctx context.Context, parent uint64) ([]DirListing, error) {
	var out []DirListing
	err := e.withRead(ctx, func(tx storage.ReadTx) error {
		if _, _, kind, err := loadRecord(tx, parent); err != nil {
			return err
		} else if kind != meta.KindDir {
			return apperr.New("readdir", "", apperr.KindNotDirectory)
		}

		baseEntries, err := meta.ListChildren(tx, storage.LayerBase, parent)
		if err != nil {
			return err
		}
		deltaEntries, err := meta.ListChildren(tx, storage.LayerDelta, parent)
		if err != nil {
			return err
		}
		whiteouts, err := meta.ListWhiteouts(tx, parent)
		if err != nil {
			return err
		}
		merged := meta.MergeListing(baseEntries, deltaEntries, whiteouts)
		sort.Slice(merged, func(i, j int) bool { return merged[i].Name < merged[j].Name })

		out = make([]DirListing, 0, len(merged))
		for _, m := range merged {
			_, _, kind, err := loadRecord(tx, m.Ino)
			if err != nil {
				return err
			}
			out = append(out, DirListing{Name: m.Name, Ino: m.Ino, Kind: kind})
		}
		return nil
	})
	return out, err
}

// StatFS reports aggregate usage across both layers.
type FSStats struct {
	BytesUsed uint64
	Inodes    uint64
}

func (e *Engine) StatFS(ctx context.Context) (FSStats, error) {
	var out FSStats
	err := e.withRead(ctx, func(tx storage.ReadTx) error {
		seen := make(map[uint64]bool)
		for _, layer := range []storage.Layer{storage.LayerBase, storage.LayerDelta} {
			prefix := storage.InodeLayerPrefix(layer)
			if err := tx.ForEachPrefix(prefix, func(key, value []byte) error {
				rec, err := meta.DecodeInodeRecord(value)
				if err != nil {
					return err
				}
				ino := inoFromInodeKey(prefix, key)
				if !seen[ino] {
					seen[ino] = true
					out.Inodes++
				}
				out.BytesUsed += rec.Size
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func inoFromInodeKey(prefix, key []byte) uint64 {
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
