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
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/storage"
)

// SeedEntry describes one object to materialize into the base layer.
// Dir entries need no Content/LinkTarget; file entries set Content;
// symlink entries set LinkTarget.
type SeedEntry struct {
	Path       string
	Kind       meta.Kind
	Mode       uint32
	UID        uint32
	GID        uint32
	Content    []byte
	LinkTarget string
}

// Seed writes entries into a fresh database's base layer and then
// initializes the delta's inode-id counter strictly above the highest
// allocated base id, satisfying the reservation invariant of spec §9.
// It must be called on a backend that has never been opened through
// Open (no bootstrap has run yet).
func Seed(ctx context.Context, backend storage.Backend, entries []SeedEntry) error {
	sorted := make([]SeedEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.Count(sorted[i].Path, "/") < strings.Count(sorted[j].Path, "/")
	})

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

	rootRec := &meta.InodeRecord{Mode: meta.ModeDir | 0o755, NLink: 1}
	if err := meta.PutInode(tx, storage.LayerBase, meta.RootIno, rootRec); err != nil {
		return err
	}

	nextIno := meta.RootIno + 1
	dirIno := map[string]uint64{"/": meta.RootIno}

	for _, e := range sorted {
		norm := normalizeSeedPath(e.Path)
		if norm == "/" {
			continue
		}
		parentPath := path.Dir(norm)
		parent, ok := dirIno[parentPath]
		if !ok {
			return fmt.Errorf("agentfs: seed entry %q has no seeded parent directory %q", e.Path, parentPath)
		}

		ino := nextIno
		nextIno++

		mode := (e.Mode &^ meta.ModeTypeMask)
		switch e.Kind {
		case meta.KindDir:
			mode |= meta.ModeDir
		case meta.KindSymlink:
			mode |= meta.ModeSymlink
		default:
			mode |= meta.ModeRegular
		}

		rec := &meta.InodeRecord{Mode: mode, UID: e.UID, GID: e.GID, NLink: 1}
		if e.Kind == meta.KindFile {
			rec.Size = uint64(len(e.Content))
		}
		if err := meta.PutInode(tx, storage.LayerBase, ino, rec); err != nil {
			return err
		}
		if err := meta.PutChild(tx, storage.LayerBase, parent, path.Base(norm), ino); err != nil {
			return err
		}

		switch e.Kind {
		case meta.KindDir:
			dirIno[norm] = ino
		case meta.KindSymlink:
			if err := meta.PutSymlink(tx, storage.LayerBase, ino, e.LinkTarget); err != nil {
				return err
			}
		default:
			if len(e.Content) > 0 {
				if err := meta.WriteContent(tx, storage.LayerBase, ino, 0, e.Content); err != nil {
					return err
				}
			}
		}
	}

	if err := meta.InitCounters(tx, nextIno-1); err != nil {
		return err
	}

	commit = true
	return tx.Commit()
}

func normalizeSeedPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
