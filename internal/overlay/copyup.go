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

package overlay

import (
	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/storage"
)

// ensureDelta returns ino's delta-layer record, copying it up from the
// base layer first if it is not yet present there. This is the copy-up
// procedure of spec §4.3, steps 1-4: the delta record is written at the
// *same* id as the base record, content/symlink/xattrs are duplicated
// verbatim, and existing directory entries are left untouched (they
// already point at the unchanged id).
func (e *Engine) ensureDelta(tx storage.WriteTx, ino uint64) (*meta.InodeRecord, error) {
	if rec, ok, err := meta.GetInode(tx, storage.LayerDelta, ino); err != nil {
		return nil, err
	} else if ok {
		return rec, nil
	}

	base, ok, err := meta.GetInode(tx, storage.LayerBase, ino)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New("copy-up", "", apperr.KindIO)
	}

	if err := e.store.CopyUpInode(tx, ino, base); err != nil {
		return nil, err
	}

	switch base.Kind() {
	case meta.KindFile:
		if err := meta.CopyContent(tx, storage.LayerBase, storage.LayerDelta, ino); err != nil {
			return nil, err
		}
	case meta.KindSymlink:
		if err := meta.CopySymlink(tx, storage.LayerBase, storage.LayerDelta, ino); err != nil {
			return nil, err
		}
		// KindDir: no content to copy, inode record alone suffices.
	}
	if err := meta.CopyXAttrs(tx, storage.LayerBase, storage.LayerDelta, ino); err != nil {
		return nil, err
	}

	// Step 4: directory entries pointing at ino in the base are left in
	// place. No delta-side shadow entry is minted for them: MergeListing
	// (internal/meta/dir.go) already unions base and delta children by
	// name at read time, so the base binding continues to resolve ino
	// correctly without a mirrored copy, and copying it would just be a
	// second place for the same (parent, name) -> ino fact to go stale.

	up := base.Clone()
	up.Provenance = meta.ProvenanceCopiedUp
	up.OriginIno = ino
	return up, nil
}
