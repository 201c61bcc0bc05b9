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

package meta

import "github.com/mulatta/agentfs/internal/storage"

// Store is a thin namespace over the free functions in this package. It
// carries no state of its own — every operation is parameterized by the
// caller's transaction — but gives the overlay engine a single value to
// depend on and to substitute a fake for in tests.
type Store struct{}

// NewStore returns a Store. It exists only for symmetry with other
// constructors in the codebase; Store has no fields to initialize.
func NewStore() *Store { return &Store{} }

// CreateInode mints a fresh native record for a new file/dir/symlink,
// called by mkdir/create/symlink — never by copy-up, which instead
// writes at a preserved id via CopyUpInode.
func (s *Store) CreateInode(tx storage.WriteTx, layer storage.Layer, ino uint64, rec *InodeRecord) error {
	rec.Provenance = ProvenanceNative
	return PutInode(tx, layer, ino, rec)
}

// CopyUpInode writes base's record into the delta at the same id,
// stamping CopiedUp provenance, per spec §4.3 step 2.
func (s *Store) CopyUpInode(tx storage.WriteTx, ino uint64, base *InodeRecord) error {
	up := base.Clone()
	up.Provenance = ProvenanceCopiedUp
	up.OriginIno = ino
	return PutInode(tx, storage.LayerDelta, ino, up)
}

// DeleteInodeCascade removes ino's record, content, symlink target and
// xattrs from layer. Called once NLink has dropped to zero.
func (s *Store) DeleteInodeCascade(tx storage.WriteTx, layer storage.Layer, ino uint64) error {
	if err := DeleteContent(tx, layer, ino); err != nil {
		return err
	}
	if err := tx.Delete(storage.SymlinkKey(layer, ino)); err != nil {
		return err
	}
	names, err := ListXAttrs(tx, layer, ino)
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := RemoveXAttr(tx, layer, ino, n); err != nil {
			return err
		}
	}
	return DeleteInode(tx, layer, ino)
}

// DirHasEntries reports whether parent has any live (non-whited-out)
// child across either layer — used by rmdir's emptiness check.
func (s *Store) DirHasEntries(tx storage.ReadTx, parent uint64) (bool, error) {
	deltaEntries, err := ListChildren(tx, storage.LayerDelta, parent)
	if err != nil {
		return false, err
	}
	if len(deltaEntries) > 0 {
		return true, nil
	}
	baseEntries, err := ListChildren(tx, storage.LayerBase, parent)
	if err != nil {
		return false, err
	}
	if len(baseEntries) == 0 {
		return false, nil
	}
	whiteouts, err := ListWhiteouts(tx, parent)
	if err != nil {
		return false, err
	}
	for _, e := range baseEntries {
		if _, hidden := whiteouts[e.Name]; !hidden {
			return true, nil
		}
	}
	return false, nil
}
