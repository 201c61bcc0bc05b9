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

import (
	"testing"

	"github.com/mulatta/agentfs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateInodeStampsNativeProvenance(t *testing.T) {
	backend := storage.NewMemBackend()
	s := NewStore()

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return s.CreateInode(tx, storage.LayerDelta, 5, &InodeRecord{Mode: ModeRegular | 0o644})
	})

	var rec *InodeRecord
	withRead(t, backend, func(tx storage.ReadTx) error {
		var ok bool
		var err error
		rec, ok, err = GetInode(tx, storage.LayerDelta, 5)
		require.True(t, ok)
		return err
	})
	assert.Equal(t, ProvenanceNative, rec.Provenance)
}

func TestStoreCopyUpInodePreservesIdAndStampsProvenance(t *testing.T) {
	backend := storage.NewMemBackend()
	s := NewStore()
	base := &InodeRecord{Mode: ModeRegular | 0o644, Size: 10}

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return s.CopyUpInode(tx, 7, base)
	})

	var rec *InodeRecord
	withRead(t, backend, func(tx storage.ReadTx) error {
		var ok bool
		var err error
		rec, ok, err = GetInode(tx, storage.LayerDelta, 7)
		require.True(t, ok)
		return err
	})
	assert.Equal(t, ProvenanceCopiedUp, rec.Provenance)
	assert.EqualValues(t, 7, rec.OriginIno)
	assert.EqualValues(t, 10, rec.Size)
}

func TestStoreDeleteInodeCascadeRemovesEverything(t *testing.T) {
	backend := storage.NewMemBackend()
	s := NewStore()

	withWrite(t, backend, func(tx storage.WriteTx) error {
		if err := PutInode(tx, storage.LayerDelta, 5, &InodeRecord{Mode: ModeRegular | 0o644}); err != nil {
			return err
		}
		if err := WriteContent(tx, storage.LayerDelta, 5, 0, []byte("data")); err != nil {
			return err
		}
		return SetXAttr(tx, storage.LayerDelta, 5, "user.a", []byte("1"))
	})

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return s.DeleteInodeCascade(tx, storage.LayerDelta, 5)
	})

	withRead(t, backend, func(tx storage.ReadTx) error {
		_, ok, err := GetInode(tx, storage.LayerDelta, 5)
		assert.False(t, ok)
		return err
	})
	withRead(t, backend, func(tx storage.ReadTx) error {
		names, err := ListXAttrs(tx, storage.LayerDelta, 5)
		assert.Empty(t, names)
		return err
	})
}

func TestStoreDirHasEntriesAcrossLayersAndWhiteouts(t *testing.T) {
	backend := storage.NewMemBackend()
	s := NewStore()

	withRead(t, backend, func(tx storage.ReadTx) error {
		has, err := s.DirHasEntries(tx, 1)
		assert.False(t, has)
		return err
	})

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return PutChild(tx, storage.LayerBase, 1, "a.txt", 2)
	})
	withRead(t, backend, func(tx storage.ReadTx) error {
		has, err := s.DirHasEntries(tx, 1)
		assert.True(t, has)
		return err
	})

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return PutWhiteout(tx, 1, "a.txt")
	})
	withRead(t, backend, func(tx storage.ReadTx) error {
		has, err := s.DirHasEntries(tx, 1)
		assert.False(t, has, "a whited-out base entry must not count as live")
		return err
	})

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return PutChild(tx, storage.LayerDelta, 1, "b.txt", 3)
	})
	withRead(t, backend, func(tx storage.ReadTx) error {
		has, err := s.DirHasEntries(tx, 1)
		assert.True(t, has)
		return err
	})
}
