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
	"context"
	"testing"

	"github.com/mulatta/agentfs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInodeRecordEncodeDecodeRoundTrips(t *testing.T) {
	rec := &InodeRecord{
		Mode:       ModeRegular | 0o644,
		UID:        1000,
		GID:        1000,
		NLink:      1,
		Size:       4096,
		Atime:      1700000000,
		Mtime:      1700000001,
		Ctime:      1700000002,
		Provenance: ProvenanceCopiedUp,
		OriginIno:  17,
	}

	got, err := DecodeInodeRecord(rec.Encode())
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeInodeRecordRejectsWrongLength(t *testing.T) {
	_, err := DecodeInodeRecord([]byte{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrCorruption)
}

func TestKindOfFromMode(t *testing.T) {
	assert.Equal(t, KindDir, KindOf(ModeDir|0o755))
	assert.Equal(t, KindSymlink, KindOf(ModeSymlink|0o777))
	assert.Equal(t, KindFile, KindOf(ModeRegular|0o644))
}

func TestInodeRecordKind(t *testing.T) {
	rec := &InodeRecord{Mode: ModeDir | 0o755}
	assert.Equal(t, KindDir, rec.Kind())
}

func TestInodeRecordCloneIsIndependent(t *testing.T) {
	rec := &InodeRecord{Mode: ModeRegular | 0o644, Size: 10}
	clone := rec.Clone()
	clone.Size = 999

	assert.EqualValues(t, 10, rec.Size)
	assert.EqualValues(t, 999, clone.Size)
}

func TestGetPutDeleteInode(t *testing.T) {
	backend := storage.NewMemBackend()
	ctx := context.Background()

	rec := &InodeRecord{Mode: ModeRegular | 0o644, UID: 1, GID: 1, NLink: 1}

	wtx, err := backend.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, PutInode(wtx, storage.LayerDelta, 5, rec))
	require.NoError(t, wtx.Commit())

	rtx, err := backend.BeginRead(ctx)
	require.NoError(t, err)
	got, ok, err := GetInode(rtx, storage.LayerDelta, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, ok, err = GetInode(rtx, storage.LayerBase, 5)
	require.NoError(t, err)
	assert.False(t, ok, "layers must not leak into one another")

	wtx2, err := backend.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, DeleteInode(wtx2, storage.LayerDelta, 5))
	require.NoError(t, wtx2.Commit())

	rtx2, err := backend.BeginRead(ctx)
	require.NoError(t, err)
	_, ok, err = GetInode(rtx2, storage.LayerDelta, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}
