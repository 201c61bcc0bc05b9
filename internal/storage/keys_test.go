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

package storage

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkKeyOrdersByOffset(t *testing.T) {
	offsets := []uint64{0, 1, 64 * 1024, 128 * 1024, 1 << 40}
	keys := make([][]byte, len(offsets))
	for i, o := range offsets {
		keys[i] = ChunkKey(LayerDelta, 7, o)
	}

	sorted := append([][]byte(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })

	assert.Equal(t, keys, sorted, "ChunkKey must be byte-order sortable by offset")
}

func TestChunkOffsetFromKeyRoundTrips(t *testing.T) {
	prefix := ChunkLayerInoPrefix(LayerDelta, 7)
	key := ChunkKey(LayerDelta, 7, 131072)

	got, err := ChunkOffsetFromKey(prefix, key)
	require.NoError(t, err)
	assert.EqualValues(t, 131072, got)
}

func TestDirNameFromKeyRoundTrips(t *testing.T) {
	prefix := DirListPrefix(LayerBase, 3)
	key := DirEntryKey(LayerBase, 3, "notes.txt")

	assert.Equal(t, "notes.txt", DirNameFromKey(prefix, key))
}

func TestInodeKeyDistinctAcrossLayers(t *testing.T) {
	base := InodeKey(LayerBase, 5)
	delta := InodeKey(LayerDelta, 5)
	assert.NotEqual(t, base, delta)
	assert.Contains(t, string(base), "BASE")
	assert.Contains(t, string(delta), "DELTA")
}

func TestEncodeDecodeUint64RoundTrips(t *testing.T) {
	for _, v := range []uint64{0, 1, 42, 1 << 63} {
		got, err := DecodeUint64(EncodeUint64(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecodeUint64RejectsWrongLength(t *testing.T) {
	_, err := DecodeUint64([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestWhiteoutKeyScopedToParent(t *testing.T) {
	prefix := WhiteoutListPrefix(10)
	key := WhiteoutKey(10, "gone.txt")
	assert.True(t, bytes.HasPrefix(key, prefix))

	other := WhiteoutKey(11, "gone.txt")
	assert.False(t, bytes.HasPrefix(other, prefix))
}
