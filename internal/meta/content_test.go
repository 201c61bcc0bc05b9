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

func withWrite(t *testing.T, backend storage.Backend, fn func(tx storage.WriteTx) error) {
	t.Helper()
	wtx, err := backend.BeginWrite(context.Background())
	require.NoError(t, err)
	require.NoError(t, fn(wtx))
	require.NoError(t, wtx.Commit())
}

func withRead(t *testing.T, backend storage.Backend, fn func(tx storage.ReadTx) error) {
	t.Helper()
	rtx, err := backend.BeginRead(context.Background())
	require.NoError(t, err)
	require.NoError(t, fn(rtx))
}

func TestWriteReadContentWithinOneChunk(t *testing.T) {
	backend := storage.NewMemBackend()

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 0, []byte("hello world"))
	})

	var buf [11]byte
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf[:])
		return err
	})
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello world", string(buf[:]))
}

func TestWriteContentSpansChunkBoundary(t *testing.T) {
	backend := storage.NewMemBackend()
	data := make([]byte, ChunkSize+100)
	for i := range data {
		data[i] = byte(i % 251)
	}

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 0, data)
	})

	buf := make([]byte, len(data))
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf)
		return err
	})
	require.Equal(t, len(data), n)
	assert.Equal(t, data, buf)
}

func TestReadContentPastEndOfFileIsShort(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 0, []byte("abc"))
	})

	buf := make([]byte, 10)
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf)
		return err
	})
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(buf[:n]))
}

func TestWriteContentOverwritesPartialChunk(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 0, []byte("hello world"))
	})
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 6, []byte("THERE"))
	})

	buf := make([]byte, 11)
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf)
		return err
	})
	require.Equal(t, 11, n)
	assert.Equal(t, "hello THERE", string(buf))
}

func TestTruncateContentShrinks(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 0, []byte("hello world"))
	})
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return TruncateContent(tx, storage.LayerDelta, 5, 5)
	})

	buf := make([]byte, 11)
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf)
		return err
	})
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestTruncateContentDropsChunksEntirelyBeyondSize(t *testing.T) {
	backend := storage.NewMemBackend()
	data := make([]byte, ChunkSize+100)
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 0, data)
	})
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return TruncateContent(tx, storage.LayerDelta, 5, 10)
	})

	buf := make([]byte, ChunkSize+100)
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf)
		return err
	})
	assert.Equal(t, 10, n)
}

func TestDeleteContentRemovesAllChunks(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerDelta, 5, 0, []byte("hello world"))
	})
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return DeleteContent(tx, storage.LayerDelta, 5)
	})

	buf := make([]byte, 11)
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf)
		return err
	})
	assert.Equal(t, 0, n)
}

func TestCopyContentBetweenLayers(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return WriteContent(tx, storage.LayerBase, 5, 0, []byte("base content"))
	})
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return CopyContent(tx, storage.LayerBase, storage.LayerDelta, 5)
	})

	buf := make([]byte, len("base content"))
	var n int
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		n, err = ReadContent(tx, storage.LayerDelta, 5, 0, buf)
		return err
	})
	require.Equal(t, len(buf), n)
	assert.Equal(t, "base content", string(buf))
}

func TestSymlinkPutGetAndCopy(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return PutSymlink(tx, storage.LayerBase, 9, "/target/path")
	})

	var target string
	var ok bool
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		target, ok, err = GetSymlink(tx, storage.LayerBase, 9)
		return err
	})
	require.True(t, ok)
	assert.Equal(t, "/target/path", target)

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return CopySymlink(tx, storage.LayerBase, storage.LayerDelta, 9)
	})
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		target, ok, err = GetSymlink(tx, storage.LayerDelta, 9)
		return err
	})
	require.True(t, ok)
	assert.Equal(t, "/target/path", target)
}
