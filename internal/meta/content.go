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
	"github.com/mulatta/agentfs/internal/storage"
)

// ChunkSize is the fixed content chunk granularity. The baseline design
// (spec §9, "open question — partial copy-up") copies whole files on
// first write, but content is still laid out in fixed chunks so that a
// later move to chunk-granular copy-up only changes the copy-up
// procedure, not the storage layout.
const ChunkSize = 64 * 1024

// ReadContent fills buf with the bytes of ino's content in layer starting
// at offset, returning the number of bytes actually read (short of
// len(buf) at end-of-file, mirroring pread).
func ReadContent(tx storage.ReadTx, layer storage.Layer, ino uint64, offset int64, buf []byte) (int, error) {
	if len(buf) == 0 || offset < 0 {
		return 0, nil
	}
	start := uint64(offset)
	end := start + uint64(len(buf))

	read := 0
	prefix := storage.ChunkLayerInoPrefix(layer, ino)
	err := tx.ForEachPrefix(prefix, func(key, value []byte) error {
		chunkOff, err := storage.ChunkOffsetFromKey(prefix, key)
		if err != nil {
			return err
		}
		if chunkOff+ChunkSize <= start || chunkOff >= end {
			return nil
		}
		copyFromChunkStart := uint64(0)
		if chunkOff < start {
			copyFromChunkStart = start - chunkOff
		}
		if copyFromChunkStart >= uint64(len(value)) {
			return nil
		}
		srcSlice := value[copyFromChunkStart:]
		destOff := (chunkOff + copyFromChunkStart) - start
		if destOff >= uint64(len(buf)) {
			return nil
		}
		n := copy(buf[destOff:], srcSlice)
		if destOff+uint64(n) > uint64(read) {
			read = int(destOff) + n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return read, nil
}

// WriteContent writes data into ino's content in layer starting at
// offset, crossing chunk boundaries as needed and read-modify-writing
// partial chunk edges.
func WriteContent(tx storage.WriteTx, layer storage.Layer, ino uint64, offset int64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	pos := uint64(offset)
	remaining := data
	for len(remaining) > 0 {
		chunkOff := (pos / ChunkSize) * ChunkSize
		withinChunk := pos - chunkOff
		space := uint64(ChunkSize) - withinChunk
		n := uint64(len(remaining))
		if n > space {
			n = space
		}

		var chunk []byte
		existing, ok, err := tx.Get(storage.ChunkKey(layer, ino, chunkOff))
		if err != nil {
			return err
		}
		if ok {
			chunk = make([]byte, len(existing))
			copy(chunk, existing)
		}
		needLen := int(withinChunk + n)
		if len(chunk) < needLen {
			grown := make([]byte, needLen)
			copy(grown, chunk)
			chunk = grown
		}
		copy(chunk[withinChunk:], remaining[:n])

		if err := tx.Put(storage.ChunkKey(layer, ino, chunkOff), chunk); err != nil {
			return err
		}

		pos += n
		remaining = remaining[n:]
	}
	return nil
}

// TruncateContent resizes ino's content in layer to size, dropping
// chunks entirely beyond size and shrinking the boundary chunk.
func TruncateContent(tx storage.WriteTx, layer storage.Layer, ino uint64, size uint64) error {
	prefix := storage.ChunkLayerInoPrefix(layer, ino)
	var toDelete [][]byte
	var boundaryKey []byte
	var boundaryKeep uint64

	err := tx.ForEachPrefix(prefix, func(key, value []byte) error {
		chunkOff, err := storage.ChunkOffsetFromKey(prefix, key)
		if err != nil {
			return err
		}
		switch {
		case chunkOff >= size:
			k := make([]byte, len(key))
			copy(k, key)
			toDelete = append(toDelete, k)
		case chunkOff+uint64(len(value)) > size:
			k := make([]byte, len(key))
			copy(k, key)
			boundaryKey = k
			boundaryKeep = size - chunkOff
		}
		return nil
	})
	if err != nil {
		return err
	}

	if boundaryKey != nil {
		v, ok, err := tx.Get(boundaryKey)
		if err != nil {
			return err
		}
		if ok && uint64(len(v)) > boundaryKeep {
			if err := tx.Put(boundaryKey, v[:boundaryKeep]); err != nil {
				return err
			}
		}
	}
	for _, k := range toDelete {
		if err := tx.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// DeleteContent removes every chunk belonging to ino in layer, used when
// an inode's link count drops to zero.
func DeleteContent(tx storage.WriteTx, layer storage.Layer, ino uint64) error {
	prefix := storage.ChunkLayerInoPrefix(layer, ino)
	var keys [][]byte
	err := tx.ForEachPrefix(prefix, func(key, _ []byte) error {
		k := make([]byte, len(key))
		copy(k, key)
		keys = append(keys, k)
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := tx.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// CopyContent copies every chunk of ino from srcLayer to dstLayer
// verbatim, the whole-file copy-up baseline of spec §4.3 step 3.
func CopyContent(tx storage.WriteTx, srcLayer, dstLayer storage.Layer, ino uint64) error {
	prefix := storage.ChunkLayerInoPrefix(srcLayer, ino)
	type kv struct {
		offset uint64
		value  []byte
	}
	var chunks []kv
	err := tx.ForEachPrefix(prefix, func(key, value []byte) error {
		off, err := storage.ChunkOffsetFromKey(prefix, key)
		if err != nil {
			return err
		}
		v := make([]byte, len(value))
		copy(v, value)
		chunks = append(chunks, kv{offset: off, value: v})
		return nil
	})
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if err := tx.Put(storage.ChunkKey(dstLayer, ino, c.offset), c.value); err != nil {
			return err
		}
	}
	return nil
}

// GetSymlink returns ino's symlink target in layer.
func GetSymlink(tx storage.ReadTx, layer storage.Layer, ino uint64) (string, bool, error) {
	v, ok, err := tx.Get(storage.SymlinkKey(layer, ino))
	if err != nil || !ok {
		return "", ok, err
	}
	return string(v), true, nil
}

// PutSymlink records ino's immutable symlink target in layer.
func PutSymlink(tx storage.WriteTx, layer storage.Layer, ino uint64, target string) error {
	return tx.Put(storage.SymlinkKey(layer, ino), []byte(target))
}

// CopySymlink copies ino's target from srcLayer to dstLayer during
// copy-up.
func CopySymlink(tx storage.WriteTx, srcLayer, dstLayer storage.Layer, ino uint64) error {
	target, ok, err := GetSymlink(tx, srcLayer, ino)
	if err != nil || !ok {
		return err
	}
	return PutSymlink(tx, dstLayer, ino, target)
}
