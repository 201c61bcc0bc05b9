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
	"encoding/binary"
	"fmt"
)

// Key prefixes match spec §6's storage layout exactly. Each typed key
// builder below is the single place that knows how a given entity is
// encoded into backend bytes; everything above this package deals only in
// Go values.
const (
	prefixMeta  = "META/"
	prefixInode = "INODE/"
	prefixDir   = "DIR/"
	prefixWhite = "WHITE/"
	prefixChunk = "CHUNK/"
	prefixXattr = "XATTR/"
	prefixSym   = "SYM/"
)

// MetaKeyVersion, MetaKeyNextIno and MetaKeyRootIno are the well-known
// META/ keys of spec §6.
var (
	MetaKeyVersion = []byte(prefixMeta + "version")
	MetaKeyNextIno = []byte(prefixMeta + "next_ino")
	MetaKeyRootIno = []byte(prefixMeta + "root_ino")
)

// Layer distinguishes which of the two directory stores / inode tables a
// key belongs to, per spec §3/§6.
type Layer uint8

const (
	LayerBase Layer = iota
	LayerDelta
)

func (l Layer) String() string {
	if l == LayerBase {
		return "BASE"
	}
	return "DELTA"
}

// InodeKey builds the INODE/<layer>/<ino> key.
func InodeKey(layer Layer, ino uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", prefixInode, layer, ino))
}

// InodeLayerPrefix returns the prefix covering every inode record in layer.
func InodeLayerPrefix(layer Layer) []byte {
	return []byte(fmt.Sprintf("%s%s/", prefixInode, layer))
}

// DirEntryKey builds the DIR/<layer>/<parent>/<name> key.
func DirEntryKey(layer Layer, parent uint64, name string) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", prefixDir, layer, parent, name))
}

// DirListPrefix returns the prefix covering every child of parent in layer.
func DirListPrefix(layer Layer, parent uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/", prefixDir, layer, parent))
}

// DirNameFromKey extracts the child name from a DIR/ key produced with the
// given prefix (as returned by DirListPrefix).
func DirNameFromKey(prefix, key []byte) string {
	return string(bytes.TrimPrefix(key, prefix))
}

// WhiteoutKey builds the WHITE/<parent>/<name> key.
func WhiteoutKey(parent uint64, name string) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", prefixWhite, parent, name))
}

// WhiteoutListPrefix returns the prefix covering every whiteout under parent.
func WhiteoutListPrefix(parent uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d/", prefixWhite, parent))
}

// ChunkKey builds the CHUNK/<layer>/<ino>/<offset> key. offset is encoded
// as a fixed-width big-endian-sortable decimal so that ForEachPrefix yields
// chunks in ascending offset order.
func ChunkKey(layer Layer, ino uint64, offset uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%020d", prefixChunk, layer, ino, offset))
}

// ChunkLayerInoPrefix returns the prefix covering every chunk of ino in layer.
func ChunkLayerInoPrefix(layer Layer, ino uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/", prefixChunk, layer, ino))
}

// ChunkOffsetFromKey parses the trailing offset component of a CHUNK/ key.
func ChunkOffsetFromKey(prefix, key []byte) (uint64, error) {
	suffix := bytes.TrimPrefix(key, prefix)
	var offset uint64
	_, err := fmt.Sscanf(string(suffix), "%020d", &offset)
	return offset, err
}

// XAttrKey builds the XATTR/<layer>/<ino>/<name> key.
func XAttrKey(layer Layer, ino uint64, name string) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", prefixXattr, layer, ino, name))
}

// XAttrListPrefix returns the prefix covering every xattr of ino in layer.
func XAttrListPrefix(layer Layer, ino uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/", prefixXattr, layer, ino))
}

// SymlinkKey builds the SYM/<layer>/<ino> key.
func SymlinkKey(layer Layer, ino uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", prefixSym, layer, ino))
}

// EncodeUint64 / DecodeUint64 encode the fixed-size counters stored at
// META/next_ino and META/root_ino (and any other raw u64 value).
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("storage: malformed u64 value (%d bytes)", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}
