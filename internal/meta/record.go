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

// Package meta implements the entity model shared by the base and delta
// layers: inode records, directory entries, whiteouts, symlink targets,
// file content chunks and extended attributes, all addressed through the
// typed keys of internal/storage. Every function here takes an explicit
// storage.ReadTx or storage.WriteTx; meta itself holds no transaction
// state, matching the ownership model of spec §3 ("the Overlay Engine
// holds read/write borrows within a transaction; no entity is shared
// across transaction boundaries by reference — only by key").
package meta

import (
	"encoding/binary"
	"fmt"

	"github.com/mulatta/agentfs/internal/storage"
)

// Provenance records how an inode record came to exist at its id, per
// spec §3's central stability invariant.
type Provenance uint8

const (
	// ProvenanceNative marks a record minted directly in its layer by
	// mkdir/create/symlink (base records at seed time, delta records
	// thereafter).
	ProvenanceNative Provenance = iota
	// ProvenanceCopiedUp marks a delta record materialized from a base
	// object, keyed at the base object's own id.
	ProvenanceCopiedUp
)

func (p Provenance) String() string {
	if p == ProvenanceCopiedUp {
		return "copied-up"
	}
	return "native"
}

// POSIX file-type bits within Mode, used to recover Kind without a
// separate stored field.
const (
	ModeTypeMask = 0o170000
	ModeDir      = 0o040000
	ModeRegular  = 0o100000
	ModeSymlink  = 0o120000
)

// Kind is the coarse type the path resolver and cache reason about.
type Kind uint8

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "file"
	}
}

// KindOf derives Kind from the POSIX type bits of mode.
func KindOf(mode uint32) Kind {
	switch mode & ModeTypeMask {
	case ModeDir:
		return KindDir
	case ModeSymlink:
		return KindSymlink
	default:
		return KindFile
	}
}

// InodeRecord is the packed, little-endian layout of spec §6:
// mode:u32, uid:u32, gid:u32, nlink:u32, size:u64, atime:i64, mtime:i64,
// ctime:i64, provenance:u8, origin_ino:u64.
type InodeRecord struct {
	Mode       uint32
	UID        uint32
	GID        uint32
	NLink      uint32
	Size       uint64
	Atime      int64
	Mtime      int64
	Ctime      int64
	Provenance Provenance
	OriginIno  uint64
}

// Kind reports the record's file type.
func (r *InodeRecord) Kind() Kind { return KindOf(r.Mode) }

const recordLen = 4 + 4 + 4 + 4 + 8 + 8 + 8 + 8 + 1 + 8

// Encode packs the record into its on-disk byte representation.
func (r *InodeRecord) Encode() []byte {
	buf := make([]byte, recordLen)
	o := 0
	binary.LittleEndian.PutUint32(buf[o:], r.Mode)
	o += 4
	binary.LittleEndian.PutUint32(buf[o:], r.UID)
	o += 4
	binary.LittleEndian.PutUint32(buf[o:], r.GID)
	o += 4
	binary.LittleEndian.PutUint32(buf[o:], r.NLink)
	o += 4
	binary.LittleEndian.PutUint64(buf[o:], r.Size)
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], uint64(r.Atime))
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], uint64(r.Mtime))
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], uint64(r.Ctime))
	o += 8
	buf[o] = byte(r.Provenance)
	o++
	binary.LittleEndian.PutUint64(buf[o:], r.OriginIno)
	return buf
}

// DecodeInodeRecord unpacks an on-disk inode record. A length mismatch is
// reported as storage corruption per spec §7 (IO/Corruption).
func DecodeInodeRecord(b []byte) (*InodeRecord, error) {
	if len(b) != recordLen {
		return nil, fmt.Errorf("%w: inode record has %d bytes, want %d", storage.ErrCorruption, len(b), recordLen)
	}
	r := &InodeRecord{}
	o := 0
	r.Mode = binary.LittleEndian.Uint32(b[o:])
	o += 4
	r.UID = binary.LittleEndian.Uint32(b[o:])
	o += 4
	r.GID = binary.LittleEndian.Uint32(b[o:])
	o += 4
	r.NLink = binary.LittleEndian.Uint32(b[o:])
	o += 4
	r.Size = binary.LittleEndian.Uint64(b[o:])
	o += 8
	r.Atime = int64(binary.LittleEndian.Uint64(b[o:]))
	o += 8
	r.Mtime = int64(binary.LittleEndian.Uint64(b[o:]))
	o += 8
	r.Ctime = int64(binary.LittleEndian.Uint64(b[o:]))
	o += 8
	r.Provenance = Provenance(b[o])
	o++
	r.OriginIno = binary.LittleEndian.Uint64(b[o:])
	return r, nil
}

// Clone returns a deep copy, used when a copy-up writes a new record at
// the base id without aliasing the base's in-memory copy.
func (r *InodeRecord) Clone() *InodeRecord {
	c := *r
	return &c
}

// GetInode loads the inode record at ino in layer, if present.
func GetInode(tx storage.ReadTx, layer storage.Layer, ino uint64) (*InodeRecord, bool, error) {
	v, ok, err := tx.Get(storage.InodeKey(layer, ino))
	if err != nil || !ok {
		return nil, ok, err
	}
	rec, err := DecodeInodeRecord(v)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// PutInode writes rec at ino in layer.
func PutInode(tx storage.WriteTx, layer storage.Layer, ino uint64, rec *InodeRecord) error {
	return tx.Put(storage.InodeKey(layer, ino), rec.Encode())
}

// DeleteInode removes the inode record at ino in layer.
func DeleteInode(tx storage.WriteTx, layer storage.Layer, ino uint64) error {
	return tx.Delete(storage.InodeKey(layer, ino))
}
