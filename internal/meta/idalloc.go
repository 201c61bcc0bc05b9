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
	"fmt"

	"github.com/mulatta/agentfs/internal/storage"
)

// CurrentVersion is written to META/version on first init.
const CurrentVersion uint32 = 1

// RootIno is the reserved constant root inode id (spec §3: "Root inode
// is a reserved constant; it is always present in the delta after first
// mount").
const RootIno uint64 = 1

// ErrReservationViolated is returned by ValidateReservation when
// META/next_ino is not strictly greater than the highest base inode id
// — the precondition spec §9 requires for the copy-up stability
// invariant to be implementable at all.
var ErrReservationViolated = fmt.Errorf("%w: next_ino does not exceed the reserved base range", storage.ErrCorruption)

// NextIno draws the next unused delta inode id from the monotonic
// counter at META/next_ino, persisting the increment in the same write
// transaction.
func NextIno(tx storage.WriteTx) (uint64, error) {
	v, ok, err := tx.Get(storage.MetaKeyNextIno)
	if err != nil {
		return 0, err
	}
	var next uint64
	if ok {
		next, err = storage.DecodeUint64(v)
		if err != nil {
			return 0, err
		}
	} else {
		next = RootIno + 1
	}
	if err := tx.Put(storage.MetaKeyNextIno, storage.EncodeUint64(next+1)); err != nil {
		return 0, err
	}
	return next, nil
}

// PeekNextIno reads META/next_ino without allocating.
func PeekNextIno(tx storage.ReadTx) (uint64, error) {
	v, ok, err := tx.Get(storage.MetaKeyNextIno)
	if err != nil || !ok {
		return RootIno + 1, err
	}
	return storage.DecodeUint64(v)
}

// InitCounters seeds META/version, META/root_ino and META/next_ino on a
// freshly created database. maxBaseIno is the highest inode id used by
// seeded base content (0 if the base is empty besides the root).
func InitCounters(tx storage.WriteTx, maxBaseIno uint64) error {
	if err := tx.Put(storage.MetaKeyVersion, storage.EncodeUint64(uint64(CurrentVersion))[:4]); err != nil {
		return err
	}
	if err := tx.Put(storage.MetaKeyRootIno, storage.EncodeUint64(RootIno)); err != nil {
		return err
	}
	start := maxBaseIno + 1
	if start <= RootIno {
		start = RootIno + 1
	}
	return tx.Put(storage.MetaKeyNextIno, storage.EncodeUint64(start))
}

// ValidateReservation refuses to mount a database whose next_ino counter
// could collide with a reserved base id, per spec §9's "Inode-id
// reservation" design note.
func ValidateReservation(tx storage.ReadTx, maxBaseIno uint64) error {
	next, err := PeekNextIno(tx)
	if err != nil {
		return err
	}
	if next <= maxBaseIno {
		return fmt.Errorf("%w: next_ino=%d max_base_ino=%d", ErrReservationViolated, next, maxBaseIno)
	}
	return nil
}
