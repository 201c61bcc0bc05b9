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
	"context"

	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/storage"
)

// unbind removes whatever is currently bound at (parent, name), whether
// that binding lives in the delta or only the base, per the unlink/
// rename-overwrite semantics of spec §4.3.
func unbind(tx storage.WriteTx, parent uint64, name string) error {
	if _, ok, err := meta.GetChild(tx, storage.LayerDelta, parent, name); err != nil {
		return err
	} else if ok {
		return meta.DeleteChild(tx, storage.LayerDelta, parent, name)
	}
	if ok, err := meta.HasWhiteout(tx, parent, name); err != nil {
		return err
	} else if ok {
		return nil
	}
	if _, ok, err := meta.GetChild(tx, storage.LayerBase, parent, name); err != nil {
		return err
	} else if ok {
		return meta.PutWhiteout(tx, parent, name)
	}
	return nil
}

// decrementLink drops ino's nlink by one, destroying its record and
// content once it reaches zero (spec §3: "destroyed when nlink==0 and no
// open handles"; the core only reflects nlink and assumes the wrapping
// layer has released any open-handle references by the time this is
// called for the final unlink).
func (e *Engine) decrementLink(tx storage.WriteTx, ino uint64) error {
	rec, err := e.ensureDelta(tx, ino)
	if err != nil {
		return err
	}
	if rec.NLink > 0 {
		rec.NLink--
	}
	if rec.NLink == 0 {
		return e.store.DeleteInodeCascade(tx, storage.LayerDelta, ino)
	}
	rec.Ctime = e.now()
	return meta.PutInode(tx, storage.LayerDelta, ino, rec)
}

// Unlink removes the file or symlink named name under parent.
func (e *Engine) Unlink(ctx context.Context, parent uint64, name string) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		ino, kind, err := LookupChild(tx, parent, name)
		if err != nil {
			return err
		}
		if kind == meta.KindDir {
			return apperr.New("unlink", name, apperr.KindIsDirectory)
		}
		if err := unbind(tx, parent, name); err != nil {
			return err
		}
		return e.decrementLink(tx, ino)
	})
}

// Rmdir removes the empty directory named name under parent.
func (e *Engine) Rmdir(ctx context.Context, parent uint64, name string) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		ino, kind, err := LookupChild(tx, parent, name)
		if err != nil {
			return err
		}
		if kind != meta.KindDir {
			return apperr.New("rmdir", name, apperr.KindNotDirectory)
		}
		if has, err := e.store.DirHasEntries(tx, ino); err != nil {
			return err
		} else if has {
			return apperr.New("rmdir", name, apperr.KindNotEmpty)
		}
		if err := unbind(tx, parent, name); err != nil {
			return err
		}
		return e.decrementLink(tx, ino)
	})
}

// Link creates a new delta-side directory entry (dstParent, dstName)
// pointing at the same inode as srcIno, copying src up first if it is
// base-only. Per spec §4.3, a cross-layer hard link minting a new id is
// explicitly disallowed; Link always preserves srcIno's id.
func (e *Engine) Link(ctx context.Context, srcIno uint64, dstParent uint64, dstName string) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		if err := checkNameLen("link", dstName); err != nil {
			return err
		}
		if _, _, kind, err := loadRecord(tx, dstParent); err != nil {
			return err
		} else if kind != meta.KindDir {
			return apperr.New("link", dstName, apperr.KindNotDirectory)
		}
		if _, _, err := LookupChild(tx, dstParent, dstName); err == nil {
			return apperr.New("link", dstName, apperr.KindExists)
		}

		rec, err := e.ensureDelta(tx, srcIno)
		if err != nil {
			return err
		}
		if rec.Kind() == meta.KindDir {
			return apperr.New("link", dstName, apperr.KindNotSupported)
		}
		if err := meta.PutChild(tx, storage.LayerDelta, dstParent, dstName, srcIno); err != nil {
			return err
		}
		if err := meta.DeleteWhiteout(tx, dstParent, dstName); err != nil {
			return err
		}
		rec.NLink++
		rec.Ctime = e.now()
		return meta.PutInode(tx, storage.LayerDelta, srcIno, rec)
	})
}

// Rename implements spec §4.3's rename semantics: copy-up the source if
// base-only, reject a non-empty directory destination, otherwise unbind
// whatever currently sits at dst, bind dst to src's inode, and unbind
// src — all within one transaction so no intermediate state is ever
// observable.
func (e *Engine) Rename(ctx context.Context, srcParent uint64, srcName string, dstParent uint64, dstName string) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		if err := checkNameLen("rename", dstName); err != nil {
			return err
		}

		srcIno, srcKind, err := LookupChild(tx, srcParent, srcName)
		if err != nil {
			return err
		}

		if dstIno, dstKind, err := LookupChild(tx, dstParent, dstName); err == nil {
			if dstKind == meta.KindDir {
				if has, err := e.store.DirHasEntries(tx, dstIno); err != nil {
					return err
				} else if has {
					return apperr.New("rename", dstName, apperr.KindNotEmpty)
				}
			}
			if dstKind == meta.KindDir && srcKind != meta.KindDir {
				return apperr.New("rename", dstName, apperr.KindIsDirectory)
			}
			if dstKind != meta.KindDir && srcKind == meta.KindDir {
				return apperr.New("rename", dstName, apperr.KindNotDirectory)
			}
		}

		if _, err := e.ensureDelta(tx, srcIno); err != nil {
			return err
		}

		if err := unbind(tx, dstParent, dstName); err != nil {
			return err
		}
		if err := meta.PutChild(tx, storage.LayerDelta, dstParent, dstName, srcIno); err != nil {
			return err
		}
		if err := meta.DeleteWhiteout(tx, dstParent, dstName); err != nil {
			return err
		}
		return unbind(tx, srcParent, srcName)
	})
}
