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

// NewInodeAttrs bundles the attributes a create/mkdir/symlink call sets.
type NewInodeAttrs struct {
	Mode uint32
	UID  uint32
	GID  uint32
}

// maxNameLen bounds a single path component per spec §7's NameTooLong
// taxonomy entry, matching the conventional POSIX 255-byte component
// limit that ENAMETOOLONG reports.
const maxNameLen = 255

func checkNameLen(op, name string) error {
	if len(name) > maxNameLen {
		return apperr.New(op, name, apperr.KindNameTooLong)
	}
	return nil
}

func (e *Engine) mintChild(tx storage.WriteTx, parent uint64, name string, attrs NewInodeAttrs) (uint64, error) {
	if err := checkNameLen("create", name); err != nil {
		return 0, err
	}
	if _, _, err := LookupChild(tx, parent, name); err == nil {
		return 0, apperr.New("create", name, apperr.KindExists)
	}
	ino, err := meta.NextIno(tx)
	if err != nil {
		return 0, err
	}
	now := e.now()
	rec := &meta.InodeRecord{
		Mode:  attrs.Mode,
		UID:   attrs.UID,
		GID:   attrs.GID,
		NLink: 1,
		Atime: now,
		Mtime: now,
		Ctime: now,
	}
	if err := e.store.CreateInode(tx, storage.LayerDelta, ino, rec); err != nil {
		return 0, err
	}
	if err := meta.PutChild(tx, storage.LayerDelta, parent, name, ino); err != nil {
		return 0, err
	}
	if err := meta.DeleteWhiteout(tx, parent, name); err != nil {
		return 0, err
	}
	return ino, nil
}

// Mkdir creates a new directory named name under parent.
func (e *Engine) Mkdir(ctx context.Context, parent uint64, name string, attrs NewInodeAttrs) (uint64, error) {
	attrs.Mode = (attrs.Mode &^ meta.ModeTypeMask) | meta.ModeDir
	var ino uint64
	err := e.withWrite(ctx, func(tx storage.WriteTx) error {
		if _, _, kind, err := loadRecord(tx, parent); err != nil {
			return err
		} else if kind != meta.KindDir {
			return apperr.New("mkdir", name, apperr.KindNotDirectory)
		}
		var err error
		ino, err = e.mintChild(tx, parent, name, attrs)
		return err
	})
	return ino, err
}

// Create creates a new, empty regular file named name under parent.
func (e *Engine) Create(ctx context.Context, parent uint64, name string, attrs NewInodeAttrs) (uint64, error) {
	attrs.Mode = (attrs.Mode &^ meta.ModeTypeMask) | meta.ModeRegular
	var ino uint64
	err := e.withWrite(ctx, func(tx storage.WriteTx) error {
		if _, _, kind, err := loadRecord(tx, parent); err != nil {
			return err
		} else if kind != meta.KindDir {
			return apperr.New("create", name, apperr.KindNotDirectory)
		}
		var err error
		ino, err = e.mintChild(tx, parent, name, attrs)
		return err
	})
	return ino, err
}

// Symlink creates a symlink named name under parent pointing at target.
func (e *Engine) Symlink(ctx context.Context, parent uint64, name, target string, attrs NewInodeAttrs) (uint64, error) {
	attrs.Mode = (attrs.Mode &^ meta.ModeTypeMask) | meta.ModeSymlink
	var ino uint64
	err := e.withWrite(ctx, func(tx storage.WriteTx) error {
		if _, _, kind, err := loadRecord(tx, parent); err != nil {
			return err
		} else if kind != meta.KindDir {
			return apperr.New("symlink", name, apperr.KindNotDirectory)
		}
		var err error
		ino, err = e.mintChild(tx, parent, name, attrs)
		if err != nil {
			return err
		}
		return meta.PutSymlink(tx, storage.LayerDelta, ino, target)
	})
	return ino, err
}

// mutateAttrs loads (copying up if necessary) ino's delta record, lets
// fn edit it, bumps ctime, and persists it. Every attribute-changing
// operation in spec §4.3's copy-up trigger list funnels through here.
func (e *Engine) mutateAttrs(ctx context.Context, ino uint64, fn func(rec *meta.InodeRecord)) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		rec, err := e.ensureDelta(tx, ino)
		if err != nil {
			return err
		}
		fn(rec)
		rec.Ctime = e.now()
		return meta.PutInode(tx, storage.LayerDelta, ino, rec)
	})
}

// Chmod changes ino's mode bits (permission bits only; file-type bits
// are preserved).
func (e *Engine) Chmod(ctx context.Context, ino uint64, mode uint32) error {
	return e.mutateAttrs(ctx, ino, func(rec *meta.InodeRecord) {
		rec.Mode = (rec.Mode & meta.ModeTypeMask) | (mode &^ meta.ModeTypeMask)
	})
}

// Chown changes ino's owning uid/gid. A nil uid or gid leaves that field
// unchanged.
func (e *Engine) Chown(ctx context.Context, ino uint64, uid, gid *uint32) error {
	return e.mutateAttrs(ctx, ino, func(rec *meta.InodeRecord) {
		if uid != nil {
			rec.UID = *uid
		}
		if gid != nil {
			rec.GID = *gid
		}
	})
}

// Utimes sets ino's atime/mtime. A nil pointer leaves that field
// unchanged.
func (e *Engine) Utimes(ctx context.Context, ino uint64, atime, mtime *int64) error {
	return e.mutateAttrs(ctx, ino, func(rec *meta.InodeRecord) {
		if atime != nil {
			rec.Atime = *atime
		}
		if mtime != nil {
			rec.Mtime = *mtime
		}
	})
}

// SetXAttr sets an extended attribute on ino, copying up first if
// needed.
func (e *Engine) SetXAttr(ctx context.Context, ino uint64, name string, value []byte) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		if _, err := e.ensureDelta(tx, ino); err != nil {
			return err
		}
		if err := meta.SetXAttr(tx, storage.LayerDelta, ino, name, value); err != nil {
			return err
		}
		return bumpCtime(tx, e, ino)
	})
}

// RemoveXAttr removes an extended attribute from ino, copying up first
// if needed.
func (e *Engine) RemoveXAttr(ctx context.Context, ino uint64, name string) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		if _, err := e.ensureDelta(tx, ino); err != nil {
			return err
		}
		if _, ok, err := meta.GetXAttr(tx, storage.LayerDelta, ino, name); err != nil {
			return err
		} else if !ok {
			return apperr.New("removexattr", name, apperr.KindNotFound)
		}
		if err := meta.RemoveXAttr(tx, storage.LayerDelta, ino, name); err != nil {
			return err
		}
		return bumpCtime(tx, e, ino)
	})
}

func bumpCtime(tx storage.WriteTx, e *Engine, ino uint64) error {
	rec, ok, err := meta.GetInode(tx, storage.LayerDelta, ino)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New("bump-ctime", "", apperr.KindIO)
	}
	rec.Ctime = e.now()
	return meta.PutInode(tx, storage.LayerDelta, ino, rec)
}

// WriteAt writes data into ino's content at offset, copying up first if
// needed.
func (e *Engine) WriteAt(ctx context.Context, ino uint64, offset int64, data []byte) (int, error) {
	var n int
	err := e.withWrite(ctx, func(tx storage.WriteTx) error {
		rec, err := e.ensureDelta(tx, ino)
		if err != nil {
			return err
		}
		if rec.Kind() != meta.KindFile {
			return apperr.New("write", "", apperr.KindIsDirectory)
		}
		if err := meta.WriteContent(tx, storage.LayerDelta, ino, offset, data); err != nil {
			return err
		}
		n = len(data)
		end := uint64(offset) + uint64(len(data))
		if end > rec.Size {
			rec.Size = end
		}
		now := e.now()
		rec.Mtime = now
		rec.Ctime = now
		return meta.PutInode(tx, storage.LayerDelta, ino, rec)
	})
	return n, err
}

// Truncate resizes ino's content to size, copying up first if needed.
// There is no separate fallocate operation; growing a file's size goes
// through Truncate.
func (e *Engine) Truncate(ctx context.Context, ino uint64, size uint64) error {
	return e.withWrite(ctx, func(tx storage.WriteTx) error {
		rec, err := e.ensureDelta(tx, ino)
		if err != nil {
			return err
		}
		if rec.Kind() != meta.KindFile {
			return apperr.New("truncate", "", apperr.KindIsDirectory)
		}
		if err := meta.TruncateContent(tx, storage.LayerDelta, ino, size); err != nil {
			return err
		}
		rec.Size = size
		now := e.now()
		rec.Mtime = now
		rec.Ctime = now
		return meta.PutInode(tx, storage.LayerDelta, ino, rec)
	})
}
