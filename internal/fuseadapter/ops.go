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

package fuseadapter

import (
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
)

func (a *AgentFileSystem) Init(op *fuseops.InitOp) (err error) {
	return nil
}

func (a *AgentFileSystem) LookUpInode(op *fuseops.LookUpInodeOp) (err error) {
	parentPath, ok := a.pathOf(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	childPath := childPath(parentPath, op.Name)

	st, err := a.fs.Lstat(op.Context(), childPath)
	if err != nil {
		return toErrno(err)
	}

	a.remember(fuseops.InodeID(st.Ino), childPath)
	op.Entry.Child = fuseops.InodeID(st.Ino)
	op.Entry.Attributes = toAttributes(st)
	return nil
}

func (a *AgentFileSystem) GetInodeAttributes(op *fuseops.GetInodeAttributesOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	st, err := a.fs.Lstat(op.Context(), p)
	if err != nil {
		return toErrno(err)
	}
	op.Attributes = toAttributes(st)
	return nil
}

func (a *AgentFileSystem) SetInodeAttributes(op *fuseops.SetInodeAttributesOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	ctx := op.Context()

	if op.Size != nil {
		if err = a.fs.Truncate(ctx, p, *op.Size); err != nil {
			return toErrno(err)
		}
	}
	if op.Mode != nil {
		if err = a.fs.Chmod(ctx, p, uint32(*op.Mode&0o7777)); err != nil {
			return toErrno(err)
		}
	}
	if op.Atime != nil || op.Mtime != nil {
		var atime, mtime *int64
		if op.Atime != nil {
			v := op.Atime.UnixNano()
			atime = &v
		}
		if op.Mtime != nil {
			v := op.Mtime.UnixNano()
			mtime = &v
		}
		if err = a.fs.Utimes(ctx, p, atime, mtime); err != nil {
			return toErrno(err)
		}
	}

	st, err := a.fs.Lstat(ctx, p)
	if err != nil {
		return toErrno(err)
	}
	op.Attributes = toAttributes(st)
	return nil
}

func (a *AgentFileSystem) ForgetInode(op *fuseops.ForgetInodeOp) (err error) {
	a.forget(op.ID)
	return nil
}

func (a *AgentFileSystem) MkDir(op *fuseops.MkDirOp) (err error) {
	parentPath, ok := a.pathOf(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	childPath := childPath(parentPath, op.Name)
	if err = a.fs.Mkdir(op.Context(), childPath, uint32(op.Mode&0o7777), a.uid, a.gid); err != nil {
		return toErrno(err)
	}
	st, err := a.fs.Lstat(op.Context(), childPath)
	if err != nil {
		return toErrno(err)
	}
	a.remember(fuseops.InodeID(st.Ino), childPath)
	op.Entry.Child = fuseops.InodeID(st.Ino)
	op.Entry.Attributes = toAttributes(st)
	return nil
}

func (a *AgentFileSystem) CreateFile(op *fuseops.CreateFileOp) (err error) {
	parentPath, ok := a.pathOf(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	childPath := childPath(parentPath, op.Name)
	if err = a.fs.Create(op.Context(), childPath, uint32(op.Mode&0o7777), a.uid, a.gid); err != nil {
		return toErrno(err)
	}
	st, err := a.fs.Lstat(op.Context(), childPath)
	if err != nil {
		return toErrno(err)
	}
	a.remember(fuseops.InodeID(st.Ino), childPath)
	op.Entry.Child = fuseops.InodeID(st.Ino)
	op.Entry.Attributes = toAttributes(st)
	return nil
}

func (a *AgentFileSystem) CreateSymlink(op *fuseops.CreateSymlinkOp) (err error) {
	parentPath, ok := a.pathOf(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	childPath := childPath(parentPath, op.Name)
	if err = a.fs.Symlink(op.Context(), op.Target, childPath, a.uid, a.gid); err != nil {
		return toErrno(err)
	}
	st, err := a.fs.Lstat(op.Context(), childPath)
	if err != nil {
		return toErrno(err)
	}
	a.remember(fuseops.InodeID(st.Ino), childPath)
	op.Entry.Child = fuseops.InodeID(st.Ino)
	op.Entry.Attributes = toAttributes(st)
	return nil
}

func (a *AgentFileSystem) ReadSymlink(op *fuseops.ReadSymlinkOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	op.Target, err = a.fs.Readlink(op.Context(), p)
	return toErrno(err)
}

func (a *AgentFileSystem) Rename(op *fuseops.RenameOp) (err error) {
	oldParent, ok := a.pathOf(op.OldParent)
	if !ok {
		return fuse.ENOENT
	}
	newParent, ok := a.pathOf(op.NewParent)
	if !ok {
		return fuse.ENOENT
	}
	src := childPath(oldParent, op.OldName)
	dst := childPath(newParent, op.NewName)
	if err = a.fs.Rename(op.Context(), src, dst); err != nil {
		return toErrno(err)
	}

	// The core preserves inode identity across a rename, same as it
	// does across copy-up; re-point this one remembered path so a
	// GetInodeAttributes on the still-open inode doesn't resolve the
	// stale pre-rename path. Descendants of a renamed directory are
	// re-resolved the ordinary way on their next LookUpInode.
	if st, statErr := a.fs.Lstat(op.Context(), dst); statErr == nil {
		a.remember(fuseops.InodeID(st.Ino), dst)
	}
	return nil
}

func (a *AgentFileSystem) RmDir(op *fuseops.RmDirOp) (err error) {
	parentPath, ok := a.pathOf(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	return toErrno(a.fs.Remove(op.Context(), childPath(parentPath, op.Name)))
}

func (a *AgentFileSystem) Unlink(op *fuseops.UnlinkOp) (err error) {
	parentPath, ok := a.pathOf(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	return toErrno(a.fs.Remove(op.Context(), childPath(parentPath, op.Name)))
}

func (a *AgentFileSystem) OpenDir(op *fuseops.OpenDirOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	entries, err := a.fs.Readdir(op.Context(), p)
	if err != nil {
		return toErrno(err)
	}

	dirents := make([]fuseutil.Dirent, len(entries))
	for i, e := range entries {
		dirents[i] = fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  fuseops.InodeID(e.Ino),
			Name:   e.Name,
			Type:   direntType(e.Kind),
		}
		a.remember(fuseops.InodeID(e.Ino), childPath(p, e.Name))
	}

	a.handlesMu.Lock()
	a.nextHandle++
	handle := a.nextHandle
	a.dirHandles[handle] = dirents
	a.handlesMu.Unlock()

	op.Handle = handle
	return nil
}

func (a *AgentFileSystem) ReadDir(op *fuseops.ReadDirOp) (err error) {
	a.handlesMu.Lock()
	entries, ok := a.dirHandles[op.Handle]
	a.handlesMu.Unlock()
	if !ok {
		return fuse.EIO
	}

	index := int(op.Offset)
	for index < len(entries) {
		next := fuseutil.AppendDirent(op.Data, entries[index])
		if len(next) > op.Size {
			break
		}
		op.Data = next
		index++
	}
	return nil
}

func (a *AgentFileSystem) ReleaseDirHandle(op *fuseops.ReleaseDirHandleOp) (err error) {
	a.handlesMu.Lock()
	delete(a.dirHandles, op.Handle)
	a.handlesMu.Unlock()
	return nil
}

func (a *AgentFileSystem) OpenFile(op *fuseops.OpenFileOp) (err error) {
	if _, ok := a.pathOf(op.Inode); !ok {
		return fuse.ENOENT
	}
	return nil
}

func (a *AgentFileSystem) ReadFile(op *fuseops.ReadFileOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	buf := make([]byte, op.Size)
	n, err := a.fs.Read(op.Context(), p, op.Offset, buf)
	if err != nil {
		return toErrno(err)
	}
	op.Data = buf[:n]
	return nil
}

func (a *AgentFileSystem) WriteFile(op *fuseops.WriteFileOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	_, err = a.fs.Write(op.Context(), p, op.Offset, op.Data)
	return toErrno(err)
}

func (a *AgentFileSystem) SyncFile(op *fuseops.SyncFileOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	return toErrno(a.fs.Fsync(op.Context(), p))
}

func (a *AgentFileSystem) FlushFile(op *fuseops.FlushFileOp) (err error) {
	p, ok := a.pathOf(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	return toErrno(a.fs.Fsync(op.Context(), p))
}

func (a *AgentFileSystem) ReleaseFileHandle(op *fuseops.ReleaseFileHandleOp) (err error) {
	return nil
}

// Destroy releases nothing of its own; agentfs.FileSystem's Close is the
// adapter owner's responsibility, not this fuse.FileSystem's.
func (a *AgentFileSystem) Destroy() {}

