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

// Package fuseadapter adapts agentfs.FileSystem's path-addressed API to
// jacobsa/fuse's inode-and-handle-addressed fuseops surface.
package fuseadapter

import (
	"os"
	"path"
	"sync"
	"syscall"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/mulatta/agentfs/agentfs"
	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
)

// AgentFileSystem implements github.com/jacobsa/fuse's FileSystem
// interface over an *agentfs.FileSystem. Unlike the core, which is
// addressed entirely by path, FUSE addresses inodes and open handles by
// opaque IDs the kernel expects to stay valid between calls; this
// adapter's only state is the bookkeeping needed to bridge the two —
// inode identity itself is never invented here; the InodeID a LookUp or
// MkDir reports IS the agentfs inode number, so the stability invariant
// the core already guarantees carries straight through to the kernel's
// view.
type AgentFileSystem struct {
	fs  *agentfs.FileSystem
	uid uint32
	gid uint32

	mu    sync.Mutex
	paths map[fuseops.InodeID]string // ino -> canonical path, root preloaded

	handlesMu  sync.Mutex
	dirHandles map[fuseops.HandleID][]fuseutil.Dirent
	nextHandle fuseops.HandleID
}

// New constructs an adapter over fs. uid/gid are used as the owner for
// inodes created through FUSE ops whose request header does not carry
// caller credentials in this binding.
func New(fs *agentfs.FileSystem, uid, gid uint32) *AgentFileSystem {
	return &AgentFileSystem{
		fs:         fs,
		uid:        uid,
		gid:        gid,
		paths:      map[fuseops.InodeID]string{fuseops.RootInodeID: "/"},
		dirHandles: make(map[fuseops.HandleID][]fuseutil.Dirent),
	}
}

func (a *AgentFileSystem) pathOf(id fuseops.InodeID) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.paths[id]
	return p, ok
}

func (a *AgentFileSystem) remember(id fuseops.InodeID, p string) {
	a.mu.Lock()
	a.paths[id] = p
	a.mu.Unlock()
}

func (a *AgentFileSystem) forget(id fuseops.InodeID) {
	a.mu.Lock()
	delete(a.paths, id)
	a.mu.Unlock()
}

func toErrno(err error) error {
	if err == nil {
		return nil
	}
	kind, ok := apperr.KindOf(err)
	if !ok {
		return fuse.EIO
	}
	switch kind {
	case apperr.KindNotFound:
		return fuse.ENOENT
	case apperr.KindExists:
		return fuse.EEXIST
	case apperr.KindNotDirectory:
		return fuse.ENOTDIR
	case apperr.KindIsDirectory:
		return fuse.EISDIR
	case apperr.KindNotEmpty:
		return fuse.ENOTEMPTY
	case apperr.KindPermission:
		return fuse.EPERM
	case apperr.KindInvalidArgument:
		return fuse.EINVAL
	case apperr.KindNotSupported:
		return syscall.ENOTSUP
	case apperr.KindTooManyLinks:
		return syscall.ELOOP
	case apperr.KindNameTooLong:
		return syscall.ENAMETOOLONG
	case apperr.KindNoSpace:
		return fuse.ENOSPC
	case apperr.KindCanceled:
		return syscall.ECANCELED
	default:
		return fuse.EIO
	}
}

func toAttributes(st agentfs.Stats) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:  st.Size,
		Nlink: uint64(st.NLink),
		Mode:  os.FileMode(st.Mode & 0o777 &^ uint32(meta.ModeTypeMask)) | fuseFileTypeBits(st.Mode),
		Uid:   st.UID,
		Gid:   st.GID,
	}
}

func fuseFileTypeBits(mode uint32) os.FileMode {
	switch meta.KindOf(mode) {
	case meta.KindDir:
		return os.ModeDir
	case meta.KindSymlink:
		return os.ModeSymlink
	default:
		return 0
	}
}

func direntType(k meta.Kind) fuseutil.DirentType {
	switch k {
	case meta.KindDir:
		return fuseutil.DT_Directory
	case meta.KindSymlink:
		return fuseutil.DT_Link
	default:
		return fuseutil.DT_File
	}
}

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return path.Join(parent, name)
}
