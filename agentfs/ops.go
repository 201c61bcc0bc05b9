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

package agentfs

import (
	"context"

	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/overlay"
	"github.com/mulatta/agentfs/internal/pathcache"
)

// Stats is the attribute payload spec §6 returns from stat/lstat:
// "ino, mode, uid, gid, nlink, size, atime, mtime, ctime".
type Stats struct {
	Ino   uint64
	Mode  uint32
	UID   uint32
	GID   uint32
	NLink uint32
	Size  uint64
	Atime int64
	Mtime int64
	Ctime int64
}

func statsFromRecord(ino uint64, rec *meta.InodeRecord) Stats {
	return Stats{
		Ino: ino, Mode: rec.Mode, UID: rec.UID, GID: rec.GID, NLink: rec.NLink,
		Size: rec.Size, Atime: rec.Atime, Mtime: rec.Mtime, Ctime: rec.Ctime,
	}
}

func (fs *FileSystem) statAt(ctx context.Context, p string, followSymlink bool) (Stats, error) {
	res, err := fs.resolve(ctx, p, followSymlink)
	if err != nil {
		return Stats{}, err
	}
	rec, err := fs.engine.Stat(ctx, res.Ino)
	if err != nil {
		return Stats{}, apperr.WithPath(err, p)
	}
	return statsFromRecord(res.Ino, rec), nil
}

// Stat resolves p, following a trailing symlink.
func (fs *FileSystem) Stat(ctx context.Context, p string) (Stats, error) {
	return fs.statAt(ctx, p, true)
}

// Lstat resolves p without following a trailing symlink.
func (fs *FileSystem) Lstat(ctx context.Context, p string) (Stats, error) {
	return fs.statAt(ctx, p, false)
}

// Read reads up to len(buf) bytes from p at offset.
func (fs *FileSystem) Read(ctx context.Context, p string, offset int64, buf []byte) (int, error) {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return 0, err
	}
	if res.Kind != meta.KindFile {
		return 0, apperr.New("read", p, apperr.KindIsDirectory)
	}
	n, err := fs.engine.ReadAt(ctx, res.Ino, offset, buf)
	return n, apperr.WithPath(err, p)
}

// Write writes data to p at offset, copying p up from the base layer
// first if needed. The cache binding for p is left in place (spec
// §4.4: write does not invalidate resolution, only attributes change).
func (fs *FileSystem) Write(ctx context.Context, p string, offset int64, data []byte) (int, error) {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return 0, err
	}
	n, err := fs.engine.WriteAt(ctx, res.Ino, offset, data)
	return n, apperr.WithPath(err, p)
}

// Truncate resizes p's content to size.
func (fs *FileSystem) Truncate(ctx context.Context, p string, size uint64) error {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return err
	}
	return apperr.WithPath(fs.engine.Truncate(ctx, res.Ino, size), p)
}

// Chmod changes p's permission bits.
func (fs *FileSystem) Chmod(ctx context.Context, p string, mode uint32) error {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return err
	}
	return apperr.WithPath(fs.engine.Chmod(ctx, res.Ino, mode), p)
}

// Chown changes p's owning uid/gid; a nil pointer leaves that field
// unchanged.
func (fs *FileSystem) Chown(ctx context.Context, p string, uid, gid *uint32) error {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return err
	}
	return apperr.WithPath(fs.engine.Chown(ctx, res.Ino, uid, gid), p)
}

// Utimes sets p's atime/mtime; a nil pointer leaves that field
// unchanged.
func (fs *FileSystem) Utimes(ctx context.Context, p string, atime, mtime *int64) error {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return err
	}
	return apperr.WithPath(fs.engine.Utimes(ctx, res.Ino, atime, mtime), p)
}

// SetXAttr sets an extended attribute on p.
func (fs *FileSystem) SetXAttr(ctx context.Context, p, name string, value []byte) error {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return err
	}
	return apperr.WithPath(fs.engine.SetXAttr(ctx, res.Ino, name, value), p)
}

// GetXAttr returns the named extended attribute on p.
func (fs *FileSystem) GetXAttr(ctx context.Context, p, name string) ([]byte, error) {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return nil, err
	}
	v, err := fs.engine.GetXAttr(ctx, res.Ino, name)
	return v, apperr.WithPath(err, p)
}

// RemoveXAttr removes the named extended attribute from p.
func (fs *FileSystem) RemoveXAttr(ctx context.Context, p, name string) error {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return err
	}
	return apperr.WithPath(fs.engine.RemoveXAttr(ctx, res.Ino, name), p)
}

// ListXAttr lists the extended attribute names on p.
func (fs *FileSystem) ListXAttr(ctx context.Context, p string) ([]string, error) {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return nil, err
	}
	v, err := fs.engine.ListXAttr(ctx, res.Ino)
	return v, apperr.WithPath(err, p)
}

// Readlink returns the target of the symlink at p.
func (fs *FileSystem) Readlink(ctx context.Context, p string) (string, error) {
	res, err := fs.resolve(ctx, p, false)
	if err != nil {
		return "", err
	}
	if res.Kind != meta.KindSymlink {
		return "", apperr.New("readlink", p, apperr.KindInvalidArgument)
	}
	target, err := fs.engine.Readlink(ctx, res.Ino)
	return target, apperr.WithPath(err, p)
}

// DirEntry is one readdir result.
type DirEntry struct {
	Name string
	Ino  uint64
	Kind meta.Kind
}

// Readdir lists p's logical contents in lexicographic order (spec
// §4.2). "." and ".." are not synthesized here; callers that need POSIX
// readdir semantics add them.
func (fs *FileSystem) Readdir(ctx context.Context, p string) ([]DirEntry, error) {
	res, err := fs.resolve(ctx, p, true)
	if err != nil {
		return nil, err
	}
	listing, err := fs.engine.Readdir(ctx, res.Ino)
	if err != nil {
		return nil, apperr.WithPath(err, p)
	}
	out := make([]DirEntry, len(listing))
	for i, l := range listing {
		out[i] = DirEntry{Name: l.Name, Ino: l.Ino, Kind: l.Kind}
	}
	return out, nil
}

// Mkdir creates a directory at p.
func (fs *FileSystem) Mkdir(ctx context.Context, p string, mode uint32, uid, gid uint32) error {
	parent, base, err := fs.resolveParent(ctx, p)
	if err != nil {
		return err
	}
	_, err = fs.engine.Mkdir(ctx, parent, base, overlay.NewInodeAttrs{Mode: mode, UID: uid, GID: gid})
	if err != nil {
		return apperr.WithPath(err, p)
	}
	fs.cache.Invalidate(pathcache.Normalize(p))
	return nil
}

// Create creates an empty regular file at p.
func (fs *FileSystem) Create(ctx context.Context, p string, mode uint32, uid, gid uint32) error {
	parent, base, err := fs.resolveParent(ctx, p)
	if err != nil {
		return err
	}
	_, err = fs.engine.Create(ctx, parent, base, overlay.NewInodeAttrs{Mode: mode, UID: uid, GID: gid})
	if err != nil {
		return apperr.WithPath(err, p)
	}
	fs.cache.Invalidate(pathcache.Normalize(p))
	return nil
}

// Symlink creates a symlink at linkpath pointing at target.
func (fs *FileSystem) Symlink(ctx context.Context, target, linkpath string, uid, gid uint32) error {
	parent, base, err := fs.resolveParent(ctx, linkpath)
	if err != nil {
		return err
	}
	_, err = fs.engine.Symlink(ctx, parent, base, target, overlay.NewInodeAttrs{Mode: 0o777, UID: uid, GID: gid})
	if err != nil {
		return apperr.WithPath(err, linkpath)
	}
	fs.cache.Invalidate(pathcache.Normalize(linkpath))
	return nil
}

// Remove removes the file, symlink or empty directory at p.
func (fs *FileSystem) Remove(ctx context.Context, p string) error {
	if isRoot(p) {
		return apperr.New("remove", p, apperr.KindInvalidArgument)
	}
	parent, base, err := fs.resolveParent(ctx, p)
	if err != nil {
		return err
	}

	res, err := fs.resolve(ctx, p, false)
	if err != nil {
		return err
	}

	if res.Kind == meta.KindDir {
		if err := fs.engine.Rmdir(ctx, parent, base); err != nil {
			return apperr.WithPath(err, p)
		}
		fs.cache.InvalidateSubtree(pathcache.Normalize(p))
		return nil
	}
	if err := fs.engine.Unlink(ctx, parent, base); err != nil {
		return apperr.WithPath(err, p)
	}
	fs.cache.Invalidate(pathcache.Normalize(p))
	return nil
}

// Link creates a new hard link at dst pointing at src's inode.
func (fs *FileSystem) Link(ctx context.Context, src, dst string) error {
	srcRes, err := fs.resolve(ctx, src, false)
	if err != nil {
		return err
	}
	dstParent, dstBase, err := fs.resolveParent(ctx, dst)
	if err != nil {
		return err
	}
	if err := fs.engine.Link(ctx, srcRes.Ino, dstParent, dstBase); err != nil {
		return apperr.WithPath(err, dst)
	}
	fs.cache.Invalidate(pathcache.Normalize(dst))
	return nil
}

// Rename moves src to dst, per the semantics of spec §4.3.
func (fs *FileSystem) Rename(ctx context.Context, src, dst string) error {
	srcParent, srcBase, err := fs.resolveParent(ctx, src)
	if err != nil {
		return err
	}
	dstParent, dstBase, err := fs.resolveParent(ctx, dst)
	if err != nil {
		return err
	}
	srcRes, err := fs.resolve(ctx, src, false)
	if err != nil {
		return err
	}

	if err := fs.engine.Rename(ctx, srcParent, srcBase, dstParent, dstBase); err != nil {
		return apperr.WithPath(err, dst)
	}
	fs.cache.InvalidateRename(pathcache.Normalize(src), pathcache.Normalize(dst), srcRes.Kind == meta.KindDir)
	return nil
}

// Fsync maps to a backend flush; AgentFS commits durably on every
// mutating call, so Fsync's only additional guarantee is the explicit
// backend-level flush spec §4.1 describes.
func (fs *FileSystem) Fsync(ctx context.Context, p string) error {
	if _, err := fs.resolve(ctx, p, true); err != nil {
		return err
	}
	return fs.backend.Flush()
}

// StatFSResult is statfs's payload (spec §6: "bytes_used, inodes").
type StatFSResult struct {
	BytesUsed uint64
	Inodes    uint64
}

// StatFS reports aggregate usage across both layers.
func (fs *FileSystem) StatFS(ctx context.Context) (StatFSResult, error) {
	s, err := fs.engine.StatFS(ctx)
	return StatFSResult{BytesUsed: s.BytesUsed, Inodes: s.Inodes}, err
}
