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
	"os"
	"syscall"
	"testing"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/mulatta/agentfs/agentfs"
	"github.com/mulatta/agentfs/internal/apperr"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/stretchr/testify/assert"
)

func TestToErrnoMapsEveryKind(t *testing.T) {
	cases := map[apperr.Kind]error{
		apperr.KindNotFound:        fuse.ENOENT,
		apperr.KindExists:          fuse.EEXIST,
		apperr.KindNotDirectory:    fuse.ENOTDIR,
		apperr.KindIsDirectory:     fuse.EISDIR,
		apperr.KindNotEmpty:        fuse.ENOTEMPTY,
		apperr.KindPermission:      fuse.EPERM,
		apperr.KindInvalidArgument: fuse.EINVAL,
		apperr.KindNotSupported:    syscall.ENOTSUP,
		apperr.KindTooManyLinks:    syscall.ELOOP,
		apperr.KindNameTooLong:     syscall.ENAMETOOLONG,
		apperr.KindNoSpace:         fuse.ENOSPC,
		apperr.KindIO:              fuse.EIO,
		apperr.KindCanceled:        syscall.ECANCELED,
	}
	for kind, want := range cases {
		err := apperr.New("op", "/p", kind)
		assert.Equal(t, want, toErrno(err))
	}
}

func TestToErrnoNilAndUnknown(t *testing.T) {
	assert.Nil(t, toErrno(nil))
	assert.Equal(t, fuse.EIO, toErrno(assertErr{}))
}

type assertErr struct{}

func (assertErr) Error() string { return "not an apperr" }

func TestChildPathRootAndNested(t *testing.T) {
	assert.Equal(t, "/a.txt", childPath("/", "a.txt"))
	assert.Equal(t, "/dir/a.txt", childPath("/dir", "a.txt"))
}

func TestDirentType(t *testing.T) {
	assert.Equal(t, fuseutil.DT_Directory, direntType(meta.KindDir))
	assert.Equal(t, fuseutil.DT_Link, direntType(meta.KindSymlink))
	assert.Equal(t, fuseutil.DT_File, direntType(meta.KindFile))
}

func TestFuseFileTypeBits(t *testing.T) {
	assert.Equal(t, os.ModeDir, fuseFileTypeBits(meta.ModeDir|0o755))
	assert.Equal(t, os.ModeSymlink, fuseFileTypeBits(meta.ModeSymlink|0o777))
	assert.Equal(t, os.FileMode(0), fuseFileTypeBits(meta.ModeRegular|0o644))
}

func TestToAttributes(t *testing.T) {
	st := agentfs.Stats{
		Ino:   5,
		Mode:  meta.ModeRegular | 0o644,
		UID:   1000,
		GID:   1000,
		NLink: 1,
		Size:  42,
	}
	attr := toAttributes(st)
	assert.EqualValues(t, 42, attr.Size)
	assert.EqualValues(t, 1, attr.Nlink)
	assert.EqualValues(t, 1000, attr.Uid)
	assert.EqualValues(t, 1000, attr.Gid)
	assert.Equal(t, os.FileMode(0o644), attr.Mode)
}

func TestNewAdapterPreloadsRoot(t *testing.T) {
	a := New(nil, 1000, 1000)
	p, ok := a.pathOf(1) // fuseops.RootInodeID is conventionally 1
	assert.True(t, ok)
	assert.Equal(t, "/", p)
}

func TestRememberAndForget(t *testing.T) {
	a := New(nil, 1000, 1000)
	a.remember(99, "/dir/a.txt")

	p, ok := a.pathOf(99)
	assert.True(t, ok)
	assert.Equal(t, "/dir/a.txt", p)

	a.forget(99)
	_, ok = a.pathOf(99)
	assert.False(t, ok)
}
