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
	"path"
	"strings"

	"github.com/mulatta/agentfs/internal/apperr"
)

// EnsureParentDirs creates every missing directory component of p's
// parent chain, mode 0755, owned by uid/gid. It is a convenience layer
// over repeated Mkdir calls, grounded on the riverlytech-art reference
// overlay's helper of the same name.
func (fs *FileSystem) EnsureParentDirs(ctx context.Context, p string, uid, gid uint32) error {
	dir := path.Dir(pathNormalize(p))
	if dir == "/" || dir == "." {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(dir, "/"), "/")
	cur := "/"
	for _, part := range parts {
		if part == "" {
			continue
		}
		cur = path.Join(cur, part)
		if _, err := fs.Stat(ctx, cur); err == nil {
			continue
		} else if k, ok := apperr.KindOf(err); !ok || k != apperr.KindNotFound {
			return err
		}
		if err := fs.Mkdir(ctx, cur, 0o755, uid, gid); err != nil {
			if k, ok := apperr.KindOf(err); !ok || k != apperr.KindExists {
				return err
			}
		}
	}
	return nil
}

// WriteFile creates (if necessary) and fully overwrites the file at p
// with data.
func (fs *FileSystem) WriteFile(ctx context.Context, p string, data []byte, mode uint32, uid, gid uint32) error {
	if _, err := fs.Stat(ctx, p); err != nil {
		if k, ok := apperr.KindOf(err); !ok || k != apperr.KindNotFound {
			return err
		}
		if err := fs.Create(ctx, p, mode, uid, gid); err != nil {
			return err
		}
	} else {
		if err := fs.Truncate(ctx, p, 0); err != nil {
			return err
		}
	}
	if len(data) == 0 {
		return nil
	}
	_, err := fs.Write(ctx, p, 0, data)
	return err
}

// ReadFile reads the entire content of the file at p.
func (fs *FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	st, err := fs.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, st.Size)
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := fs.Read(ctx, p, 0, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Access checks only that p resolves; it does not evaluate uid/gid
// permission bits against a caller identity, since the core has no
// notion of a calling principal (spec's out-of-scope host extension
// shells own that check). It exists so wrapping layers have a single
// existence-check call that matches POSIX access(2)'s name.
func (fs *FileSystem) Access(ctx context.Context, p string) error {
	_, err := fs.Stat(ctx, p)
	return err
}

func pathNormalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
