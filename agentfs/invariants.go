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
	"fmt"

	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/storage"
)

// CheckInvariants walks the database and reports violations of three
// invariants: next_ino lies above every base inode number, no (parent,
// name) has both a delta entry and a whiteout, and every copied-up delta
// record's OriginIno equals its own inode number. Link counts are not
// checked. Violations are returned rather than panicking the way the
// teacher's in-process checkInvariants does, so it backs a standalone
// fsck-style command, not an in-process assertion fired on every lock
// acquisition.
func (fs *FileSystem) CheckInvariants(ctx context.Context) ([]string, error) {
	var problems []string

	tx, err := fs.backend.BeginRead(ctx)
	if err != nil {
		return nil, err
	}

	nextIno, err := meta.PeekNextIno(tx)
	if err != nil {
		return nil, err
	}
	maxBase, err := maxBaseIno(tx)
	if err != nil {
		return nil, err
	}
	if nextIno <= maxBase {
		problems = append(problems, fmt.Sprintf(
			"inode-id reservation violated: next_ino=%d does not exceed max base ino=%d", nextIno, maxBase))
	}

	// INVARIANT: at most one of {delta entry, whiteout} exists per
	// (parent, name).
	err = tx.ForEachPrefix([]byte("WHITE/"), func(key, _ []byte) error {
		parent, name, perr := parseWhiteoutKey(key)
		if perr != nil {
			return perr
		}
		if _, ok, gerr := meta.GetChild(tx, storage.LayerDelta, parent, name); gerr != nil {
			return gerr
		} else if ok {
			problems = append(problems, fmt.Sprintf(
				"both a delta entry and a whiteout exist for (parent=%d, name=%q)", parent, name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// INVARIANT: every CopiedUp record's OriginIno equals its own key.
	err = tx.ForEachPrefix(storage.InodeLayerPrefix(storage.LayerDelta), func(key, value []byte) error {
		ino := parseInoSuffix(storage.InodeLayerPrefix(storage.LayerDelta), key)
		rec, derr := meta.DecodeInodeRecord(value)
		if derr != nil {
			return derr
		}
		if rec.Provenance == meta.ProvenanceCopiedUp && rec.OriginIno != ino {
			problems = append(problems, fmt.Sprintf(
				"copied-up inode %d has origin_ino=%d (stability invariant requires equality)", ino, rec.OriginIno))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return problems, nil
}

func parseWhiteoutKey(key []byte) (parent uint64, name string, err error) {
	s := string(key)
	const prefix = "WHITE/"
	if len(s) <= len(prefix) {
		return 0, "", fmt.Errorf("agentfs: malformed whiteout key %q", s)
	}
	rest := s[len(prefix):]
	slash := -1
	for i, c := range rest {
		if c == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return 0, "", fmt.Errorf("agentfs: malformed whiteout key %q", s)
	}
	var p uint64
	for _, c := range rest[:slash] {
		if c < '0' || c > '9' {
			return 0, "", fmt.Errorf("agentfs: malformed whiteout key %q", s)
		}
		p = p*10 + uint64(c-'0')
	}
	return p, rest[slash+1:], nil
}
