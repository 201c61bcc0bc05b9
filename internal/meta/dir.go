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
	"sort"

	"github.com/mulatta/agentfs/internal/storage"
)

// PutChild records that name resolves to child within parent, in layer.
func PutChild(tx storage.WriteTx, layer storage.Layer, parent uint64, name string, child uint64) error {
	return tx.Put(storage.DirEntryKey(layer, parent, name), storage.EncodeUint64(child))
}

// GetChild looks up name within parent in layer.
func GetChild(tx storage.ReadTx, layer storage.Layer, parent uint64, name string) (uint64, bool, error) {
	v, ok, err := tx.Get(storage.DirEntryKey(layer, parent, name))
	if err != nil || !ok {
		return 0, ok, err
	}
	child, err := storage.DecodeUint64(v)
	if err != nil {
		return 0, false, err
	}
	return child, true, nil
}

// DeleteChild removes the (parent, name) binding in layer.
func DeleteChild(tx storage.WriteTx, layer storage.Layer, parent uint64, name string) error {
	return tx.Delete(storage.DirEntryKey(layer, parent, name))
}

// DirEntry is one listed child, the child's own inode id.
type DirEntry struct {
	Name string
	Ino  uint64
}

// ListChildren returns every (name, child) pair stored for parent in
// layer, in lexicographic order (the natural order of the backend's
// prefix scan, since keys.go packs names directly after a fixed-width
// parent id).
func ListChildren(tx storage.ReadTx, layer storage.Layer, parent uint64) ([]DirEntry, error) {
	prefix := storage.DirListPrefix(layer, parent)
	var out []DirEntry
	err := tx.ForEachPrefix(prefix, func(key, value []byte) error {
		name := storage.DirNameFromKey(prefix, key)
		child, err := storage.DecodeUint64(value)
		if err != nil {
			return err
		}
		out = append(out, DirEntry{Name: name, Ino: child})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutWhiteout marks name within parent as logically removed from the
// base layer's view.
func PutWhiteout(tx storage.WriteTx, parent uint64, name string) error {
	return tx.Put(storage.WhiteoutKey(parent, name), []byte{1})
}

// HasWhiteout reports whether name within parent is whited out.
func HasWhiteout(tx storage.ReadTx, parent uint64, name string) (bool, error) {
	_, ok, err := tx.Get(storage.WhiteoutKey(parent, name))
	return ok, err
}

// DeleteWhiteout clears a previously recorded whiteout (e.g. on recreate).
func DeleteWhiteout(tx storage.WriteTx, parent uint64, name string) error {
	return tx.Delete(storage.WhiteoutKey(parent, name))
}

// ListWhiteouts returns the set of whited-out names under parent.
func ListWhiteouts(tx storage.ReadTx, parent uint64) (map[string]struct{}, error) {
	prefix := storage.WhiteoutListPrefix(parent)
	out := make(map[string]struct{})
	err := tx.ForEachPrefix(prefix, func(key, _ []byte) error {
		out[storage.DirNameFromKey(prefix, key)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MergeListing computes the union directory listing spec §4.2 describes:
// base entries minus whited-out names, unioned with delta entries, delta
// wins on name collision, result sorted lexicographically.
func MergeListing(baseEntries, deltaEntries []DirEntry, whiteouts map[string]struct{}) []DirEntry {
	merged := make(map[string]uint64, len(baseEntries)+len(deltaEntries))
	for _, e := range baseEntries {
		if _, hidden := whiteouts[e.Name]; hidden {
			continue
		}
		merged[e.Name] = e.Ino
	}
	for _, e := range deltaEntries {
		merged[e.Name] = e.Ino
	}
	out := make([]DirEntry, 0, len(merged))
	for name, ino := range merged {
		out = append(out, DirEntry{Name: name, Ino: ino})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
