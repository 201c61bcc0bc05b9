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

import "github.com/mulatta/agentfs/internal/storage"

// GetXAttr returns the value of xattr name on ino in layer.
func GetXAttr(tx storage.ReadTx, layer storage.Layer, ino uint64, name string) ([]byte, bool, error) {
	return tx.Get(storage.XAttrKey(layer, ino, name))
}

// SetXAttr sets xattr name on ino in layer to value.
func SetXAttr(tx storage.WriteTx, layer storage.Layer, ino uint64, name string, value []byte) error {
	return tx.Put(storage.XAttrKey(layer, ino, name), value)
}

// RemoveXAttr deletes xattr name from ino in layer.
func RemoveXAttr(tx storage.WriteTx, layer storage.Layer, ino uint64, name string) error {
	return tx.Delete(storage.XAttrKey(layer, ino, name))
}

// ListXAttrs returns every xattr name set on ino in layer.
func ListXAttrs(tx storage.ReadTx, layer storage.Layer, ino uint64) ([]string, error) {
	prefix := storage.XAttrListPrefix(layer, ino)
	var names []string
	err := tx.ForEachPrefix(prefix, func(key, _ []byte) error {
		names = append(names, storage.DirNameFromKey(prefix, key))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// CopyXAttrs copies every xattr of ino from srcLayer to dstLayer,
// used during copy-up (spec §4.3 step 2, "all fields copied").
func CopyXAttrs(tx storage.WriteTx, srcLayer, dstLayer storage.Layer, ino uint64) error {
	prefix := storage.XAttrListPrefix(srcLayer, ino)
	type kv struct {
		name  string
		value []byte
	}
	var attrs []kv
	err := tx.ForEachPrefix(prefix, func(key, value []byte) error {
		v := make([]byte, len(value))
		copy(v, value)
		attrs = append(attrs, kv{name: storage.DirNameFromKey(prefix, key), value: v})
		return nil
	})
	if err != nil {
		return err
	}
	for _, a := range attrs {
		if err := tx.Put(storage.XAttrKey(dstLayer, ino, a.name), a.value); err != nil {
			return err
		}
	}
	return nil
}
