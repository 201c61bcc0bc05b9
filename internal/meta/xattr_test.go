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
	"testing"

	"github.com/mulatta/agentfs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXAttrSetGetRemove(t *testing.T) {
	backend := storage.NewMemBackend()

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return SetXAttr(tx, storage.LayerDelta, 5, "user.note", []byte("hi"))
	})

	var v []byte
	var ok bool
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		v, ok, err = GetXAttr(tx, storage.LayerDelta, 5, "user.note")
		return err
	})
	require.True(t, ok)
	assert.Equal(t, "hi", string(v))

	withWrite(t, backend, func(tx storage.WriteTx) error {
		return RemoveXAttr(tx, storage.LayerDelta, 5, "user.note")
	})
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		_, ok, err = GetXAttr(tx, storage.LayerDelta, 5, "user.note")
		return err
	})
	assert.False(t, ok)
}

func TestListXAttrs(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		if err := SetXAttr(tx, storage.LayerDelta, 5, "user.a", []byte("1")); err != nil {
			return err
		}
		return SetXAttr(tx, storage.LayerDelta, 5, "user.b", []byte("2"))
	})

	var names []string
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		names, err = ListXAttrs(tx, storage.LayerDelta, 5)
		return err
	})
	sort.Strings(names)
	assert.Equal(t, []string{"user.a", "user.b"}, names)
}

func TestCopyXAttrsBetweenLayers(t *testing.T) {
	backend := storage.NewMemBackend()
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return SetXAttr(tx, storage.LayerBase, 5, "user.a", []byte("1"))
	})
	withWrite(t, backend, func(tx storage.WriteTx) error {
		return CopyXAttrs(tx, storage.LayerBase, storage.LayerDelta, 5)
	})

	var v []byte
	var ok bool
	withRead(t, backend, func(tx storage.ReadTx) error {
		var err error
		v, ok, err = GetXAttr(tx, storage.LayerDelta, 5, "user.a")
		return err
	})
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}
