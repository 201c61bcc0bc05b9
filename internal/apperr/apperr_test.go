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

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindErrno(t *testing.T) {
	assert.Equal(t, 2, KindNotFound.Errno())
	assert.Equal(t, 17, KindExists.Errno())
	assert.Equal(t, 21, KindIsDirectory.Errno())
	assert.Equal(t, 5, Kind(999).Errno(), "unknown kinds must map to EIO")
}

func TestNewAndError(t *testing.T) {
	err := New("stat", "/a.txt", KindNotFound)
	assert.Equal(t, KindNotFound, err.Kind)
	assert.Equal(t, 2, err.Errno())
	assert.Contains(t, err.Error(), "stat")
	assert.Contains(t, err.Error(), "/a.txt")
	assert.Contains(t, err.Error(), "NotFound")
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk exploded")
	err := Wrap("write", "/a.txt", KindIO, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk exploded")
}

func TestWithPathFillsEmptyPathOnly(t *testing.T) {
	err := New("stat", "", KindNotFound)
	filled := WithPath(err, "/a.txt")
	var e *Error
	require.True(t, errors.As(filled, &e))
	assert.Equal(t, "/a.txt", e.Path)

	// Calling it again with a different path must not overwrite an
	// already-set path.
	again := WithPath(filled, "/b.txt")
	require.True(t, errors.As(again, &e))
	assert.Equal(t, "/a.txt", e.Path)
}

func TestWithPathPassesThroughNonAppErr(t *testing.T) {
	plain := errors.New("not an apperr")
	assert.Same(t, plain, WithPath(plain, "/a.txt"))
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(New("remove", "/a.txt", KindNotEmpty))
	require.True(t, ok)
	assert.Equal(t, KindNotEmpty, kind)

	wrapped := fmt.Errorf("context: %w", New("remove", "/a.txt", KindPermission))
	kind, ok = KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindPermission, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
