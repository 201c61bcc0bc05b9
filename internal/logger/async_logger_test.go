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

package logger

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the background writer goroutine and the test goroutine
// touch the same buffer without racing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Close() error { return nil }

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestAsyncLoggerWritesReachUnderlyingWriter(t *testing.T) {
	buf := &syncBuffer{}
	al := NewAsyncLogger(buf, 10)

	fmt.Fprintln(al, "hello")
	require.NoError(t, al.Close())

	assert.Equal(t, "hello\n", buf.String())
}

func TestAsyncLoggerCloseIsIdempotent(t *testing.T) {
	buf := &syncBuffer{}
	al := NewAsyncLogger(buf, 10)

	require.NoError(t, al.Close())
	require.NoError(t, al.Close())
}

func TestAsyncLoggerDropsOnFullBuffer(t *testing.T) {
	blocked := make(chan struct{})
	release := make(chan struct{})
	bw := &blockingWriter{blocked: blocked, release: release}

	al := NewAsyncLogger(bw, 1)

	// The first write is picked up by run() immediately and blocks inside
	// Write; wait for that handoff before filling the channel buffer.
	_, _ = al.Write([]byte("first"))
	<-blocked

	// Buffer capacity is 1: this one is queued...
	_, _ = al.Write([]byte("second"))
	// ...and this one has nowhere to go, so it must be dropped rather
	// than block the caller.
	done := make(chan struct{})
	go func() {
		_, _ = al.Write([]byte("third"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write blocked on a full buffer instead of dropping")
	}

	close(release)
	require.NoError(t, al.Close())
}

type blockingWriter struct {
	blocked chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingWriter) Write(p []byte) (int, error) {
	b.once.Do(func() { close(b.blocked) })
	<-b.release
	return len(p), nil
}

func (b *blockingWriter) Close() error { return nil }
