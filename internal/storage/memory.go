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

package storage

import (
	"context"
	"sort"
	"sync"
)

// MemBackend implements Backend without a file, for the ":memory:" config
// mode and for package tests. It gives the same ACID-transaction contract
// as BoltBackend: a single mutex serializes writers while allowing any
// number of concurrent readers against the last-committed snapshot.
type MemBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemBackend returns an empty in-memory backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{data: make(map[string][]byte)}
}

func (m *MemBackend) Path() string { return ":memory:" }
func (m *MemBackend) Close() error { return nil }
func (m *MemBackend) Flush() error { return nil }

func (m *MemBackend) BeginRead(ctx context.Context) (ReadTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	snapshot := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		snapshot[k] = v
	}
	m.mu.RUnlock()
	return &memReadTx{snapshot: snapshot}, nil
}

func (m *MemBackend) BeginWrite(ctx context.Context) (WriteTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	snapshot := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		snapshot[k] = v
	}
	return &memWriteTx{
		memReadTx: memReadTx{snapshot: snapshot},
		backend:   m,
		puts:      make(map[string][]byte),
		deletes:   make(map[string]struct{}),
	}, nil
}

type memReadTx struct {
	snapshot map[string][]byte
	done     bool
}

func (t *memReadTx) Get(key []byte) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	v, ok := t.snapshot[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (t *memReadTx) ForEachPrefix(prefix []byte, fn func(key, value []byte) error) error {
	if t.done {
		return ErrTxDone
	}
	keys := make([]string, 0, len(t.snapshot))
	for k := range t.snapshot {
		if hasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), t.snapshot[k]); err != nil {
			return err
		}
	}
	return nil
}

type memWriteTx struct {
	memReadTx
	backend *MemBackend
	puts    map[string][]byte
	deletes map[string]struct{}
}

func (t *memWriteTx) Put(key, value []byte) error {
	if t.done {
		return ErrTxDone
	}
	k := string(key)
	v := make([]byte, len(value))
	copy(v, value)
	t.snapshot[k] = v
	t.puts[k] = v
	delete(t.deletes, k)
	return nil
}

func (t *memWriteTx) Delete(key []byte) error {
	if t.done {
		return ErrTxDone
	}
	k := string(key)
	delete(t.snapshot, k)
	t.deletes[k] = struct{}{}
	delete(t.puts, k)
	return nil
}

func (t *memWriteTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.backend.mu.Unlock()
	for k, v := range t.puts {
		t.backend.data[k] = v
	}
	for k := range t.deletes {
		delete(t.backend.data, k)
	}
	return nil
}

func (t *memWriteTx) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	t.backend.mu.Unlock()
	return nil
}
