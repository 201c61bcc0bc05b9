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

// Package storage provides the transactional key-value contract that every
// higher layer of AgentFS speaks through. No package outside storage ever
// touches on-disk bytes directly.
package storage

import "context"

// ReadTx is a read-only view of the backend. It is safe to hold concurrently
// with a single in-flight WriteTx (snapshot isolation).
type ReadTx interface {
	// Get returns the value stored at key, or ok == false if absent.
	Get(key []byte) (value []byte, ok bool, err error)

	// ForEachPrefix calls fn once per key/value pair whose key starts with
	// prefix, in ascending key order. fn must not retain the byte slices
	// passed to it beyond the call.
	ForEachPrefix(prefix []byte, fn func(key, value []byte) error) error
}

// WriteTx is a single read-write transaction. Writers are serialized by the
// backend; only one WriteTx may be outstanding at a time.
type WriteTx interface {
	ReadTx

	Put(key, value []byte) error
	Delete(key []byte) error

	// Commit atomically and durably applies every Put/Delete made through
	// this transaction. After Commit returns (successfully or not) the
	// transaction is no longer usable.
	Commit() error

	// Abort discards every Put/Delete made through this transaction. Safe
	// to call after a failed Commit; a no-op after a successful one.
	Abort() error
}

// Backend is the storage contract described in spec §4.1: ACID key-value
// transactions over a single file, or an in-memory equivalent.
type Backend interface {
	BeginRead(ctx context.Context) (ReadTx, error)
	BeginWrite(ctx context.Context) (WriteTx, error)

	// Path returns the backend's file path, or ":memory:" for the
	// in-memory backend.
	Path() string

	// Flush maps to the fsync-class guarantee spec §4.1 requires of
	// fsync-class operations: the durability of the last Commit.
	Flush() error

	Close() error
}
