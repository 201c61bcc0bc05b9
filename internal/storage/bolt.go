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
	"errors"
	"fmt"
	"syscall"
	"time"

	"go.etcd.io/bbolt"
)

// rootBucket is the single bbolt bucket all typed keys live under. AgentFS
// does not use bbolt's nested-bucket feature for its own namespacing; the
// prefix scheme of keys.go already gives it one flat, orderable keyspace,
// which keeps ForEachPrefix a single bucket Cursor.Seek loop.
var rootBucket = []byte("agentfs")

// BoltBackend is the on-disk Backend implementation, grounded on the
// db.View()/db.Update() transaction model described in
// other_examples/..._cuemby-warren__pkg-storage-doc.go.go.
type BoltBackend struct {
	db   *bbolt.DB
	path string
}

// OpenBolt opens (creating if necessary) a bbolt-backed store at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init bucket: %v", ErrStorage, err)
	}

	return &BoltBackend{db: db, path: path}, nil
}

func (b *BoltBackend) Path() string { return b.path }

func (b *BoltBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrStorage, err)
	}
	return nil
}

func (b *BoltBackend) Flush() error {
	// bbolt fsyncs on every committed write transaction already; Flush is
	// a no-op hook kept for symmetry with MemBackend and for fsync-class
	// public API calls that want an explicit durability point.
	return nil
}

func (b *BoltBackend) BeginRead(ctx context.Context) (ReadTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, mapBoltErr(err)
	}

	// Copy the bucket into memory and roll back immediately rather than
	// holding the bbolt read transaction open for the caller's lifetime:
	// every filesystem read op takes this path, and an un-rolled-back
	// Begin(false) pins old pages (and a db.txs entry) until Rollback is
	// called, which nothing here ever does. Mirrors MemBackend.BeginRead's
	// copy-then-release pattern.
	bucket := tx.Bucket(rootBucket)
	snapshot := make(map[string][]byte)
	c := bucket.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		val := make([]byte, len(v))
		copy(val, v)
		snapshot[string(k)] = val
	}
	if err := tx.Rollback(); err != nil {
		return nil, mapBoltErr(err)
	}

	return &memReadTx{snapshot: snapshot}, nil
}

func (b *BoltBackend) BeginWrite(ctx context.Context) (WriteTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := b.db.Begin(true)
	if err != nil {
		return nil, mapBoltErr(err)
	}
	return &boltWriteTx{boltReadTx: boltReadTx{tx: tx, bucket: rootBucket}}, nil
}

func mapBoltErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bbolt.ErrDatabaseNotOpen), errors.Is(err, bbolt.ErrTxClosed):
		return fmt.Errorf("%w: %v", ErrStorage, err)
	case errors.Is(err, bbolt.ErrTimeout):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("%w: %v", ErrExhausted, err)
	case errors.Is(err, bbolt.ErrInvalid), errors.Is(err, bbolt.ErrChecksum), errors.Is(err, bbolt.ErrVersionMismatch):
		return fmt.Errorf("%w: %v", ErrCorruption, err)
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}

type boltReadTx struct {
	tx     *bbolt.Tx
	bucket []byte
	done   bool
}

func (t *boltReadTx) Get(key []byte) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	b := t.tx.Bucket(t.bucket)
	v := b.Get(key)
	if v == nil {
		return nil, false, nil
	}
	// bbolt's Get returns a slice valid only for the lifetime of the
	// transaction; copy it out so callers can retain it afterward.
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (t *boltReadTx) ForEachPrefix(prefix []byte, fn func(key, value []byte) error) error {
	if t.done {
		return ErrTxDone
	}
	b := t.tx.Bucket(t.bucket)
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

type boltWriteTx struct {
	boltReadTx
}

func (t *boltWriteTx) Put(key, value []byte) error {
	if t.done {
		return ErrTxDone
	}
	b := t.tx.Bucket(t.bucket)
	if err := b.Put(key, value); err != nil {
		return mapBoltErr(err)
	}
	return nil
}

func (t *boltWriteTx) Delete(key []byte) error {
	if t.done {
		return ErrTxDone
	}
	b := t.tx.Bucket(t.bucket)
	if err := b.Delete(key); err != nil {
		return mapBoltErr(err)
	}
	return nil
}

func (t *boltWriteTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return mapBoltErr(err)
	}
	return nil
}

func (t *boltWriteTx) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return mapBoltErr(err)
	}
	return nil
}
