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

import "errors"

// Fault classes per spec §4.1. Backend implementations map their own
// errors onto these at the package boundary so that callers above storage
// never need to know whether they're talking to bbolt or the in-memory
// backend.
var (
	ErrStorage    = errors.New("storage: backend failure")
	ErrCorruption = errors.New("storage: corruption detected")
	ErrExhausted  = errors.New("storage: backend exhausted")
	ErrConflict   = errors.New("storage: conflicting transaction")

	// ErrTxDone is returned by any method called on a transaction that has
	// already been committed or aborted.
	ErrTxDone = errors.New("storage: transaction already committed or aborted")
)
