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

// Package apperr defines the error taxonomy of spec §7, shared by every
// internal layer and the public agentfs API so that a single type can be
// mapped to a POSIX errno at the host-extension boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the stable error classes spec §7 enumerates.
type Kind int

const (
	KindNotFound Kind = iota
	KindExists
	KindNotDirectory
	KindIsDirectory
	KindNotEmpty
	KindPermission
	KindInvalidArgument
	KindNotSupported
	KindTooManyLinks
	KindNameTooLong
	KindNoSpace
	KindIO
	KindCanceled
)

// Errno is the conventional POSIX errno value for each Kind, following
// the table in spec §7.
func (k Kind) Errno() int {
	switch k {
	case KindNotFound:
		return 2 // ENOENT
	case KindExists:
		return 17 // EEXIST
	case KindNotDirectory:
		return 20 // ENOTDIR
	case KindIsDirectory:
		return 21 // EISDIR
	case KindNotEmpty:
		return 39 // ENOTEMPTY
	case KindPermission:
		return 1 // EPERM
	case KindInvalidArgument:
		return 22 // EINVAL
	case KindNotSupported:
		return 95 // ENOTSUP
	case KindTooManyLinks:
		return 40 // ELOOP
	case KindNameTooLong:
		return 36 // ENAMETOOLONG
	case KindNoSpace:
		return 28 // ENOSPC
	case KindCanceled:
		return 125 // ECANCELED
	default:
		return 5 // EIO
	}
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindExists:
		return "Exists"
	case KindNotDirectory:
		return "NotDirectory"
	case KindIsDirectory:
		return "IsDirectory"
	case KindNotEmpty:
		return "NotEmpty"
	case KindPermission:
		return "Permission"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotSupported:
		return "NotSupported"
	case KindTooManyLinks:
		return "TooManyLinks"
	case KindNameTooLong:
		return "NameTooLong"
	case KindNoSpace:
		return "NoSpace"
	case KindCanceled:
		return "Canceled"
	default:
		return "IO"
	}
}

// Error wraps a Kind with a path and an optional underlying cause.
type Error struct {
	Kind Kind
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agentfs: %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("agentfs: %s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Errno returns the conventional POSIX errno for e's Kind.
func (e *Error) Errno() int { return e.Kind.Errno() }

// New builds an *Error for op on path.
func New(op, path string, kind Kind) *Error {
	return &Error{Kind: kind, Path: path, Op: op}
}

// Wrap builds an *Error for op on path, carrying cause as the underlying
// error (e.g. a storage-layer failure mapped to KindIO).
func Wrap(op, path string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Path: path, Op: op, Err: cause}
}

// WithPath returns err with Path set to path when err is an *Error with
// an empty Path (the common case: a lower layer raised the error before
// it knew the caller's original path string).
func WithPath(err error, path string) error {
	if e, ok := err.(*Error); ok && e.Path == "" {
		e.Path = path
		return e
	}
	return err
}

// KindOf extracts the Kind of err, if err is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
