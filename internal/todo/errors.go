// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package todo

import "errors"

// Domain sentinel errors. Repositories wrap these with oops codes and
// context; the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrNotFound indicates the todo does not exist for the given owner.
	// A todo owned by someone else is deliberately indistinguishable from
	// one that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("value already exists")
)
