// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint rejects a write.
var ErrConflict = errors.New("value already exists")
