// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries the given oops code, e.g.
// AssertErrorCode(t, err, "TODO_NOT_FOUND").
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err carries the given oops context
// key/value, e.g. AssertErrorContext(t, err, "todo_id", id).
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertErrorSentinel asserts that err both wraps the domain sentinel and
// carries the given oops code. Repositories wrap sentinels like
// todo.ErrConflict with codes like "TODO_DUPLICATE"; the HTTP layer matches
// on the sentinel while logs carry the code, so both must survive wrapping.
func AssertErrorSentinel(t *testing.T, err error, sentinel error, code string) {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
	AssertErrorCode(t, err, code)
}

// AssertNotSentinel asserts that err does not wrap the given sentinel.
func AssertNotSentinel(t *testing.T, err error, sentinel error) {
	t.Helper()
	require.Error(t, err)
	assert.False(t, errors.Is(err, sentinel), "error %v must not wrap %v", err, sentinel)
}
