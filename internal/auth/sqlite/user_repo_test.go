// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidylist/tidylist/internal/auth"
	"github.com/tidylist/tidylist/internal/store"
	"github.com/tidylist/tidylist/pkg/errutil"
)

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db)
}

func testUser(email string) *auth.User {
	return &auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user", func(t *testing.T) {
		repo := newTestRepo(t)
		user := testUser("alice@example.com")
		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
		assert.Equal(t, user.CreatedAt, got.CreatedAt)
	})

	t.Run("duplicate email is conflict", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, testUser("alice@example.com")))

		err := repo.Create(ctx, testUser("alice@example.com"))
		errutil.AssertErrorSentinel(t, err, auth.ErrConflict, "USER_EMAIL_TAKEN")
		errutil.AssertNotSentinel(t, err, auth.ErrNotFound)
	})

	t.Run("email comparison is case-sensitive", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, testUser("alice@example.com")))
		require.NoError(t, repo.Create(ctx, testUser("Alice@example.com")))
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is not found", func(t *testing.T) {
		repo := newTestRepo(t)
		_, err := repo.GetByID(ctx, uuid.New())
		errutil.AssertErrorSentinel(t, err, auth.ErrNotFound, "USER_NOT_FOUND")
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("returns matching user", func(t *testing.T) {
		repo := newTestRepo(t)
		user := testUser("bob@example.com")
		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("different case does not match", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, testUser("bob@example.com")))

		_, err := repo.GetByEmail(ctx, "Bob@example.com")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		repo := newTestRepo(t)
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
	})
}
