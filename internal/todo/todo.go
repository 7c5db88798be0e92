// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package todo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// MaxTitleLength bounds the title so the composite uniqueness index stays
// within index key limits on both backends.
const MaxTitleLength = 255

// Todo is an owner-scoped task. The owner reference is assigned at creation
// and never changes.
type Todo struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams holds the client-supplied fields for a new todo.
// The id, owner, and completed state are assigned server-side.
type CreateParams struct {
	Title       string
	Description *string
}

// UpdateParams is a partial update. Nil fields are left unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Completed   *bool
}

// ReplaceParams holds the full desired state for an upsert.
type ReplaceParams struct {
	Title       string
	Description *string
	Completed   bool
}

// ValidateTitle validates a todo title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return oops.Code("VALIDATION").Errorf("title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return oops.Code("VALIDATION").
			With("max", MaxTitleLength).
			Errorf("title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

// Repository manages todo persistence. Every read and write is scoped to an
// owner at the SQL level, so a row belonging to another owner behaves
// exactly like a missing row.
type Repository interface {
	// Create stores a new todo. Returns an error wrapping ErrConflict when
	// the (owner, title) uniqueness constraint or the primary key rejects
	// the insert.
	Create(ctx context.Context, t *Todo) error

	// Get retrieves the owner's todo by id.
	// Returns an error wrapping ErrNotFound when absent.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*Todo, error)

	// ListByOwner retrieves all todos for an owner, oldest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Todo, error)

	// Update persists the full row for the owner's existing todo.
	// Returns an error wrapping ErrNotFound when the owner has no such
	// todo, or ErrConflict when the new title collides with another of
	// the owner's todos.
	Update(ctx context.Context, t *Todo) error

	// Delete removes the owner's todo by id.
	// Returns an error wrapping ErrNotFound when absent.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
