// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package todo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Service implements owner-scoped todo operations. Every method takes the
// authenticated owner's id; a client-supplied owner is never accepted.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new Service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns all of the owner's todos.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*Todo, error) {
	todos, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").
			With("operation", "list todos").
			Wrap(err)
	}
	return todos, nil
}

// Get returns the owner's todo by id. A todo belonging to another owner is
// reported as not found.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Todo, error) {
	t, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err //nolint:wrapcheck // Repository already coded and scoped the error
		}
		return nil, oops.Code("TODO_GET_FAILED").
			With("operation", "get todo").
			With("id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// Create stores a new todo under the owner with a generated id.
// A duplicate title for this owner surfaces as an error wrapping ErrConflict.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*Todo, error) {
	if err := ValidateTitle(params.Title); err != nil {
		return nil, err
	}

	now := s.now()
	t := &Todo{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       params.Title,
		Description: params.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err //nolint:wrapcheck // Repository already coded the conflict
		}
		return nil, oops.Code("TODO_CREATE_FAILED").
			With("operation", "persist todo").
			Wrap(err)
	}
	return t, nil
}

// Update applies a partial patch to the owner's todo. Nil patch fields are
// left unchanged.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, patch UpdateParams) (*Todo, error) {
	if patch.Title != nil {
		if err := ValidateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}

	t, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err //nolint:wrapcheck // Repository already coded and scoped the error
		}
		return nil, oops.Code("TODO_UPDATE_FAILED").
			With("operation", "resolve todo").
			With("id", id.String()).
			Wrap(err)
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return nil, err //nolint:wrapcheck // Sentinel mapping happens at the HTTP layer
		}
		return nil, oops.Code("TODO_UPDATE_FAILED").
			With("operation", "persist todo").
			With("id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// Upsert replaces the owner's todo when the id exists under the owner, or
// creates it with the given id when absent. A primary key collision with
// another owner's row surfaces as the storage conflict.
func (s *Service) Upsert(ctx context.Context, ownerID, id uuid.UUID, params ReplaceParams) (*Todo, error) {
	if err := ValidateTitle(params.Title); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, ownerID, id)
	switch {
	case err == nil:
		existing.Title = params.Title
		existing.Description = params.Description
		existing.Completed = params.Completed
		existing.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, existing); err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
				return nil, err //nolint:wrapcheck // Sentinel mapping happens at the HTTP layer
			}
			return nil, oops.Code("TODO_UPSERT_FAILED").
				With("operation", "replace todo").
				With("id", id.String()).
				Wrap(err)
		}
		return existing, nil

	case errors.Is(err, ErrNotFound):
		now := s.now()
		t := &Todo{
			ID:          id,
			OwnerID:     ownerID,
			Title:       params.Title,
			Description: params.Description,
			Completed:   params.Completed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, t); err != nil {
			if errors.Is(err, ErrConflict) {
				// Covers both a title duplicate and an id held by another owner.
				return nil, err //nolint:wrapcheck // Repository already coded the conflict
			}
			return nil, oops.Code("TODO_UPSERT_FAILED").
				With("operation", "create todo").
				With("id", id.String()).
				Wrap(err)
		}
		return t, nil

	default:
		return nil, oops.Code("TODO_UPSERT_FAILED").
			With("operation", "resolve todo").
			With("id", id.String()).
			Wrap(err)
	}
}

// Delete removes the owner's todo by id. A todo belonging to another owner
// is reported as not found.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err //nolint:wrapcheck // Repository already coded and scoped the error
		}
		return oops.Code("TODO_DELETE_FAILED").
			With("operation", "delete todo").
			With("id", id.String()).
			Wrap(err)
	}
	return nil
}
