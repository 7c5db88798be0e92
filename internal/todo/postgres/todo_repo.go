// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package postgres implements todo repositories backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/tidylist/tidylist/internal/todo"
)

// poolIface abstracts the pgx pool so repositories can be unit tested
// with pgxmock. *pgxpool.Pool satisfies it.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TodoRepository implements todo.Repository using PostgreSQL.
// Every statement is scoped by user_id so another owner's rows are
// indistinguishable from missing rows.
type TodoRepository struct {
	pool poolIface
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(pool poolIface) *TodoRepository {
	return &TodoRepository{pool: pool}
}

// Create stores a new todo.
func (r *TodoRepository) Create(ctx context.Context, t *todo.Todo) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO todos (id, user_id, title, description, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		t.ID.String(),
		t.OwnerID.String(),
		t.Title,
		t.Description,
		t.Completed,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("TODO_DUPLICATE").
				With("id", t.ID.String()).
				With("title", t.Title).
				Wrap(todo.ErrConflict)
		}
		return oops.Code("TODO_CREATE_FAILED").
			With("operation", "insert todo").
			With("id", t.ID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves the owner's todo by id.
func (r *TodoRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*todo.Todo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM todos
		WHERE id = $1 AND user_id = $2
	`, id.String(), ownerID.String())

	t, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TODO_NOT_FOUND").
			With("id", id.String()).
			Wrap(todo.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TODO_GET_FAILED").
			With("operation", "get todo").
			With("id", id.String()).
			Wrap(err)
	}
	return t, nil
}

// ListByOwner retrieves all of the owner's todos, oldest first.
func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*todo.Todo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM todos
		WHERE user_id = $1
		ORDER BY created_at, id
	`, ownerID.String())
	if err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").
			With("operation", "list todos").
			Wrap(err)
	}
	defer rows.Close()

	var todos []*todo.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, oops.Code("TODO_LIST_FAILED").
				With("operation", "scan todo row").
				Wrap(err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").
			With("operation", "iterate todo rows").
			Wrap(err)
	}
	return todos, nil
}

// Update persists the full row for the owner's existing todo.
func (r *TodoRepository) Update(ctx context.Context, t *todo.Todo) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE todos
		SET title = $1, description = $2, completed = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`,
		t.Title,
		t.Description,
		t.Completed,
		t.UpdatedAt,
		t.ID.String(),
		t.OwnerID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("TODO_DUPLICATE").
				With("id", t.ID.String()).
				With("title", t.Title).
				Wrap(todo.ErrConflict)
		}
		return oops.Code("TODO_UPDATE_FAILED").
			With("operation", "update todo").
			With("id", t.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("TODO_NOT_FOUND").
			With("id", t.ID.String()).
			Wrap(todo.ErrNotFound)
	}
	return nil
}

// Delete removes the owner's todo by id.
func (r *TodoRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM todos
		WHERE id = $1 AND user_id = $2
	`, id.String(), ownerID.String())
	if err != nil {
		return oops.Code("TODO_DELETE_FAILED").
			With("operation", "delete todo").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("TODO_NOT_FOUND").
			With("id", id.String()).
			Wrap(todo.ErrNotFound)
	}
	return nil
}

// scanTodo scans a single row into a Todo.
// Callers are responsible for handling pgx.ErrNoRows.
func scanTodo(row pgx.Row) (*todo.Todo, error) {
	var (
		idStr       string
		ownerStr    string
		title       string
		description *string
		completed   bool
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&idStr, &ownerStr, &title, &description, &completed, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("TODO_SCAN_FAILED").
			With("operation", "scan todo").
			Wrap(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TODO_INVALID_ID").
			With("operation", "parse todo id").
			With("id", idStr).
			Wrap(err)
	}
	ownerID, err := uuid.Parse(ownerStr)
	if err != nil {
		return nil, oops.Code("TODO_INVALID_ID").
			With("operation", "parse todo owner id").
			With("id", ownerStr).
			Wrap(err)
	}

	return &todo.Todo{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Completed:   completed,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ todo.Repository = (*TodoRepository)(nil)
