// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package sqlite implements todo repositories backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/tidylist/tidylist/internal/todo"
)

// TodoRepository implements todo.Repository using SQLite.
// Timestamps are stored as epoch milliseconds in UTC. Every statement is
// scoped by user_id so another owner's rows are indistinguishable from
// missing rows.
type TodoRepository struct {
	db *sql.DB
}

// NewTodoRepository creates a new TodoRepository over an open database.
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create stores a new todo.
func (r *TodoRepository) Create(ctx context.Context, t *todo.Todo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (id, user_id, title, description, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID.String(),
		t.OwnerID.String(),
		t.Title,
		t.Description,
		t.Completed,
		t.CreatedAt.UTC().UnixMilli(),
		t.UpdatedAt.UTC().UnixMilli(),
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
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM todos
		WHERE id = ? AND user_id = ?
	`, id.String(), ownerID.String())

	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM todos
		WHERE user_id = ?
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
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`,
		t.Title,
		t.Description,
		t.Completed,
		t.UpdatedAt.UTC().UnixMilli(),
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
	affected, err := res.RowsAffected()
	if err != nil {
		return oops.Code("TODO_UPDATE_FAILED").
			With("operation", "read rows affected").
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("TODO_NOT_FOUND").
			With("id", t.ID.String()).
			Wrap(todo.ErrNotFound)
	}
	return nil
}

// Delete removes the owner's todo by id.
func (r *TodoRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM todos
		WHERE id = ? AND user_id = ?
	`, id.String(), ownerID.String())
	if err != nil {
		return oops.Code("TODO_DELETE_FAILED").
			With("operation", "delete todo").
			With("id", id.String()).
			Wrap(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return oops.Code("TODO_DELETE_FAILED").
			With("operation", "read rows affected").
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("TODO_NOT_FOUND").
			With("id", id.String()).
			Wrap(todo.ErrNotFound)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTodo scans a single row into a Todo.
// Callers are responsible for handling sql.ErrNoRows.
func scanTodo(row rowScanner) (*todo.Todo, error) {
	var (
		idStr       string
		ownerStr    string
		title       string
		description *string
		completed   bool
		createdAtMs int64
		updatedAtMs int64
	)

	err := row.Scan(&idStr, &ownerStr, &title, &description, &completed, &createdAtMs, &updatedAtMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		CreatedAt:   time.UnixMilli(createdAtMs).UTC(),
		UpdatedAt:   time.UnixMilli(updatedAtMs).UTC(),
	}, nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

// Compile-time interface check.
var _ todo.Repository = (*TodoRepository)(nil)
