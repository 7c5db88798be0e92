// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/tidylist/tidylist/internal/todo"
)

type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type replaceTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

type todoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTodoResponse(t *todo.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		OwnerID:     t.OwnerID.String(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// caller returns the gate-resolved identity for an authenticated route.
func caller(c echo.Context) (Identity, error) {
	identity, ok := IdentityFrom(c)
	if !ok {
		return Identity{}, oops.Code("AUTH_TOKEN_INVALID").Errorf("missing identity")
	}
	return identity, nil
}

// todoID parses the :id path param. A non-UUID id cannot name an existing
// todo, so it maps to not found rather than a validation error.
func todoID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, oops.Code("TODO_NOT_FOUND").
			With("id", c.Param("id")).
			Wrap(todo.ErrNotFound)
	}
	return id, nil
}

func (s *Server) handleListTodos(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}

	todos, err := s.todos.List(c.Request().Context(), identity.UserID)
	if err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}

	out := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, newTodoResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateTodo(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}

	var req createTodoRequest
	if err := c.Bind(&req); err != nil {
		return oops.Code("VALIDATION").Errorf("invalid request body")
	}

	created, err := s.todos.Create(c.Request().Context(), identity.UserID, todo.CreateParams{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}

	s.metrics.RecordTodoOp("create")
	return c.JSON(http.StatusCreated, newTodoResponse(created))
}

func (s *Server) handleGetTodo(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := todoID(c)
	if err != nil {
		return err
	}

	t, err := s.todos.Get(c.Request().Context(), identity.UserID, id)
	if err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}
	return c.JSON(http.StatusOK, newTodoResponse(t))
}

func (s *Server) handleUpdateTodo(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := todoID(c)
	if err != nil {
		return err
	}

	var req updateTodoRequest
	if err := c.Bind(&req); err != nil {
		return oops.Code("VALIDATION").Errorf("invalid request body")
	}

	updated, err := s.todos.Update(c.Request().Context(), identity.UserID, id, todo.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}

	s.metrics.RecordTodoOp("update")
	return c.JSON(http.StatusOK, newTodoResponse(updated))
}

func (s *Server) handleUpsertTodo(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := todoID(c)
	if err != nil {
		return err
	}

	var req replaceTodoRequest
	if err := c.Bind(&req); err != nil {
		return oops.Code("VALIDATION").Errorf("invalid request body")
	}

	result, err := s.todos.Upsert(c.Request().Context(), identity.UserID, id, todo.ReplaceParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}

	s.metrics.RecordTodoOp("upsert")
	return c.JSON(http.StatusOK, newTodoResponse(result))
}

func (s *Server) handleDeleteTodo(c echo.Context) error {
	identity, err := caller(c)
	if err != nil {
		return err
	}
	id, err := todoID(c)
	if err != nil {
		return err
	}

	if err := s.todos.Delete(c.Request().Context(), identity.UserID, id); err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}

	s.metrics.RecordTodoOp("delete")
	return c.NoContent(http.StatusNoContent)
}
