// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/tidylist/tidylist/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse never carries the password hash.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// handleRegister creates a new account.
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return oops.Code("VALIDATION").Errorf("invalid request body")
	}

	user, err := s.auths.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}
	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// handleGetUser returns the caller's own account. Any other id, including a
// malformed one, is reported as not found.
func (s *Server) handleGetUser(c echo.Context) error {
	identity, ok := IdentityFrom(c)
	if !ok {
		return oops.Code("AUTH_TOKEN_INVALID").Errorf("missing identity")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// A non-UUID id cannot name an existing user.
		return oops.Code("USER_NOT_FOUND").
			With("id", c.Param("id")).
			Wrap(auth.ErrNotFound)
	}

	user, err := s.auths.GetUser(c.Request().Context(), identity.UserID, id)
	if err != nil {
		return err //nolint:wrapcheck // Mapped by the central error handler
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}
