// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// handleLogin exchanges a credential for a bearer token.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return oops.Code("VALIDATION").Errorf("invalid request body")
	}
	if req.Email == "" {
		return oops.Code("VALIDATION").Errorf("email cannot be empty")
	}
	if req.Password == "" {
		return oops.Code("VALIDATION").Errorf("password cannot be empty")
	}

	token, err := s.auths.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == "AUTH_INVALID_CREDENTIALS" {
			s.metrics.RecordLogin("failure")
		}
		return err //nolint:wrapcheck // Mapped by the central error handler
	}

	s.metrics.RecordLogin("success")
	return c.JSON(http.StatusCreated, loginResponse{AccessToken: token})
}
