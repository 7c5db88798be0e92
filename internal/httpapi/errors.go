// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/tidylist/tidylist/internal/auth"
	"github.com/tidylist/tidylist/internal/todo"
	"github.com/tidylist/tidylist/pkg/errutil"
)

// errorBody is the single wire shape for every error response.
type errorBody struct {
	Message string `json:"message"`
}

// Canonical error messages. Detail never leaks to clients; it is logged
// server-side instead.
const (
	msgNotFound     = "not found"
	msgConflict     = "value already exists"
	msgInvalidToken = "invalid or expired token"
	msgInternal     = "internal server error"
)

// handleError is the central echo HTTPErrorHandler. All status mapping
// lives here; handlers return domain errors and never branch on ownership.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		errutil.LogError(slog.Default(), "request failed", err)
	}

	if c.Request().Method == http.MethodHead {
		if writeErr := c.NoContent(status); writeErr != nil {
			slog.Warn("failed to write error response", "error", writeErr)
		}
		return
	}
	if writeErr := c.JSON(status, errorBody{Message: message}); writeErr != nil {
		slog.Warn("failed to write error response", "error", writeErr)
	}
}

// classify maps an error to its HTTP status and client-safe message.
func classify(err error) (int, string) {
	// Echo's own errors: unknown routes, method mismatches, malformed bodies.
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErrorMessage(httpErr)
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case "VALIDATION":
			// Validation messages are written to be user-safe.
			return http.StatusBadRequest, oopsErr.Error()
		case "AUTH_INVALID_CREDENTIALS":
			return http.StatusUnauthorized, oopsErr.Error()
		case "AUTH_TOKEN_INVALID", "AUTH_TOKEN_EXPIRED":
			return http.StatusUnauthorized, msgInvalidToken
		}
	}

	switch {
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, todo.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, auth.ErrConflict), errors.Is(err, todo.ErrConflict):
		return http.StatusConflict, msgConflict
	}

	return http.StatusInternalServerError, msgInternal
}

func httpErrorMessage(httpErr *echo.HTTPError) string {
	switch httpErr.Code {
	case http.StatusNotFound:
		return msgNotFound
	case http.StatusInternalServerError:
		return msgInternal
	}
	if msg, ok := httpErr.Message.(string); ok {
		return msg
	}
	return http.StatusText(httpErr.Code)
}
