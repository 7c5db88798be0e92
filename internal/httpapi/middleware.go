// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package httpapi

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// requestIDKey is the echo context key holding the request's ULID.
const requestIDKey = "tidylist.request_id"

// requestID stamps every request with a ULID correlation id, honoring an
// id supplied by the client.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(HeaderRequestID)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Response().Header().Set(HeaderRequestID, id)
		return next(c)
	}
}

// RequestIDFrom returns the request's correlation id, if stamped.
func RequestIDFrom(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

// requestLogger logs one line per request with method, route, status, and
// duration. It resolves errors through the central handler first so the
// logged status is the one the client saw.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		slog.Info("http request",
			"request_id", RequestIDFrom(c),
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}

// requestMetrics counts requests by method, route template, and status.
// The route template keeps label cardinality bounded.
func (s *Server) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.metrics.RecordHTTPRequest(c.Request().Method, c.Path(), c.Response().Status)
		return err
	}
}
