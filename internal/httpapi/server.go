// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package httpapi serves the TidyList REST API, including the bearer-token
// request gate and the central error responder.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"

	"github.com/tidylist/tidylist/internal/auth"
	"github.com/tidylist/tidylist/internal/observability"
	"github.com/tidylist/tidylist/internal/todo"
)

// AuthService is the authentication surface the API consumes.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*auth.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	VerifyToken(token string) (*auth.TokenClaims, error)
	GetUser(ctx context.Context, callerID, id uuid.UUID) (*auth.User, error)
}

// TodoService is the todo surface the API consumes. Every method is scoped
// to the authenticated owner.
type TodoService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*todo.Todo, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*todo.Todo, error)
	Create(ctx context.Context, ownerID uuid.UUID, params todo.CreateParams) (*todo.Todo, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch todo.UpdateParams) (*todo.Todo, error)
	Upsert(ctx context.Context, ownerID, id uuid.UUID, params todo.ReplaceParams) (*todo.Todo, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// Config holds the API server settings.
type Config struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PublicRoutes are "METHOD /path" glob patterns that bypass the gate.
	PublicRoutes []string
}

// Server is the TidyList API server.
type Server struct {
	cfg        Config
	echo       *echo.Echo
	listener   net.Listener
	httpServer *http.Server
	auths      AuthService
	todos      TodoService
	metrics    *observability.Metrics
	running    atomic.Bool
}

// NewServer creates the API server. metrics may be nil; recording becomes
// a no-op.
func NewServer(cfg Config, auths AuthService, todos TodoService, metrics *observability.Metrics) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		auths:   auths,
		todos:   todos,
		metrics: metrics,
	}

	g, err := newGate(cfg.PublicRoutes, s.verifyIdentity)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(requestID)
	e.Use(s.requestLogger)
	e.Use(s.requestMetrics)
	e.Use(middleware.Recover())

	v1 := e.Group("/v1", g.middleware)
	v1.POST("/auth/login", s.handleLogin)
	v1.POST("/users", s.handleRegister)
	v1.GET("/users/:id", s.handleGetUser)
	v1.GET("/todos", s.handleListTodos)
	v1.POST("/todos", s.handleCreateTodo)
	v1.GET("/todos/:id", s.handleGetTodo)
	v1.PATCH("/todos/:id", s.handleUpdateTodo)
	v1.PUT("/todos/:id", s.handleUpsertTodo)
	v1.DELETE("/todos/:id", s.handleDeleteTodo)

	s.echo = e
	return s, nil
}

// verifyIdentity adapts the auth service for the gate.
func (s *Server) verifyIdentity(token string) (*Identity, error) {
	claims, err := s.auths.VerifyToken(token)
	if err != nil {
		return nil, err //nolint:wrapcheck // Token errors already carry auth codes
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// Start begins serving the API. It returns an error channel that receives
// any error from the HTTP server after startup; the channel is closed on
// graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.cfg.Listen).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.echo,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	slog.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// ServeHTTP serves a single request; it exists for in-process tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
