// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package todoclient is a Go client for the TidyList REST API. It caches
// the bearer token obtained by Login and refuses to send requests once the
// token is about to expire, so callers can re-authenticate instead of
// collecting 401s. The server gate remains authoritative.
package todoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// ExpiryGrace is the forward window before token expiry in which the client
// already refuses to send requests. A request sent in the final seconds
// would likely arrive expired anyway.
const ExpiryGrace = 5 * time.Second

// ErrSessionExpired indicates the cached token is absent or too close to
// expiry. Call Login again.
var ErrSessionExpired = errors.New("session expired")

// User is an account as the API returns it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Todo is a todo as the API returns it.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTodoParams holds the fields for a new todo.
type CreateTodoParams struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// UpdateTodoParams is a partial update. Nil fields are left unchanged.
type UpdateTodoParams struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// ReplaceTodoParams holds the full desired state for a PUT.
type ReplaceTodoParams struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Completed   bool    `json:"completed"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithClock overrides the client's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client talks to a TidyList server. It is safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// New creates a Client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates a new account. It does not authenticate; call Login next.
func (c *Client) Register(ctx context.Context, email, password string) (*User, error) {
	var user User
	err := c.call(ctx, http.MethodPost, "/v1/users", "", map[string]string{
		"email": email, "password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and caches the bearer token for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.call(ctx, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if err != nil {
		return err
	}

	expiresAt, err := tokenExpiry(resp.AccessToken)
	if err != nil {
		return oops.Code("CLIENT_TOKEN_UNREADABLE").Wrap(err)
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.expiresAt = expiresAt
	c.mu.Unlock()
	return nil
}

// Logout drops the cached token.
func (c *Client) Logout() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// GetUser fetches an account by id. The server only answers for the
// authenticated caller's own id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	var user User
	if err := c.call(ctx, http.MethodGet, "/v1/users/"+id, token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTodos returns the caller's todos.
func (c *Client) ListTodos(ctx context.Context) ([]Todo, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	var todos []Todo
	if err := c.call(ctx, http.MethodGet, "/v1/todos", token, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo fetches one of the caller's todos by id.
func (c *Client) GetTodo(ctx context.Context, id string) (*Todo, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	var t Todo
	if err := c.call(ctx, http.MethodGet, "/v1/todos/"+id, token, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTodo creates a todo under the caller.
func (c *Client) CreateTodo(ctx context.Context, params CreateTodoParams) (*Todo, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	var t Todo
	if err := c.call(ctx, http.MethodPost, "/v1/todos", token, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTodo applies a partial patch to one of the caller's todos.
func (c *Client) UpdateTodo(ctx context.Context, id string, params UpdateTodoParams) (*Todo, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	var t Todo
	if err := c.call(ctx, http.MethodPatch, "/v1/todos/"+id, token, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ReplaceTodo creates or replaces the todo with the given id under the caller.
func (c *Client) ReplaceTodo(ctx context.Context, id string, params ReplaceTodoParams) (*Todo, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	var t Todo
	if err := c.call(ctx, http.MethodPut, "/v1/todos/"+id, token, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTodo removes one of the caller's todos.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	token, err := c.bearer()
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodDelete, "/v1/todos/"+id, token, nil, nil)
}

// bearer returns the cached token, or ErrSessionExpired when there is none
// or it is within ExpiryGrace of expiring.
func (c *Client) bearer() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" {
		return "", ErrSessionExpired
	}
	if !c.expiresAt.IsZero() && !c.now().Add(ExpiryGrace).Before(c.expiresAt) {
		return "", ErrSessionExpired
	}
	return c.token, nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client holds no secret; expiry here is an optimization, not a check.
func tokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err //nolint:wrapcheck // Caller adds context
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// call performs one HTTP round-trip and decodes a 2xx JSON body into out.
func (c *Client) call(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return oops.Code("CLIENT_ENCODE_FAILED").Wrap(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return oops.Code("CLIENT_REQUEST_FAILED").Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return oops.Code("CLIENT_REQUEST_FAILED").
			With("method", method).
			With("path", path).
			Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read side already consumed

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return oops.Code("CLIENT_DECODE_FAILED").
			With("status", resp.StatusCode).
			Wrap(err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: body.Message}
}
