// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tidylist/tidylist/internal/auth"
	"github.com/tidylist/tidylist/internal/todo"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// memUserRepo is an in-memory auth.UserRepository with the same constraint
// behavior as the real backends.
type memUserRepo struct {
	users map[uuid.UUID]*auth.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*auth.User)}
}

func (r *memUserRepo) Create(_ context.Context, u *auth.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return oops.Code("USER_EMAIL_TAKEN").Wrap(auth.ErrConflict)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

// memTodoRepo is an in-memory todo.Repository with owner scoping and
// uniqueness constraints.
type memTodoRepo struct {
	todos map[uuid.UUID]*todo.Todo
}

func newMemTodoRepo() *memTodoRepo {
	return &memTodoRepo{todos: make(map[uuid.UUID]*todo.Todo)}
}

func (r *memTodoRepo) Create(_ context.Context, t *todo.Todo) error {
	if _, ok := r.todos[t.ID]; ok {
		return oops.Code("TODO_DUPLICATE").Wrap(todo.ErrConflict)
	}
	for _, other := range r.todos {
		if other.OwnerID == t.OwnerID && other.Title == t.Title {
			return oops.Code("TODO_DUPLICATE").Wrap(todo.ErrConflict)
		}
	}
	cp := *t
	r.todos[t.ID] = &cp
	return nil
}

func (r *memTodoRepo) Get(_ context.Context, ownerID, id uuid.UUID) (*todo.Todo, error) {
	t, ok := r.todos[id]
	if !ok || t.OwnerID != ownerID {
		return nil, oops.Code("TODO_NOT_FOUND").Wrap(todo.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (r *memTodoRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*todo.Todo, error) {
	var out []*todo.Todo
	for _, t := range r.todos {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memTodoRepo) Update(_ context.Context, t *todo.Todo) error {
	existing, ok := r.todos[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return oops.Code("TODO_NOT_FOUND").Wrap(todo.ErrNotFound)
	}
	for _, other := range r.todos {
		if other.ID != t.ID && other.OwnerID == t.OwnerID && other.Title == t.Title {
			return oops.Code("TODO_DUPLICATE").Wrap(todo.ErrConflict)
		}
	}
	cp := *t
	r.todos[t.ID] = &cp
	return nil
}

func (r *memTodoRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	t, ok := r.todos[id]
	if !ok || t.OwnerID != ownerID {
		return oops.Code("TODO_NOT_FOUND").Wrap(todo.ErrNotFound)
	}
	delete(r.todos, id)
	return nil
}

// fakeHasher avoids bcrypt cost in API tests. Hashing itself is covered in
// the auth package.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "h:" + password, nil }
func (fakeHasher) Verify(password, hash string) bool    { return hash == "h:"+password }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	issuer, err := auth.NewTokenIssuer(testSecret, 10*time.Minute)
	require.NoError(t, err)

	authSvc := auth.NewService(newMemUserRepo(), fakeHasher{}, issuer)
	todoSvc := todo.NewService(newMemTodoRepo())

	s, err := NewServer(Config{
		Listen: "127.0.0.1:0",
		PublicRoutes: []string{
			"POST /v1/auth/login",
			"POST /v1/users",
		},
	}, authSvc, todoSvc, nil)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func register(t *testing.T, s *Server, email, password string) userResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/v1/users", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[userResponse](t, rec)
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[loginResponse](t, rec).AccessToken
}

func TestAPI_Register(t *testing.T) {
	s := newTestServer(t)

	t.Run("creates user without exposing the hash", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/users", "", map[string]string{
			"email": "a@example.com", "password": "Passw0rd!",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		user := decode[userResponse](t, rec)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "a@example.com", user.Email)
		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "hash")
	})

	t.Run("duplicate email is conflict", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/users", "", map[string]string{
			"email": "a@example.com", "password": "Passw0rd!",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "value already exists", decode[errorBody](t, rec).Message)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/users", "", map[string]string{
			"email": "not-an-email", "password": "Passw0rd!",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/users", "", map[string]string{
			"email": "b@example.com", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_Login(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "a@example.com", "Passw0rd!")

	t.Run("returns a token for valid credentials", func(t *testing.T) {
		token := login(t, s, "a@example.com", "Passw0rd!")
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPw := do(t, s, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"email": "a@example.com", "password": "WrongPass",
		})
		unknown := do(t, s, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"email": "nobody@example.com", "password": "Passw0rd!",
		})

		require.Equal(t, http.StatusUnauthorized, wrongPw.Code)
		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, "Email or password is invalid", decode[errorBody](t, wrongPw).Message)
		assert.JSONEq(t, wrongPw.Body.String(), unknown.Body.String())
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "a@example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_Gate(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing token is unauthorized", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/todos", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid or expired token", decode[errorBody](t, rec).Message)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/todos", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		past, err := auth.NewTokenIssuer(testSecret, time.Minute)
		require.NoError(t, err)
		past.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
		token, err := past.Issue(uuid.New(), "a@example.com")
		require.NoError(t, err)

		rec := do(t, s, http.MethodGet, "/v1/todos", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid or expired token", decode[errorBody](t, rec).Message)
	})

	t.Run("token signed with a different secret is unauthorized", func(t *testing.T) {
		other, err := auth.NewTokenIssuer([]byte("another-secret-another-secret-32"), time.Minute)
		require.NoError(t, err)
		token, err := other.Issue(uuid.New(), "a@example.com")
		require.NoError(t, err)

		rec := do(t, s, http.MethodGet, "/v1/todos", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAPI_GetUser(t *testing.T) {
	s := newTestServer(t)
	me := register(t, s, "a@example.com", "Passw0rd!")
	other := register(t, s, "b@example.com", "Passw0rd!")
	token := login(t, s, "a@example.com", "Passw0rd!")

	t.Run("own id returns the account", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/users/"+me.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a@example.com", decode[userResponse](t, rec).Email)
	})

	t.Run("another user's id is not found, never forbidden", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/users/"+other.ID, token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not found", decode[errorBody](t, rec).Message)
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/users/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAPI_TodoScenario(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "a@example.com", "Passw0rd!")
	token := login(t, s, "a@example.com", "Passw0rd!")

	// Create.
	rec := do(t, s, http.MethodPost, "/v1/todos", token, map[string]any{
		"title": "X", "description": "d",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[todoResponse](t, rec)
	_, err := uuid.Parse(created.ID)
	require.NoError(t, err, "id must be a generated UUID")
	assert.False(t, created.Completed)
	require.NotNil(t, created.Description)
	assert.Equal(t, "d", *created.Description)

	// Patch only the completed flag.
	rec = do(t, s, http.MethodPatch, "/v1/todos/"+created.ID, token, map[string]any{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[todoResponse](t, rec)
	assert.True(t, patched.Completed)
	assert.Equal(t, "X", patched.Title)
	require.NotNil(t, patched.Description)
	assert.Equal(t, "d", *patched.Description)

	// Delete, then the id is gone.
	rec = do(t, s, http.MethodDelete, "/v1/todos/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/todos/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_TodoValidationAndConflicts(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "a@example.com", "Passw0rd!")
	register(t, s, "b@example.com", "Passw0rd!")
	tokenA := login(t, s, "a@example.com", "Passw0rd!")
	tokenB := login(t, s, "b@example.com", "Passw0rd!")

	t.Run("empty title is rejected", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/todos", tokenA, map[string]any{"title": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate title per owner conflicts, across owners succeeds", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/todos", tokenA, map[string]any{"title": "same"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(t, s, http.MethodPost, "/v1/todos", tokenA, map[string]any{"title": "same"})
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "value already exists", decode[errorBody](t, rec).Message)

		rec = do(t, s, http.MethodPost, "/v1/todos", tokenB, map[string]any{"title": "same"})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestAPI_OwnershipScoping(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "a@example.com", "Passw0rd!")
	register(t, s, "b@example.com", "Passw0rd!")
	tokenA := login(t, s, "a@example.com", "Passw0rd!")
	tokenB := login(t, s, "b@example.com", "Passw0rd!")

	rec := do(t, s, http.MethodPost, "/v1/todos", tokenA, map[string]any{"title": "mine"})
	require.Equal(t, http.StatusCreated, rec.Code)
	mine := decode[todoResponse](t, rec)

	t.Run("cross-owner read is not found", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/todos/"+mine.ID, tokenB, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not found", decode[errorBody](t, rec).Message)
	})

	t.Run("cross-owner patch is not found", func(t *testing.T) {
		rec := do(t, s, http.MethodPatch, "/v1/todos/"+mine.ID, tokenB, map[string]any{"completed": true})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("cross-owner delete is not found", func(t *testing.T) {
		rec := do(t, s, http.MethodDelete, "/v1/todos/"+mine.ID, tokenB, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list is owner-scoped", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/v1/todos", tokenB, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]todoResponse](t, rec))

		rec = do(t, s, http.MethodGet, "/v1/todos", tokenA, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		todos := decode[[]todoResponse](t, rec)
		require.Len(t, todos, 1)
		assert.Equal(t, "mine", todos[0].Title)
	})
}

func TestAPI_Upsert(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "a@example.com", "Passw0rd!")
	register(t, s, "b@example.com", "Passw0rd!")
	tokenA := login(t, s, "a@example.com", "Passw0rd!")
	tokenB := login(t, s, "b@example.com", "Passw0rd!")

	id := uuid.New().String()

	t.Run("creates under the caller when absent", func(t *testing.T) {
		rec := do(t, s, http.MethodPut, "/v1/todos/"+id, tokenA, map[string]any{
			"title": "provisioned", "completed": true,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[todoResponse](t, rec)
		assert.Equal(t, id, got.ID)
		assert.True(t, got.Completed)
	})

	t.Run("replaces the full state when present", func(t *testing.T) {
		rec := do(t, s, http.MethodPut, "/v1/todos/"+id, tokenA, map[string]any{
			"title": "replaced",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[todoResponse](t, rec)
		assert.Equal(t, "replaced", got.Title)
		assert.False(t, got.Completed)
		assert.Nil(t, got.Description)
	})

	t.Run("id held by another owner conflicts", func(t *testing.T) {
		rec := do(t, s, http.MethodPut, "/v1/todos/"+id, tokenB, map[string]any{
			"title": "hijack",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAPI_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "a@example.com", "Passw0rd!")
	token := login(t, s, "a@example.com", "Passw0rd!")

	rec := do(t, s, http.MethodGet, "/v1/nope", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errorBody](t, rec).Message)
}

func TestServer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestServer(t)
	errCh, err := s.Start()
	require.NoError(t, err)
	require.NotEmpty(t, s.Addr())

	resp, err := http.Post("http://"+s.Addr()+"/v1/auth/login", "application/json",
		bytes.NewReader([]byte(`{"email":"x@example.com","password":"irrelevant"}`)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	http.DefaultClient.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	_, open := <-errCh
	assert.False(t, open, "error channel should close on graceful stop")
}
