// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package httpapi

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
)

// identityKey is the echo context key holding the authenticated Identity.
const identityKey = "tidylist.identity"

// Identity is the authenticated caller resolved by the request gate.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// IdentityFrom returns the authenticated identity stored by the gate.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// compiledRoute holds a public-route pattern and its compiled glob.
type compiledRoute struct {
	pattern string
	glob    glob.Glob
}

// gate short-circuits non-public requests that lack a valid bearer token.
// Public routes are "METHOD /path" glob patterns matched against the
// request, with '/' as the glob separator.
type gate struct {
	public []compiledRoute
	verify func(token string) (*Identity, error)
}

func newGate(publicPatterns []string, verify func(token string) (*Identity, error)) (*gate, error) {
	compiled := make([]compiledRoute, 0, len(publicPatterns))
	for _, p := range publicPatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, oops.Code("INVALID_ROUTE_PATTERN").
				With("pattern", p).
				Wrap(err)
		}
		compiled = append(compiled, compiledRoute{pattern: p, glob: g})
	}
	return &gate{public: compiled, verify: verify}, nil
}

// isPublic reports whether the request matches a public-route pattern.
func (g *gate) isPublic(method, path string) bool {
	requested := method + " " + path
	for _, route := range g.public {
		if route.glob.Match(requested) {
			return true
		}
	}
	return false
}

// middleware is the echo middleware enforcing the gate. It runs before any
// handler; on failure the request never reaches one.
func (g *gate) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if g.isPublic(req.Method, req.URL.Path) {
			return next(c)
		}

		token, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
		if !ok {
			return oops.Code("AUTH_TOKEN_INVALID").
				Errorf("missing bearer token")
		}

		identity, err := g.verify(token)
		if err != nil {
			return err //nolint:wrapcheck // Verifier errors already carry auth codes
		}

		c.Set(identityKey, *identity)
		return next(c)
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
