// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the bearer token lifetime when none is configured.
const DefaultTokenTTL = 10 * time.Minute

// signingMethod is the only accepted JWT algorithm. Tokens signed with
// anything else (including "none") fail verification.
var signingMethod = jwt.SigningMethodHS256

// TokenClaims carries the verified identity extracted from a bearer token.
type TokenClaims struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// tokenClaims is the wire-level claims type used for JWT encoding.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenIssuer mints and verifies stateless HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
// A zero or negative ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_SECRET_MISSING").Errorf("token secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// WithClock overrides the issuer's time source. Used by tests to pin expiry.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// TTL returns the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a signed token with sub, email, iat, and exp claims.
func (i *TokenIssuer) Issue(userID uuid.UUID, email string) (string, error) {
	now := i.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token's signature, algorithm, and expiry.
// Malformed tokens, bad signatures, and wrong algorithms all surface as
// AUTH_TOKEN_INVALID; only a past exp yields AUTH_TOKEN_EXPIRED.
func (i *TokenIssuer) Verify(token string) (*TokenClaims, error) {
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("AUTH_TOKEN_EXPIRED").Wrap(err)
		}
		return nil, oops.Code("AUTH_TOKEN_INVALID").Wrap(err)
	}

	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_INVALID").
			With("operation", "parse subject claim").
			Wrap(err)
	}

	return &TokenClaims{
		UserID:    userID,
		Email:     parsed.Email,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}
