// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Service provides registration, login, and identity lookup.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenIssuer
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenIssuer) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$2a$10$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a new user from a plaintext credential.
// A duplicate email surfaces as an error wrapping ErrConflict.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := NewUser(email, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			// Keep the sentinel reachable for the conflict → 409 mapping.
			return nil, oops.Code("AUTH_EMAIL_TAKEN").
				With("email", email).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "persist user").
			Wrap(err)
	}

	return user, nil
}

// Login verifies a credential and mints a bearer token.
// A wrong password and an unknown email produce the same error, and both
// paths run a full bcrypt verification to keep response time uniform.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify the password, even against the dummy hash.
	valid := s.hasher.Verify(password, targetHash)

	// If the user doesn't exist OR the password is invalid, return the same error.
	if !userExists || !valid {
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("Email or password is invalid")
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	return token, nil
}

// VerifyToken validates a bearer token and returns its claims.
func (s *Service) VerifyToken(token string) (*TokenClaims, error) {
	return s.tokens.Verify(token)
}

// GetUser retrieves a user on behalf of the authenticated caller.
// Any id other than the caller's own is reported as not found; the
// response never confirms whether such a user exists.
func (s *Service) GetUser(ctx context.Context, callerID, id uuid.UUID) (*User, error) {
	if id != callerID {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(ErrNotFound)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("USER_NOT_FOUND").
				With("id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_GET_USER_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}
