// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Password validation constraints. The upper bound is the bcrypt input limit.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// MaxEmailLength is the maximum accepted email length (RFC 5321 path limit).
const MaxEmailLength = 254

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser creates a User with a generated ID for an already-hashed credential.
// The email must have been validated by the caller.
func NewUser(email, passwordHash string) *User {
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// ValidateEmail validates an email address for registration.
// Lookup and uniqueness are case-sensitive, so no normalization happens here.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("VALIDATION").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("VALIDATION").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("VALIDATION").Errorf("email is not a valid address")
	}
	// mail.ParseAddress accepts local domains like "user@host"; require a dot
	// so registration matches what a deliverable address looks like.
	domain := email[strings.LastIndex(email, "@")+1:]
	if !strings.Contains(domain, ".") {
		return oops.Code("VALIDATION").Errorf("email domain is not a valid address")
	}
	return nil
}

// ValidatePassword validates a plaintext password for registration.
// The minimum counts characters, not bytes, so multibyte passwords are not
// undercounted; the maximum stays in bytes because bcrypt truncates at 72.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return oops.Code("VALIDATION").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return oops.Code("VALIDATION").
			With("max", MaxPasswordBytes).
			Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrConflict when
	// the email uniqueness constraint rejects the insert.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	// Returns an error wrapping ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by exact, case-sensitive email match.
	// Returns an error wrapping ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
