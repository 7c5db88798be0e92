// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package auth

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the fixed work factor for password hashes. Existing hashes
// were produced at this cost, so changing it invalidates verification-time
// expectations in tests that pin stored fixtures.
const BcryptCost = 10

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a one-way hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the hash. It never
	// returns an error: malformed or truncated hashes verify as false,
	// indistinguishable from a wrong password.
	Verify(password, hash string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt at BcryptCost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the fixed cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

// NewBcryptHasherWithCost creates a BcryptHasher with a custom cost.
// Intended for operators tuning cost against hardware; verification accepts
// hashes produced at any cost.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", oops.Code("AUTH_PASSWORD_TOO_LONG").
			With("max", MaxPasswordBytes).
			Errorf("password exceeds %d bytes", MaxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify reports whether the password matches the hash.
// bcrypt's comparison is constant time over the derived key.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
