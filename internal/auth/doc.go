// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package auth implements the credential and token side of TidyList.
//
// It holds the User entity and its repository contract, password hashing
// behind the PasswordHasher interface, the stateless bearer-token issuer
// and verifier, and the Service that ties them together for registration
// and login. Storage adapters live in the postgres and sqlite subpackages.
package auth
