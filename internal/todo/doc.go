// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package todo provides the owner-scoped todo domain: the Todo entity,
// its repository contract, and the Service enforcing ownership on every
// operation.
package todo
