// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package store provides database connections and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// connectBackoffBase is the first fibonacci backoff interval between pings.
const connectBackoffBase = 500 * time.Millisecond

// DefaultConnectTimeout bounds how long Connect retries an unreachable database.
const DefaultConnectTimeout = 30 * time.Second

// Connect opens a pgx connection pool and verifies it with retried pings.
// The database may still be starting (compose, CI containers), so transient
// ping failures back off and retry until timeout.
func Connect(ctx context.Context, databaseURL string, timeout time.Duration) (*pgxpool.Pool, error) {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxDuration(timeout, retry.NewFibonacci(connectBackoffBase))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	}); err != nil {
		pool.Close()
		return nil, oops.Code("DB_PING_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
