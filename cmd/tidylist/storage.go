// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package main

import (
	"context"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/tidylist/tidylist/internal/auth"
	authpg "github.com/tidylist/tidylist/internal/auth/postgres"
	authsqlite "github.com/tidylist/tidylist/internal/auth/sqlite"
	"github.com/tidylist/tidylist/internal/config"
	"github.com/tidylist/tidylist/internal/store"
	"github.com/tidylist/tidylist/internal/todo"
	todopg "github.com/tidylist/tidylist/internal/todo/postgres"
	todosqlite "github.com/tidylist/tidylist/internal/todo/sqlite"
	"github.com/tidylist/tidylist/internal/xdg"
)

// openStorage opens the configured backend and returns its repositories
// plus a close function. For sqlite, embedded migrations run at open; for
// postgres the migrate command owns schema changes.
func openStorage(ctx context.Context, cfg *config.Config) (auth.UserRepository, todo.Repository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if cfg.Database.URL == "" {
			return nil, nil, nil, oops.Code("CONFIG_INVALID").
				Errorf("%s environment variable is required for the postgres driver", config.EnvDatabaseURL)
		}
		pool, err := store.Connect(ctx, cfg.Database.URL, store.DefaultConnectTimeout)
		if err != nil {
			return nil, nil, nil, oops.Code("DB_CONNECT_FAILED").
				With("operation", "connect to database").
				Wrap(err)
		}
		return authpg.NewUserRepository(pool), todopg.NewTodoRepository(pool), pool.Close, nil

	case config.DriverSQLite:
		if err := xdg.EnsureDir(filepath.Dir(cfg.Database.Path)); err != nil {
			return nil, nil, nil, oops.Code("DB_CONNECT_FAILED").
				With("operation", "create sqlite directory").
				With("path", cfg.Database.Path).
				Wrap(err)
		}
		db, err := store.OpenSQLite(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, oops.Code("DB_CONNECT_FAILED").
				With("operation", "open sqlite database").
				With("path", cfg.Database.Path).
				Wrap(err)
		}
		closeFn := func() { _ = db.Close() }
		return authsqlite.NewUserRepository(db), todosqlite.NewTodoRepository(db), closeFn, nil

	default:
		return nil, nil, nil, oops.Code("CONFIG_INVALID").
			With("driver", cfg.Database.Driver).
			Errorf("unknown database driver")
	}
}
