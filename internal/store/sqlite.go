// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/oops"
	// Register the cgo-free SQLite driver.
	_ "modernc.org/sqlite"
)

//go:embed sqlite_migrations/*.sql
var sqliteMigrationsFS embed.FS

const sqliteMigrationTable = "schema_migrations"

// OpenSQLite opens (or creates) a SQLite database file and applies the
// embedded schema migrations. Pragmas enable WAL journaling and foreign
// key enforcement; the busy timeout covers concurrent request handlers
// sharing the single writer.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.Code("DB_OPEN_FAILED").Errorf("sqlite path is required")
	}

	// modernc applies pragmas via repeated _pragma keys; the mattn-style
	// _journal_mode/_foreign_keys keys are silently ignored by this driver.
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close() //nolint:errcheck // open error takes precedence
		return nil, oops.Code("DB_PING_FAILED").With("path", path).Wrap(err)
	}

	if err := applySQLiteMigrations(db); err != nil {
		_ = db.Close() //nolint:errcheck // migration error takes precedence
		return nil, err
	}
	return db, nil
}

// applySQLiteMigrations executes each embedded migration file at most once,
// tracked in a schema_migrations table keyed by file name.
func applySQLiteMigrations(db *sql.DB) error {
	entries, err := fs.ReadDir(sqliteMigrationsFS, "sqlite_migrations")
	if err != nil {
		return oops.Code("MIGRATION_LIST_FAILED").With("operation", "read migrations dir").Wrap(err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + sqliteMigrationTable + ` (
			name TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "ensure migration table").Wrap(err)
	}

	for _, name := range names {
		applied, err := sqliteMigrationApplied(db, name)
		if err != nil {
			return oops.Code("MIGRATION_CHECK_FAILED").With("migration", name).Wrap(err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(sqliteMigrationsFS, "sqlite_migrations/"+name)
		if err != nil {
			return oops.Code("MIGRATION_READ_FAILED").With("migration", name).Wrap(err)
		}

		upSQL := extractUpSection(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			return oops.Code("MIGRATION_APPLY_FAILED").With("migration", name).Wrap(err)
		}
		if _, err := tx.Exec(upSQL); err != nil {
			_ = tx.Rollback() //nolint:errcheck // exec error takes precedence
			return oops.Code("MIGRATION_APPLY_FAILED").With("migration", name).Wrap(err)
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO "+sqliteMigrationTable+" (name, applied_at) VALUES (?, ?)",
			name, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback() //nolint:errcheck // exec error takes precedence
			return oops.Code("MIGRATION_RECORD_FAILED").With("migration", name).Wrap(err)
		}
		if err := tx.Commit(); err != nil {
			return oops.Code("MIGRATION_APPLY_FAILED").With("migration", name).Wrap(err)
		}
	}

	return nil
}

// extractUpSection returns the SQL in the -- +migrate Up section.
// Files without section markers are applied whole.
func extractUpSection(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

func sqliteMigrationApplied(db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRow("SELECT 1 FROM "+sqliteMigrationTable+" WHERE name = ?", name).Scan(&found)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err //nolint:wrapcheck // caller wraps with migration name
	}
	return true, nil
}
