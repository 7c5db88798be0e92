// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidylist/tidylist/internal/config"
	"github.com/tidylist/tidylist/pkg/errutil"
)

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"

	_, _, _, err := openStorage(context.Background(), cfg)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "driver", "oracle")
}

func TestOpenStorage_PostgresRequiresURL(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverPostgres
	cfg.Database.URL = ""

	_, _, _, err := openStorage(context.Background(), cfg)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), config.EnvDatabaseURL)
}

func TestOpenStorage_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "storage.db")

	userRepo, todoRepo, closeFn, err := openStorage(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(closeFn)

	assert.NotNil(t, userRepo)
	assert.NotNil(t, todoRepo)
}

func TestOpenStorage_SQLiteCreatesParentDirs(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "missing", "nested", "storage.db")

	_, _, closeFn, err := openStorage(context.Background(), cfg)
	require.NoError(t, err, "missing parent directories should be created")
	t.Cleanup(closeFn)

	_, err = os.Stat(filepath.Dir(cfg.Database.Path))
	require.NoError(t, err)
}
