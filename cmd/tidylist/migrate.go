// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tidylist/tidylist/internal/config"
	"github.com/tidylist/tidylist/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run pending schema migrations against the PostgreSQL database.`,
		RunE:  runMigrate,
	}
	cmd.Flags().Int("down", 0, "roll back this many migrations instead of migrating up")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolveConfigFile(), nil)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("%s environment variable is required", config.EnvDatabaseURL)
	}

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			cmd.PrintErrln("warning: closing migrator:", err)
		}
	}()

	down, err := cmd.Flags().GetInt("down")
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("flag", "down").Wrap(err)
	}

	if down > 0 {
		cmd.Printf("Rolling back %d migration(s)...\n", down)
		if err := migrator.Steps(-down); err != nil {
			return err
		}
	} else {
		cmd.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			return err
		}
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Migrations completed successfully (version %d, dirty=%v)\n", version, dirty)
	return nil
}
