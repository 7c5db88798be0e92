// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tidylist/tidylist/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// resolveConfigFile returns the explicit --config path, or the XDG config
// file when one exists. An empty result means defaults only.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	path := filepath.Join(xdg.ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// NewRootCmd creates the root command for the TidyList CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tidylist",
		Short: "TidyList - an ownership-scoped todo service",
		Long: `TidyList is a JWT-authenticated todo REST service. Every todo belongs
to exactly one owner and is invisible to everyone else.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
