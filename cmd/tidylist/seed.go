// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tidylist/tidylist/internal/auth"
	"github.com/tidylist/tidylist/internal/config"
	"github.com/tidylist/tidylist/internal/todo"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// Demo credentials for local development. Fixed IDs keep the command
// idempotent: duplicate inserts fail on the primary key and are skipped.
const (
	seedUserEmail    = "demo@tidylist.dev"
	seedUserPassword = "demo-password"
)

var (
	seedUserID  = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	seedTodoIDs = []uuid.UUID{
		uuid.MustParse("00000000-0000-4000-8000-000000000101"),
		uuid.MustParse("00000000-0000-4000-8000-000000000102"),
		uuid.MustParse("00000000-0000-4000-8000-000000000103"),
	}
)

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with demo data",
		Long: `Creates a demo user with a few sample todos.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	conf, err := config.Load(resolveConfigFile(), nil)
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to storage...")
	userRepo, todoRepo, closeStorage, err := openStorage(ctx, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	hasher := auth.NewBcryptHasherWithCost(conf.Auth.BcryptCost)
	hash, err := hasher.Hash(seedUserPassword)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "hash demo password").Wrap(err)
	}

	user := &auth.User{
		ID:           seedUserID,
		Email:        seedUserEmail,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	switch createErr := userRepo.Create(ctx, user); {
	case createErr == nil:
		cmd.Println("Created demo user:", seedUserEmail)
	case errors.Is(createErr, auth.ErrConflict):
		cmd.Println("Demo user already exists, skipping")
	default:
		return oops.Code("SEED_FAILED").With("operation", "create demo user").Wrap(createErr)
	}

	samples := []struct {
		title       string
		description string
		completed   bool
	}{
		{"Buy groceries", "Milk, eggs, and coffee beans", false},
		{"Write project plan", "Outline milestones for the quarter", false},
		{"Renew gym membership", "", true},
	}

	created := 0
	for i, sample := range samples {
		now := time.Now().UTC()
		item := &todo.Todo{
			ID:        seedTodoIDs[i],
			OwnerID:   seedUserID,
			Title:     sample.title,
			Completed: sample.completed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if sample.description != "" {
			desc := sample.description
			item.Description = &desc
		}
		switch createErr := todoRepo.Create(ctx, item); {
		case createErr == nil:
			created++
		case errors.Is(createErr, todo.ErrConflict):
			cmd.Printf("Todo %q already exists, skipping\n", sample.title)
		default:
			return oops.Code("SEED_FAILED").With("operation", "create demo todo").
				With("title", sample.title).Wrap(createErr)
		}
	}

	slog.Info("seed complete", "user_id", seedUserID, "todos_created", created)
	cmd.Println("Seeding complete!")
	return nil
}
