// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tidylist/tidylist/internal/auth"
	"github.com/tidylist/tidylist/internal/config"
	"github.com/tidylist/tidylist/internal/httpapi"
	"github.com/tidylist/tidylist/internal/logging"
	"github.com/tidylist/tidylist/internal/observability"
	"github.com/tidylist/tidylist/internal/todo"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API and observability servers",
		Long: `Run the TidyList API server plus the metrics/health server.
Configuration comes from the --config YAML file with flag overrides;
secrets come from the environment.`,
		RunE: runServe,
	}

	// Flag names mirror config keys so they merge through the same loader.
	flags := cmd.Flags()
	flags.String("server.listen", ":8080", "API listen address")
	flags.String("observability.listen", ":9090", "metrics/health listen address")
	flags.String("database.driver", config.DriverPostgres, "storage driver (postgres or sqlite)")
	flags.String("database.path", "tidylist.db", "sqlite database file")
	flags.Duration("auth.token_ttl", 10*time.Minute, "bearer token lifetime")
	flags.String("logging.level", "info", "log level (debug, info, warn, error)")
	flags.String("logging.format", "json", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("tidylist", version, cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))

	if cfg.Auth.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("%s environment variable is required", config.EnvTokenSecret)
	}
	issuer, err := auth.NewTokenIssuer([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	userRepo, todoRepo, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	authSvc := auth.NewService(userRepo, auth.NewBcryptHasherWithCost(cfg.Auth.BcryptCost), issuer)
	todoSvc := todo.NewService(todoRepo)

	// Readiness flips once the API server is accepting connections.
	ready := make(chan struct{})
	isReady := func() bool {
		select {
		case <-ready:
			return true
		default:
			return false
		}
	}

	obsServer := observability.NewServer(cfg.Observability.Listen, isReady)
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.Code("SERVER_START_FAILED").
			With("operation", "start observability server").
			Wrap(err)
	}
	defer stopServer(obsServer.Stop, cfg.Server.ShutdownTimeout, "observability")

	apiServer, err := httpapi.NewServer(httpapi.Config{
		Listen:       cfg.Server.Listen,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		PublicRoutes: cfg.Server.PublicRoutes,
	}, authSvc, todoSvc, obsServer.Metrics())
	if err != nil {
		return err
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return oops.Code("SERVER_START_FAILED").
			With("operation", "start api server").
			Wrap(err)
	}
	defer stopServer(apiServer.Stop, cfg.Server.ShutdownTimeout, "api")
	close(ready)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("TidyList started")
	slog.Info("tidylist ready",
		"api_addr", apiServer.Addr(),
		"metrics_addr", obsServer.Addr(),
		"driver", cfg.Database.Driver,
	)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		return nil
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
		return nil
	case err := <-apiErrCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").With("server", "api").Wrap(err)
		}
		return nil
	case err := <-obsErrCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").With("server", "observability").Wrap(err)
		}
		return nil
	}
}

// stopServer runs a bounded graceful stop, logging rather than failing the
// command on shutdown errors.
func stopServer(stop func(context.Context) error, timeout time.Duration, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}
