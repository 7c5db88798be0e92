// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

// Package config loads and validates the TidyList configuration from a YAML
// file, flag overrides, and environment secrets.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Environment variable names for secrets. Secrets never live in the config
// file or on the command line.
const (
	// EnvTokenSecret holds the HMAC secret used to sign session tokens.
	EnvTokenSecret = "TIDYLIST_TOKEN_SECRET"
	// EnvDatabaseURL holds the Postgres connection string.
	EnvDatabaseURL = "DATABASE_URL"
)

// Driver names accepted by database.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ServerConfig configures the public HTTP API server.
type ServerConfig struct {
	Listen          string        `koanf:"listen" json:"listen"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout" jsonschema:"oneof_type=string;integer"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout" jsonschema:"oneof_type=string;integer"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" jsonschema:"oneof_type=string;integer"`
	// PublicRoutes are "METHOD /path" glob patterns that bypass the
	// bearer-token gate.
	PublicRoutes []string `koanf:"public_routes" json:"public_routes"`
}

// ObservabilityConfig configures the metrics/health HTTP server.
type ObservabilityConfig struct {
	Listen string `koanf:"listen" json:"listen"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string `koanf:"driver" json:"driver" jsonschema:"enum=postgres,enum=sqlite"`
	// URL is the Postgres connection string. The DATABASE_URL environment
	// variable takes precedence; the file value exists for development.
	URL string `koanf:"url" json:"url"`
	// Path is the SQLite database file, used when driver is sqlite.
	Path string `koanf:"path" json:"path"`
}

// AuthConfig configures token issuance and password hashing.
// The token secret is intentionally absent: it comes only from the
// environment.
type AuthConfig struct {
	TokenTTL   time.Duration `koanf:"token_ttl" json:"token_ttl" jsonschema:"oneof_type=string;integer"`
	BcryptCost int           `koanf:"bcrypt_cost" json:"bcrypt_cost"`

	// TokenSecret is populated from EnvTokenSecret, never from the file.
	TokenSecret string `koanf:"-" json:"-"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `koanf:"format" json:"format" jsonschema:"enum=json,enum=text"`
}

// Config is the full TidyList configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server" json:"server"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability"`
	Database      DatabaseConfig      `koanf:"database" json:"database"`
	Auth          AuthConfig          `koanf:"auth" json:"auth"`
	Logging       LoggingConfig       `koanf:"logging" json:"logging"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			PublicRoutes: []string{
				"POST /v1/auth/login",
				"POST /v1/users",
			},
		},
		Observability: ObservabilityConfig{
			Listen: ":9090",
		},
		Database: DatabaseConfig{
			Driver: DriverPostgres,
			Path:   "tidylist.db",
		},
		Auth: AuthConfig{
			TokenTTL:   10 * time.Minute,
			BcryptCost: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration in precedence order: compiled-in defaults,
// then the YAML file at path (if non-empty), then flag overrides (if flags
// is non-nil), then environment secrets. The file is schema-validated
// before unmarshalling so type errors carry field paths.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		raw, err := os.ReadFile(path) //nolint:gosec // Path is operator-supplied
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").
				With("path", path).
				Wrap(err)
		}
		if err := ValidateSchema(raw); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if secret := os.Getenv(EnvTokenSecret); secret != "" {
		cfg.Auth.TokenSecret = secret
	}
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		cfg.Database.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	if err := validateListen("server.listen", c.Server.Listen); err != nil {
		return err
	}
	if err := validateListen("observability.listen", c.Observability.Listen); err != nil {
		return err
	}
	if c.Server.ShutdownTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").
			Errorf("server.shutdown_timeout must be positive")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return oops.Code("CONFIG_INVALID").
			With("driver", c.Database.Driver).
			Errorf("database.driver must be %q or %q", DriverPostgres, DriverSQLite)
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.path is required for the sqlite driver")
	}

	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return oops.Code("CONFIG_INVALID").
			With("cost", c.Auth.BcryptCost).
			Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").
			With("level", c.Logging.Level).
			Errorf("logging.level must be debug, info, warn, or error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("format", c.Logging.Format).
			Errorf("logging.format must be json or text")
	}
	return nil
}

func validateListen(field, addr string) error {
	if addr == "" || !strings.Contains(addr, ":") {
		return oops.Code("CONFIG_INVALID").
			With("value", addr).
			Errorf("%s must be a host:port listen address", field)
	}
	return nil
}
