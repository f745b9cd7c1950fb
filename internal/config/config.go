// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

// Package config loads MeetBot process configuration.
//
// Values are resolved in increasing precedence: built-in defaults, an
// optional YAML file, environment variables, then command-line flags that
// were explicitly set.
package config

import (
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/internal/logging"
)

// InsecureDefaultSecret is the development signing secret. It is rejected
// when Environment is EnvProduction.
const InsecureDefaultSecret = "your-secret-key-change-in-production"

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the complete process configuration.
type Config struct {
	Environment string         `koanf:"environment" env:"MEETBOT_ENV"`
	MetricsAddr string         `koanf:"metrics_addr" env:"MEETBOT_METRICS_ADDR"`
	HTTP        HTTPConfig     `koanf:"http"`
	Database    DatabaseConfig `koanf:"database"`
	Auth        AuthConfig     `koanf:"auth"`
	Log         LogConfig      `koanf:"log"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr           string        `koanf:"addr" env:"MEETBOT_HTTP_ADDR"`
	AllowedOrigins []string      `koanf:"allowed_origins" env:"MEETBOT_ALLOWED_ORIGINS" envSeparator:","`
	RequestTimeout time.Duration `koanf:"request_timeout" env:"MEETBOT_REQUEST_TIMEOUT"`
	CookieSecure   bool          `koanf:"cookie_secure" env:"MEETBOT_COOKIE_SECURE"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL         string `koanf:"url" env:"DATABASE_URL"`
	AutoMigrate bool   `koanf:"auto_migrate" env:"MEETBOT_AUTO_MIGRATE"`
}

// AuthConfig configures password hashing and token issuance.
type AuthConfig struct {
	JWTSecret           string        `koanf:"jwt_secret" env:"JWT_SECRET_KEY"`
	BcryptCost          int           `koanf:"bcrypt_cost" env:"MEETBOT_BCRYPT_COST"`
	AccessTokenTTL      time.Duration `koanf:"access_token_ttl" env:"MEETBOT_ACCESS_TOKEN_TTL"`
	SessionTokenTTL     time.Duration `koanf:"session_token_ttl" env:"MEETBOT_SESSION_TOKEN_TTL"`
	MaxConcurrentHashes int           `koanf:"max_concurrent_hashes" env:"MEETBOT_MAX_CONCURRENT_HASHES"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Format string `koanf:"format" env:"MEETBOT_LOG_FORMAT"`
	Level  string `koanf:"level" env:"MEETBOT_LOG_LEVEL"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Environment: EnvDevelopment,
		MetricsAddr: "127.0.0.1:9100",
		HTTP: HTTPConfig{
			Addr:           "0.0.0.0:8000",
			AllowedOrigins: []string{"http://localhost:3000"},
			RequestTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:       InsecureDefaultSecret,
			BcryptCost:      auth.DefaultBcryptCost,
			AccessTokenTTL:  auth.AccessTokenTTL,
			SessionTokenTTL: auth.SessionTokenTTL,
		},
		Log: LogConfig{
			Format: logging.FormatJSON,
			Level:  "info",
		},
	}
}

// IsProduction reports whether the process runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks that the configuration can start a server. DATABASE_URL is
// not checked here; commands that need storage check it themselves.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return invalid("environment", "environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http address is required")
	}
	if c.HTTP.RequestTimeout <= 0 {
		return invalid("http.request_timeout", "request timeout must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return invalid("auth.jwt_secret", "JWT_SECRET_KEY must not be empty")
	}
	if c.IsProduction() && c.Auth.JWTSecret == InsecureDefaultSecret {
		return invalid("auth.jwt_secret", "JWT_SECRET_KEY must be set to a non-default value in production")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return invalid("auth.bcrypt_cost", "bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.SessionTokenTTL <= 0 {
		return invalid("auth.token_ttl", "token lifetimes must be positive")
	}
	if c.Auth.MaxConcurrentHashes < 0 {
		return invalid("auth.max_concurrent_hashes", "max concurrent hashes must not be negative")
	}
	if err := logging.ValidateFormat(c.Log.Format); err != nil {
		return invalid("log.format", "%s", err.Error())
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown log level %q", c.Log.Level)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
}
