// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags, mapped to their configuration keys.
var flagKeys = map[string]string{
	"env":             "environment",
	"metrics-addr":    "metrics_addr",
	"http-addr":       "http.addr",
	"allowed-origins": "http.allowed_origins",
	"request-timeout": "http.request_timeout",
	"cookie-secure":   "http.cookie_secure",
	"auto-migrate":    "database.auto_migrate",
	"bcrypt-cost":     "auth.bcrypt_cost",
	"log-format":      "log.format",
	"log-level":       "log.level",
}

// LoadOptions selects the sources consulted by Load.
type LoadOptions struct {
	// File is an optional YAML file path.
	File string
	// Flags, when set, overrides with every flag the user changed.
	Flags *pflag.FlagSet
	// Environ replaces the process environment. Nil reads os.Environ.
	Environ map[string]string
}

// RegisterFlags adds the configuration flags to fs, showing defaults in help.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("env", d.Environment, "deployment environment (development or production)")
	fs.String("metrics-addr", d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.StringSlice("allowed-origins", d.HTTP.AllowedOrigins, "CORS origins allowed to send credentials")
	fs.Duration("request-timeout", d.HTTP.RequestTimeout, "per-request deadline")
	fs.Bool("cookie-secure", d.HTTP.CookieSecure, "mark auth cookies Secure")
	fs.Bool("auto-migrate", d.Database.AutoMigrate, "apply pending migrations on startup")
	fs.Int("bcrypt-cost", d.Auth.BcryptCost, "bcrypt work factor")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "minimum log level (debug, info, warn, error)")
}

// Load resolves the configuration from defaults, file, environment and flags.
// The result is not validated.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
		if err := unmarshal(k, &cfg); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: opts.Environ}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if opts.Flags != nil {
		k := koanf.New(".")
		provider := posflag.ProviderWithFlag(opts.Flags, ".", nil, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
		if err := unmarshal(k, &cfg); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	return &cfg, nil
}

// unmarshal overlays the keys present in k onto cfg. Lists replace rather
// than merge with the value underneath.
func unmarshal(k *koanf.Koanf, cfg *Config) error {
	if k.Exists("http.allowed_origins") {
		cfg.HTTP.AllowedOrigins = nil
	}
	//nolint:wrapcheck // callers attach the source
	return k.Unmarshal("", cfg)
}
