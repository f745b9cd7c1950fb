// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meetbot/meetbot/internal/api"
	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/internal/auth/postgres"
	"github.com/meetbot/meetbot/internal/config"
	"github.com/meetbot/meetbot/internal/logging"
	"github.com/meetbot/meetbot/internal/observability"
	"github.com/meetbot/meetbot/internal/store"
	"github.com/meetbot/meetbot/pkg/errutil"
)

const (
	serviceName     = "meetbot"
	shutdownTimeout = 10 * time.Second
	readinessProbe  = 2 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the MeetBot API server and, unless --metrics-addr is empty,
the metrics and health probe server.

Secrets and the database location come from the environment
(JWT_SECRET_KEY, DATABASE_URL); other settings may also come from
the --config file or flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := resolveConfigFile()
			if err != nil {
				return err
			}
			cfg, err := config.Load(config.LoadOptions{File: file, Flags: cmd.Flags()})
			if err != nil {
				return err //nolint:wrapcheck // already coded by config
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServeWithDeps runs the server until a shutdown signal, context
// cancellation, or server failure. If deps is nil, default implementations
// are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.DatabaseFactory == nil {
		deps.DatabaseFactory = func(ctx context.Context, url string) (Database, error) {
			return store.Connect(ctx, url)
		}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(url string) (AutoMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = func(addr string, handler http.Handler) APIServer {
			return api.NewServer(addr, handler)
		}
	}
	if deps.SignalSource == nil {
		deps.SignalSource = notifyShutdownSignals
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		return oops.Wrapf(err, "invalid configuration")
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return oops.Wrapf(err, "invalid configuration")
	}
	logger := logging.SetDefault(serviceName, version, logging.Options{
		Format: cfg.Log.Format,
		Level:  level,
		Writer: deps.LogWriter,
	})

	logger.Info("starting meetbot",
		"environment", cfg.Environment,
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.MetricsAddr,
	)
	if cfg.IsProduction() && !cfg.HTTP.CookieSecure {
		logger.Warn("auth cookies are not marked Secure in production")
	}

	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := runAutoMigration(deps.MigratorFactory, cfg.Database.URL); err != nil {
			return err
		}
	}

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret,
		auth.WithTokenTTLs(cfg.Auth.AccessTokenTTL, cfg.Auth.SessionTokenTTL))
	if err != nil {
		return oops.Wrapf(err, "create token issuer")
	}
	svc, err := auth.NewService(
		postgres.NewUserRepository(db),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		issuer,
		auth.WithLogger(logger.With("component", "auth")),
		auth.WithMaxConcurrentHashes(cfg.Auth.MaxConcurrentHashes),
	)
	if err != nil {
		return oops.Wrapf(err, "create auth service")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	failures := make(chan error, 2)

	var apiServer APIServer
	var obsServer ObservabilityServer
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, func() bool {
			if apiServer == nil || !apiServer.Listening() {
				return false
			}
			pingCtx, pingCancel := context.WithTimeout(context.Background(), readinessProbe)
			defer pingCancel()
			return db.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()
	}

	handler, err := api.NewHandler(svc, issuer, api.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		CookieSecure:   cfg.HTTP.CookieSecure,
		Logger:         logger.With("component", "api"),
		Metrics:        metrics,
	})
	if err != nil {
		return oops.Wrapf(err, "create api handler")
	}

	apiServer = deps.APIServerFactory(cfg.HTTP.Addr, handler.Routes())
	apiErrCh, err := apiServer.Start()
	if err != nil {
		return oops.Code("SERVER_START_FAILED").With("server", "api").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, failures, apiErrCh, "api")

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			stopServer(logger, "api", apiServer)
			return oops.Code("SERVER_START_FAILED").With("server", "observability").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, failures, obsErrCh, "observability")
	}

	sigCh, stopSignals := deps.SignalSource()
	defer stopSignals()

	cmd.Println("MeetBot API listening on " + apiServer.Addr())
	logger.Info("meetbot ready", "http_addr", apiServer.Addr())

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-failures:
		runErr = oops.Code("SERVER_FAILED").Wrap(err)
	case <-ctx.Done():
		select {
		case err := <-failures:
			runErr = oops.Code("SERVER_FAILED").Wrap(err)
		default:
			logger.Info("context cancelled, shutting down")
		}
	}

	logger.Info("shutting down...")
	stopServer(logger, "api", apiServer)
	if obsServer != nil {
		stopServer(logger, "observability", obsServer)
	}
	logger.Info("shutdown complete")
	return runErr
}

type stoppable interface {
	Stop(ctx context.Context) error
}

func stopServer(logger *slog.Logger, name string, s stoppable) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

// runAutoMigration applies pending migrations before the server starts.
func runAutoMigration(factory func(string) (AutoMigrator, error), url string) error {
	migrator, err := factory(url)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			errutil.LogError(slog.Default(), "failed to close migrator", closeErr)
		}
	}()

	slog.Info("applying database migrations")
	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "auto-migrate").Wrap(err)
	}
	slog.Info("database migrations applied")
	return nil
}

// monitorServerErrors forwards the first error a server reports and cancels
// the run. It exits when the channel closes or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, failures chan<- error, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok || err == nil {
			return
		}
		slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
		select {
		case failures <- oops.With("server", serverName).Wrap(err):
		default:
		}
		cancel()
	case <-ctx.Done():
	}
}
