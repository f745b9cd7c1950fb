// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

// Package store provides PostgreSQL connectivity and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection retry policy.
const (
	DefaultConnectAttempts  = 5
	DefaultConnectBaseDelay = 500 * time.Millisecond
	maxConnectDelay         = 5 * time.Second
)

type connectOptions struct {
	attempts  uint64
	baseDelay time.Duration
	maxConns  int32
}

// ConnectOption configures Connect.
type ConnectOption func(*connectOptions)

// WithConnectRetry sets how many pings are attempted and the initial backoff
// between them. Delays double per attempt up to five seconds.
func WithConnectRetry(attempts uint64, baseDelay time.Duration) ConnectOption {
	return func(o *connectOptions) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if baseDelay > 0 {
			o.baseDelay = baseDelay
		}
	}
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) ConnectOption {
	return func(o *connectOptions) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// Connect opens a pgx pool and waits until the database answers a ping.
func Connect(ctx context.Context, databaseURL string, opts ...ConnectOption) (*pgxpool.Pool, error) {
	o := connectOptions{attempts: DefaultConnectAttempts, baseDelay: DefaultConnectBaseDelay}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(o.attempts-1, retry.WithCappedDuration(maxConnectDelay, retry.NewExponential(o.baseDelay)))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.WarnContext(ctx, "database not reachable",
				"attempt", attempt,
				"max_attempts", o.attempts,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	slog.InfoContext(ctx, "connected to database", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return pool, nil
}
