// Package db opens the Postgres pool behind the shared session store.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PoolOptions sizes the pool. A CLI process needs very few connections.
type PoolOptions struct {
	URL         string
	MaxConns    int32
	MinConns    int32
	PingTimeout time.Duration
}

func (o PoolOptions) validate() error {
	if o.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if o.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive, got %d", o.MaxConns)
	}
	if o.MinConns < 0 || o.MinConns > o.MaxConns {
		return fmt.Errorf("min connections must be between 0 and %d, got %d", o.MaxConns, o.MinConns)
	}
	return nil
}

func NewPool(ctx context.Context, opts PoolOptions, logger zerolog.Logger) (*pgxpool.Pool, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = opts.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Debug().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Int32("max_conns", cfg.MaxConns).
		Msg("session database connected")
	return pool, nil
}
