package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/akith22/DiagNote-sub000/internal/config"
	"github.com/akith22/DiagNote-sub000/internal/domain/identity"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
	"github.com/akith22/DiagNote-sub000/internal/platform/db"
	"github.com/akith22/DiagNote-sub000/internal/platform/session"
)

// app carries the wiring shared by every command. It is built lazily by the
// root command's PersistentPreRunE so `--help` works without a config.
type app struct {
	load   func() (*config.Config, error)
	stderr io.Writer

	cfg      *config.Config
	logger   zerolog.Logger
	store    session.Store
	pgStore  *session.PGStore
	sess     *session.Session
	api      *apiclient.Client
	identity *identity.Service
	closers  []func()
}

func newApp() *app {
	return &app{load: config.Load, stderr: os.Stderr}
}

func (a *app) setup(ctx context.Context) error {
	if a.api != nil {
		return nil
	}
	cfg, err := a.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = newLogger(cfg, a.stderr)

	if a.store == nil {
		store, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		a.store = store
	}

	a.sess = session.New(a.store,
		session.WithLogger(a.logger),
		session.WithInvalidateHandler(func(route string) {
			fmt.Fprintf(a.stderr, "session expired, run `diagnote login` (%s)\n", route)
		}),
	)
	a.api = apiclient.New(cfg.BaseURL(), a.sess,
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(a.logger),
		apiclient.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	a.identity = identity.NewService(a.api, a.sess)
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func (a *app) openStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.SessionStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, db.PoolOptions{
			URL:      a.cfg.DatabaseURL,
			MaxConns: a.cfg.DBMaxConns,
			MinConns: a.cfg.DBMinConns,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open session database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.pgStore = session.NewPGStore(pool, a.cfg.SessionProfile)
		return a.pgStore, nil
	default:
		store, err := session.NewFileStore(a.cfg.SessionDir)
		if err != nil {
			return nil, fmt.Errorf("open session directory: %w", err)
		}
		return store, nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// requireRole is the guard used by role-specific commands.
func (a *app) requireRole(cmd *cobra.Command, role string) (*session.User, error) {
	return a.identity.RequireRole(cmd.Context(), role)
}
