package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGStore keeps session entries in the portal_session table, one row per
// (profile, key). Shared terminals use distinct profiles.
type PGStore struct {
	db      queryable
	profile string
}

// NewPGStore returns a store scoped to profile. pool is usually a *pgxpool.Pool.
func NewPGStore(db queryable, profile string) *PGStore {
	if profile == "" {
		profile = "default"
	}
	return &PGStore{db: db, profile: profile}
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS portal_session (
	profile    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (profile, key)
)`

// EnsureSchema creates the portal_session table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create portal_session: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM portal_session WHERE profile = $1 AND key = $2`,
		s.profile, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *PGStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO portal_session (profile, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		s.profile, key, value)
	return err
}

func (s *PGStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM portal_session WHERE profile = $1 AND key = $2`,
		s.profile, key)
	return err
}
