// Package session holds the portal's client-side session: the bearer token
// and the cached user record. Persistence is delegated to a Store so the
// same Session works against a local directory, memory, or a shared
// Postgres table.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Storage keys. These mirror the two entries the web client kept in
// browser storage.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// LoginRoute is handed to invalidation handlers after the session is cleared.
const LoginRoute = "/login"

var (
	ErrNotFound  = errors.New("session key not found")
	ErrNoSession = errors.New("not logged in")
)

// User is the minimal user record cached alongside the token.
type User struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Store persists session entries. Get returns ErrNotFound for missing keys;
// Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// InvalidateFunc is called after an invalidation with the route the operator
// should be sent to.
type InvalidateFunc func(route string)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for invalidation events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithInvalidateHandler registers a handler at construction time.
func WithInvalidateHandler(fn InvalidateFunc) Option {
	return func(s *Session) { s.handlers = append(s.handlers, fn) }
}

// Session is the explicit session context injected into the API client.
type Session struct {
	store    Store
	logger   zerolog.Logger
	mu       sync.RWMutex
	handlers []InvalidateFunc
}

// New creates a Session over the given store.
func New(store Store, opts ...Option) *Session {
	s := &Session{store: store, logger: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnInvalidate registers an additional invalidation handler.
func (s *Session) OnInvalidate(fn InvalidateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Save writes the token and the serialized user. The token is removed again
// when the user cannot be written.
func (s *Session) Save(ctx context.Context, token string, user User) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.store.Set(ctx, KeyUser, string(raw)); err != nil {
		if derr := s.store.Delete(ctx, KeyToken); derr != nil {
			s.logger.Warn().Err(derr).Msg("failed to remove token after user write failed")
		}
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// Token returns the stored bearer token, or "" when there is none.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, err := s.store.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

// User returns the cached user record. ErrNoSession is returned when no
// user is stored or the stored record cannot be decoded.
func (s *Session) User(ctx context.Context) (*User, error) {
	raw, err := s.store.Get(ctx, KeyUser)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, ErrNoSession
	}
	return &u, nil
}

// Clear removes both entries.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyToken); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if err := s.store.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Invalidate clears the session and notifies every handler with LoginRoute.
// Handlers run even when clearing fails.
func (s *Session) Invalidate(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear session during invalidation")
	} else {
		s.logger.Info().Msg("session invalidated")
	}

	s.mu.RLock()
	handlers := make([]InvalidateFunc, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(LoginRoute)
	}
}
