package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSession_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	user := User{UserID: 7, Name: "Dr. Perera", Email: "perera@example.com", Role: "DOCTOR"}
	if err := s.Save(ctx, "tok-123", user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tok, err := s.Token(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "tok-123" {
		t.Errorf("expected token tok-123, got %q", tok)
	}

	got, err := s.User(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != user {
		t.Errorf("expected %+v, got %+v", user, *got)
	}
}

// userWriteFails rejects writes of the user key.
type userWriteFails struct {
	*MemoryStore
}

func (s userWriteFails) Set(ctx context.Context, key, value string) error {
	if key == KeyUser {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func TestSession_SaveRollsBackTokenOnUserFailure(t *testing.T) {
	ctx := context.Background()
	store := userWriteFails{NewMemoryStore()}
	s := New(store)

	if err := s.Save(ctx, "tok-123", User{UserID: 7, Role: "DOCTOR"}); err == nil {
		t.Fatal("expected error when the user cannot be stored")
	}
	if store.Len() != 0 {
		t.Errorf("expected no keys left behind, got %d", store.Len())
	}
	tok, err := s.Token(ctx)
	if err != nil || tok != "" {
		t.Errorf("expected no token, got %q, %v", tok, err)
	}
}

func TestSession_SaveRequiresToken(t *testing.T) {
	s := New(NewMemoryStore())
	if err := s.Save(context.Background(), "", User{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestSession_EmptyStore(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	tok, err := s.Token(ctx)
	if err != nil || tok != "" {
		t.Errorf("expected empty token without error, got %q, %v", tok, err)
	}
	if _, err := s.User(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSession_CorruptUserIsNoSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Set(ctx, KeyUser, "{not json")
	s := New(store)

	if _, err := s.User(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSession_InvalidateClearsAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var routes []string
	s := New(store, WithInvalidateHandler(func(route string) { routes = append(routes, route) }))
	s.OnInvalidate(func(route string) { routes = append(routes, "second:"+route) })

	if err := s.Save(ctx, "tok", User{UserID: 1, Role: "PATIENT"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Invalidate(ctx)

	if store.Len() != 0 {
		t.Errorf("expected store to be empty, got %d entries", store.Len())
	}
	if len(routes) != 2 || routes[0] != LoginRoute || routes[1] != "second:"+LoginRoute {
		t.Errorf("unexpected handler calls: %v", routes)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := fs.Get(ctx, KeyToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := fs.Set(ctx, KeyToken, "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fs.Set(ctx, KeyToken, "def"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := fs.Get(ctx, KeyToken)
	if err != nil || v != "def" {
		t.Errorf("expected def, got %q, %v", v, err)
	}

	info, err := os.Stat(filepath.Join(dir, KeyToken))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	if err := fs.Delete(ctx, KeyToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fs.Delete(ctx, KeyToken); err != nil {
		t.Errorf("expected deleting a missing key to succeed, got %v", err)
	}
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"../etc", "a/b", "", "Token"} {
		if err := fs.Set(context.Background(), key, "x"); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("unit-test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, ok := TokenExpiry(tok)
	if !ok {
		t.Fatal("expected expiry to be found")
	}
	if !got.Equal(exp) {
		t.Errorf("expected %v, got %v", exp, got)
	}

	if _, ok := TokenExpiry("opaque-token"); ok {
		t.Error("expected opaque token to have no expiry")
	}
}
