// Package preview serves fetched report content on a loopback address so a
// browser can render it. Each published item gets an unguessable handle that
// stays valid until it is released.
package preview

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var (
	ErrNotStarted = errors.New("preview server not started")
	ErrEmpty      = errors.New("preview content is empty")
)

type item struct {
	name        string
	contentType string
	data        []byte
	inline      bool
}

// Server holds published items in memory.
type Server struct {
	addr   string
	logger zerolog.Logger
	echo   *echo.Echo

	mu    sync.RWMutex
	items map[string]item
	ln    net.Listener
	base  string
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server that will listen on addr (host:port, port 0 picks a
// free port).
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		logger: zerolog.Nop(),
		items:  make(map[string]item),
	}
	for _, o := range opts {
		o(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(requestID())
	e.Use(requestLogger(s.logger))
	e.Use(recovery(s.logger))
	e.Use(noStore())
	e.GET("/reports/:id", s.serve)
	s.echo = e
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.base = "http://" + ln.Addr().String()
	s.mu.Unlock()

	s.echo.Listener = ln
	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("preview server stopped")
		}
	}()
	s.logger.Debug().Str("addr", s.base).Msg("preview server started")
	return nil
}

// Shutdown stops the server and drops every published item.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.items = make(map[string]item)
	started := s.ln != nil
	s.ln = nil
	s.mu.Unlock()
	if !started {
		return nil
	}
	return s.echo.Shutdown(ctx)
}

// BaseURL returns the address content is served from.
func (s *Server) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// Publish stores data and returns its handle and URL. Inline items are
// served for display; the rest as attachments.
func (s *Server) Publish(name, contentType string, data []byte, inline bool) (string, string, error) {
	if len(data) == 0 {
		return "", "", ErrEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == "" {
		return "", "", ErrNotStarted
	}
	id := uuid.New().String()
	s.items[id] = item{name: name, contentType: contentType, data: data, inline: inline}
	return id, s.base + "/reports/" + id, nil
}

// Release drops a published item. It reports whether the handle existed.
func (s *Server) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

// Len returns the number of live items.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Server) serve(c echo.Context) error {
	s.mu.RLock()
	it, ok := s.items[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "preview not found")
	}

	disposition := "attachment"
	if it.inline {
		disposition = "inline"
	}
	c.Response().Header().Set("Content-Disposition",
		mime.FormatMediaType(disposition, map[string]string{"filename": it.name}))

	ct := it.contentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, ct, it.data)
}
