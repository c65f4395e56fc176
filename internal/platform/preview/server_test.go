package preview

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func started(t *testing.T) *Server {
	t.Helper()
	s := New("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func TestServer_PublishRequiresStart(t *testing.T) {
	s := New("127.0.0.1:0")
	if _, _, err := s.Publish("a.pdf", "application/pdf", []byte("x"), true); err != ErrNotStarted {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestServer_PublishRejectsEmpty(t *testing.T) {
	s := started(t)
	if _, _, err := s.Publish("a.pdf", "application/pdf", nil, true); err != ErrEmpty {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestServer_ServesInlineAndAttachment(t *testing.T) {
	s := started(t)

	tests := []struct {
		name        string
		contentType string
		inline      bool
		wantDisp    string
	}{
		{"cbc.pdf", "application/pdf", true, "inline"},
		{"notes.docx", "", false, "attachment"},
	}
	for _, tt := range tests {
		id, link, err := s.Publish(tt.name, tt.contentType, []byte("content"), tt.inline)
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
		if !strings.HasPrefix(link, s.BaseURL()+"/reports/") || !strings.HasSuffix(link, id) {
			t.Errorf("unexpected url %s", link)
		}

		resp, err := http.Get(link)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if string(body) != "content" {
			t.Errorf("unexpected body %q", body)
		}
		if d := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(d, tt.wantDisp) || !strings.Contains(d, tt.name) {
			t.Errorf("expected %s disposition for %s, got %q", tt.wantDisp, tt.name, d)
		}
		if resp.Header.Get("Cache-Control") != "no-store" {
			t.Error("expected Cache-Control: no-store")
		}
	}
	if resp := s.Len(); resp != 2 {
		t.Errorf("expected 2 live items, got %d", resp)
	}
}

func TestServer_ReleaseRevokes(t *testing.T) {
	s := New("127.0.0.1:0")
	s.base = "http://preview.test"

	id, _, err := s.Publish("x.png", "image/png", []byte{1, 2}, true)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !s.Release(id) {
		t.Error("expected release to report true")
	}
	if s.Release(id) {
		t.Error("expected second release to report false")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after release, got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestServer_ShutdownDropsItems(t *testing.T) {
	s := New("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := s.Publish("a.pdf", "application/pdf", []byte("x"), true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected no items after shutdown, got %d", s.Len())
	}
}
