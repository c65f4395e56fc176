// Package apiclient is the HTTP wrapper every portal workflow goes through.
// It attaches the bearer token from the session, applies the 401 policy,
// decodes responses through one result contract and maps every failure
// onto the Error taxonomy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// MaxBlobSize bounds downloaded report content (100 MB).
const MaxBlobSize = 100 * 1024 * 1024

// maxBodySize bounds JSON response bodies.
const maxBodySize = 10 * 1024 * 1024

// Sessions supplies the bearer token and is told when the backend rejects it.
type Sessions interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. It works on a copy, so a client
// passed through WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Client talks to the portal backend rooted at baseURL (including /api).
type Client struct {
	baseURL    string
	sessions   Sessions
	httpClient *http.Client
	logger     zerolog.Logger
	limiter    *rate.Limiter
}

// New creates a Client. sessions may be nil for unauthenticated use.
func New(baseURL string, sessions Sessions, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessions:   sessions,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get decodes the response of a GET into out.
func (c *Client) Get(ctx context.Context, p string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, p, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, p string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, p, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, p string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, p, body, out)
}

// Delete issues a DELETE and discards the body.
func (c *Client) Delete(ctx context.Context, p string) error {
	return c.Do(ctx, http.MethodDelete, p, nil, nil)
}

// Do performs a JSON request. A nil body sends no payload; a nil out
// discards the response body.
func (c *Client) Do(ctx context.Context, method, p string, body, out interface{}) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return unexpectedError(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}

	raw, _, err := c.send(ctx, method, p, reader, contentType, maxBodySize)
	if err != nil {
		return err
	}
	if err := decodeInto(raw, out); err != nil {
		return unexpectedError(err)
	}
	return nil
}

// Blob is opaque binary content fetched from the backend.
type Blob struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Download fetches p as an opaque blob.
func (c *Client) Download(ctx context.Context, p string) (*Blob, error) {
	raw, header, err := c.send(ctx, http.MethodGet, p, nil, "", MaxBlobSize)
	if err != nil {
		return nil, err
	}
	blob := &Blob{
		Data:        raw,
		ContentType: header.Get("Content-Type"),
		FileName:    path.Base(p),
	}
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			blob.FileName = params["filename"]
		}
	}
	if blob.ContentType == "" {
		blob.ContentType = http.DetectContentType(raw)
	}
	return blob, nil
}

// Upload posts content as a single multipart file field and decodes the
// JSON response into out.
func (c *Client) Upload(ctx context.Context, p, field, fileName string, content io.Reader, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, fileName)
	if err != nil {
		return unexpectedError(fmt.Errorf("create form file: %w", err))
	}
	if _, err := io.Copy(part, io.LimitReader(content, MaxBlobSize+1)); err != nil {
		return unexpectedError(fmt.Errorf("read upload content: %w", err))
	}
	if err := w.Close(); err != nil {
		return unexpectedError(fmt.Errorf("finish multipart body: %w", err))
	}
	if buf.Len() > MaxBlobSize {
		return Validationf("file exceeds maximum allowed size of %d MB", MaxBlobSize/(1024*1024))
	}

	raw, _, err := c.send(ctx, http.MethodPost, p, &buf, w.FormDataContentType(), maxBodySize)
	if err != nil {
		return err
	}
	if err := decodeInto(raw, out); err != nil {
		return unexpectedError(err)
	}
	return nil
}

// send performs one request and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, method, p string, body io.Reader, contentType string, limit int64) ([]byte, http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, networkError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(p), body)
	if err != nil {
		return nil, nil, unexpectedError(fmt.Errorf("build request: %w", err))
	}
	rid := uuid.New().String()
	req.Header.Set("X-Request-ID", rid)
	req.Header.Set("Accept", "application/json, */*")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.sessions != nil {
		tok, err := c.sessions.Token(ctx)
		if err != nil {
			return nil, nil, unexpectedError(err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("request_id", rid).
			Str("method", method).
			Str("path", p).
			Dur("latency", time.Since(start)).
			Msg("request failed")
		return nil, nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, nil, networkError(err)
	}

	evt := c.logger.Debug()
	if resp.StatusCode >= 400 {
		evt = c.logger.Warn()
	}
	evt.Str("request_id", rid).
		Str("method", method).
		Str("path", p).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(resp.StatusCode, raw)
		if apiErr.Kind == KindUnauthorized && c.sessions != nil {
			c.sessions.Invalidate(ctx)
		}
		return nil, nil, apiErr
	}
	if int64(len(raw)) > limit {
		return nil, nil, unexpectedError(fmt.Errorf("response exceeds %d bytes", limit))
	}
	return raw, resp.Header, nil
}

func (c *Client) url(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return c.baseURL + p
}
