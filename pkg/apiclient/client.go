// Package apiclient is the shared HTTP client for the MatriFIC REST backend.
//
// Payloads travel as casing.Value in transport case. The client adds the
// bearer token of the bound session, propagates the request id and turns a
// 401 from any endpoint that does not issue tokens into a forced logout.
package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
	"github.com/matrific/matrific-web/pkg/middleware/requestid"
)

// Token-issuing endpoints. A 401 from these means bad credentials, not an
// expired session.
const (
	TokenPath   = "/token/"
	RefreshPath = "/token/refresh/"
)

// TokenSource yields the access token of the current session.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Observer receives upstream call timings.
type Observer interface {
	ObserveUpstream(method, endpoint string, status int, duration time.Duration)
}

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the backend on behalf of one session, or anonymously when no
// session is bound.
type Client struct {
	baseURL  string
	http     Doer
	tokens   TokenSource
	onUnauth func(ctx context.Context)
	observer Observer
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithObserver reports call timings to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs an anonymous client for baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind returns a copy of c that authenticates with tokens and calls
// onUnauthorized when the backend rejects the session.
func (c *Client) Bind(tokens TokenSource, onUnauthorized func(ctx context.Context)) *Client {
	bound := *c
	bound.tokens = tokens
	bound.onUnauth = onUnauthorized
	return &bound
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (casing.Value, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, "")
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body casing.Value) (casing.Value, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body)
}

// Patch sends body as JSON.
func (c *Client) Patch(ctx context.Context, path string, body casing.Value) (casing.Value, error) {
	return c.sendJSON(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil, "")
	return err
}

// PostMultipart sends body as multipart/form-data, see EncodeMultipart.
func (c *Client) PostMultipart(ctx context.Context, path string, body casing.Value) (casing.Value, error) {
	payload, contentType, err := EncodeMultipart(body)
	if err != nil {
		return casing.Null(), appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upload")
	}
	return c.do(ctx, http.MethodPost, path, nil, payload, contentType)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body casing.Value) (casing.Value, error) {
	payload, err := body.MarshalJSON()
	if err != nil {
		return casing.Null(), appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(payload), "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (casing.Value, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return casing.Null(), appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}
	if !isTokenEndpoint(path) && c.tokens != nil {
		if token, ok := c.tokens.AccessToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	label := endpointLabel(path)
	if err != nil {
		c.observe(method, label, 0, time.Since(start))
		c.logger.Warn("upstream request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return casing.Null(), appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "MatriFIC API unavailable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.observe(method, label, resp.StatusCode, time.Since(start))
	if err != nil {
		return casing.Null(), appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read upstream response")
	}

	c.logger.Debug("upstream request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized && !isTokenEndpoint(path) {
		if c.onUnauth != nil {
			c.onUnauth(ctx)
		}
		return casing.Null(), appErrors.ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return casing.Null(), errorFromResponse(resp.StatusCode, raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return casing.Null(), nil
	}
	value, err := casing.FromJSON(raw)
	if err != nil {
		return casing.Null(), appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "invalid upstream response")
	}
	return value, nil
}

func (c *Client) observe(method, endpoint string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(method, endpoint, status, d)
	}
}

func isTokenEndpoint(path string) bool {
	p := strings.SplitN(path, "?", 2)[0]
	return p == TokenPath || p == RefreshPath
}

var idSegment = regexp.MustCompile(`/\d+(/|$)`)

// endpointLabel collapses numeric ids so metric labels stay bounded.
func endpointLabel(path string) string {
	p := strings.SplitN(path, "?", 2)[0]
	for idSegment.MatchString(p) {
		p = idSegment.ReplaceAllString(p, "/:id$1")
	}
	return p
}
