package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"BookmarkAdmin/internal/config"
)

// HeaderRequestID carries a per-request id for correlating client and server logs.
const HeaderRequestID = "X-Request-ID"

// TokenSource supplies the bearer token for outgoing requests. An empty token means
// "not logged in" and no Authorization header is sent.
type TokenSource interface {
	Token() string
}

// Client is the admin API client. Every request gets the current bearer token
// attached, and every 401 is broadcast to OnUnauthorized subscribers before the
// error is returned to the caller. Requests are attempted exactly once.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger

	mu          sync.RWMutex
	tokens      TokenSource
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(error)
}

type Option func(*Client)

// WithTokenSource sets the source consulted before each request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTransport replaces the underlying round tripper. The auth interceptor still wraps it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.http.Transport = &authTransport{base: rt, client: c}
		}
	}
}

// New creates a client for the API rooted at baseURL (e.g. "http://localhost:8081/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     zap.NewNop().Sugar(),
	}
	c.http = &http.Client{
		Timeout:   config.RequestTimeout,
		Transport: &authTransport{base: http.DefaultTransport, client: c},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// SetTokenSource swaps the token source. Used by the composition root, where the
// session store needs the client before it can itself be handed to the client.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// OnUnauthorized subscribes fn to the "unauthorized" event, emitted once for every
// request answered with 401 (login excepted). Subscribers run in subscription
// order. The returned func unsubscribes.
func (c *Client) OnUnauthorized(fn func(error)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers = append(c.subscribers, subscriber{id: id, fn: fn})
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subscribers {
			if s.id == id {
				c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) emitUnauthorized(err error) {
	c.mu.RLock()
	subs := make([]func(error), 0, len(c.subscribers))
	for _, s := range c.subscribers {
		subs = append(subs, s.fn)
	}
	c.mu.RUnlock()
	for _, fn := range subs {
		fn(err)
	}
}

type credentialCheckKey struct{}

// withCredentialCheck marks a request whose 401 means "credentials rejected" rather
// than "session expired": the bearer token is still attached, but no unauthorized
// event is emitted.
func withCredentialCheck(ctx context.Context) context.Context {
	return context.WithValue(ctx, credentialCheckKey{}, true)
}

func isCredentialCheck(ctx context.Context) bool {
	v, _ := ctx.Value(credentialCheckKey{}).(bool)
	return v
}

// authTransport is the request interceptor.
type authTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(HeaderRequestID) == "" {
		r.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if tok := t.client.currentToken(); tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	return t.base.RoundTrip(r)
}

// do sends one JSON request and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debugw("request failed",
			"method", method,
			"path", path,
			"request_id", req.Header.Get(HeaderRequestID),
			"duration", time.Since(start),
			"error", err,
		)
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	c.log.Debugw("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(HeaderRequestID),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := newHTTPError(method, path, resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && !isCredentialCheck(ctx) {
			c.log.Warnw("unauthorized response, dropping session", "path", path)
			c.emitUnauthorized(herr)
		}
		return herr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
