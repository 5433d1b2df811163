// Package client is the typed HTTP client for the reportkit server. It
// persists session tokens, transparently refreshes expired access tokens,
// and caches catalog reads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vantagesec/reportkit/internal/config"
)

// Client talks to a reportkit server. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *tokenStore
	cache   *catalogCache

	// refresh collapses concurrent 401 recoveries into one refresh call.
	refresh singleflight.Group

	// onSessionExpired runs exactly once per failed refresh, after local
	// session state has been cleared.
	onSessionExpired func()
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithSessionExpiredHook installs a callback invoked when a token refresh
// fails and the local session is torn down.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a Client configured from cfg.
func New(cfg config.ClientConfig, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://127.0.0.1:7190"
	}
	ttl := time.Duration(cfg.CatalogTTLSeconds) * time.Second
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  newTokenStore(cfg.TokenPath),
		cache:   newCatalogCache(ttl),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoggedIn reports whether a session is present locally. It does not verify
// the tokens against the server.
func (c *Client) LoggedIn() bool {
	return c.tokens.Get().AccessToken != ""
}

// Logout discards the local session.
func (c *Client) Logout() {
	c.tokens.Clear()
	c.cache.Invalidate()
}

// do executes one authenticated JSON request. The request body is rebuilt
// from payload on every attempt, so a 401 retry never replays a drained
// reader. Auth endpoints are exempt from the refresh-and-retry path: a 401
// there is a final answer.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	err := c.once(ctx, method, path, payload, out)
	if err == nil || !statusIs(err, http.StatusUnauthorized) || isAuthPath(path) {
		return err
	}

	if refreshErr := c.refreshSession(ctx); refreshErr != nil {
		return err
	}
	return c.once(ctx, method, path, payload, out)
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}

// once performs a single request/response cycle.
func (c *Client) once(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Get().AccessToken; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeAPIError(res.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// refreshSession exchanges the stored refresh token for a new pair. All
// concurrent callers share one in-flight exchange; on failure the session is
// torn down inside the shared call, so teardown happens exactly once no
// matter how many requests hit the expired token together.
func (c *Client) refreshSession(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		// No stored refresh token means the session is already gone, either
		// never established or torn down by an earlier failed refresh. There
		// is nothing to tear down and the hook must not fire again.
		pair := c.tokens.Get()
		if pair.RefreshToken == "" {
			return nil, &APIError{Status: http.StatusUnauthorized, Message: "not logged in"}
		}

		var resp SessionResponse
		err := c.once(ctx, http.MethodPost, "/auth/refresh",
			map[string]string{"refresh_token": pair.RefreshToken}, &resp)
		if err != nil {
			c.teardownSession()
			return nil, err
		}
		if err := c.tokens.Set(TokenPair{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
		}); err != nil {
			return nil, fmt.Errorf("persisting refreshed session: %w", err)
		}
		return nil, nil
	})
	return err
}

func (c *Client) teardownSession() {
	c.tokens.Clear()
	c.cache.Invalidate()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func decodeAPIError(status int, body []byte) error {
	var envelope struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)
	return &APIError{Status: status, Message: envelope.Error}
}
