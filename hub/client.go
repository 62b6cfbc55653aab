// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/stacklok/dockerhub-mcp/auth"
	"github.com/stacklok/dockerhub-mcp/cache"
	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/logger"
	"github.com/stacklok/dockerhub-mcp/ratelimit"
)

const (
	// DefaultHubBaseURL is the Hub metadata API.
	DefaultHubBaseURL = "https://hub.docker.com/v2"

	// DefaultRegistryBaseURL is the Registry v2 blob/manifest API. It is a
	// separate service from the metadata API.
	DefaultRegistryBaseURL = "https://registry-1.docker.io/v2"

	requestTimeout   = 30 * time.Second
	maxResponseBytes = 20 << 20

	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
	defaultBackoffCap  = 30 * time.Second
)

// Cache TTLs per operation. Manifests and config blobs are immutable per
// digest, so they live longest; search results churn fastest.
const (
	searchTTL      = 5 * time.Minute
	repositoryTTL  = 10 * time.Minute
	tagsTTL        = 5 * time.Minute
	manifestTTL    = 30 * time.Minute
	imageConfigTTL = time.Hour
	scanTTL        = 10 * time.Minute
	dockerfileTTL  = time.Hour
)

// Client implements the read-only Docker Hub and Registry v2 operations.
// Every operation follows the same path: check cache, acquire auth, gate the
// HTTP call through the rate limiter, normalize errors, cache the result.
// Construct one per process via New and share it; all methods are safe for
// concurrent use.
type Client struct {
	cache   *cache.Cache
	limiter *ratelimit.Limiter
	auth    *auth.Manager

	httpClient      *http.Client
	hubBaseURL      string
	registryBaseURL string

	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration

	// sleep is the backoff primitive, injectable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for all upstream calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURLs overrides the Hub metadata and Registry v2 base URLs.
// Intended for tests.
func WithBaseURLs(hubURL, registryURL string) Option {
	return func(c *Client) {
		c.hubBaseURL = hubURL
		c.registryBaseURL = registryURL
	}
}

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff overrides the exponential backoff base and cap.
func WithBackoff(base, cap time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
		c.backoffCap = cap
	}
}

// New creates a Client over explicitly constructed collaborators. The cache,
// limiter, and auth manager are process-wide singletons owned by the
// composition root, injected here rather than reached for globally.
func New(apiCache *cache.Cache, limiter *ratelimit.Limiter, authMgr *auth.Manager, opts ...Option) *Client {
	c := &Client{
		cache:           apiCache,
		limiter:         limiter,
		auth:            authMgr,
		httpClient:      &http.Client{Timeout: requestTimeout},
		hubBaseURL:      DefaultHubBaseURL,
		registryBaseURL: DefaultRegistryBaseURL,
		maxAttempts:     defaultMaxAttempts,
		backoffBase:     defaultBackoffBase,
		backoffCap:      defaultBackoffCap,
		sleep:           sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs one rate-limited GET. The limiter key groups requests
// into a shared budget; rate-limit headers from every response, success or
// error, feed back into the limiter so it tracks the server's state.
func (c *Client) doRequest(ctx context.Context, limitKey, rawURL string, headers map[string]string) ([]byte, error) {
	var body []byte
	err := c.limiter.Do(ctx, limitKey, false, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return httperr.Wrap(httperr.KindUnknown, "building request", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", auth.UserAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return httperr.Network(err)
		}
		defer resp.Body.Close()

		c.limiter.UpdateFromHeaders(resp.Header, limitKey)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			norm := httperr.FromResponse(resp)
			if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil && len(raw) > 0 {
				// Response bodies are logged, never forwarded to callers.
				logger.Debugw("upstream error response", "url", rawURL,
					"status", resp.StatusCode, "body", string(raw))
			}
			return norm
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return httperr.Network(err)
		}
		return nil
	})
	return body, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
