// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/logger"
)

const (
	// UserAgent identifies this client on every outbound request.
	UserAgent = "dockerhub-mcp/0.1.0"

	// DefaultTokenEndpoint is Docker Hub's token service.
	DefaultTokenEndpoint = "https://auth.docker.io/token"

	// DefaultService is the service parameter for Docker Hub token requests.
	DefaultService = "registry.docker.io"

	// defaultTokenLifetime applies when the token response omits expires_in.
	defaultTokenLifetime = time.Hour

	// defaultIdentity is the token-cache identity for the default registry.
	defaultIdentity = "default"

	requestTimeout = 30 * time.Second
)

// Credentials holds the ways a caller can authenticate against a registry.
// An AccessToken, when present, is used directly and wins over username and
// password.
type Credentials struct {
	Username    string
	Password    string
	AccessToken string
}

// anonymous reports whether no usable credential is configured.
func (c Credentials) anonymous() bool {
	return c.AccessToken == "" && (c.Username == "" || c.Password == "")
}

// RegistryAuth describes a third-party registry target and how to
// authenticate against it. It is supplied by the caller per request.
type RegistryAuth struct {
	URL         string
	Credentials Credentials
}

// tokenInfo is a cached bearer token with its expiry.
type tokenInfo struct {
	token     string
	expiresAt time.Time
}

// tokenResponse is the token endpoint's JSON payload.
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	IssuedAt  string `json:"issued_at"`
}

// Manager acquires and caches bearer tokens for the default registry and for
// arbitrary third-party registries. Tokens are cached per (registry identity,
// scope), since a token scoped to one repository is not valid for another.
// It is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	tokens map[string]tokenInfo

	creds         Credentials
	httpClient    *http.Client
	tokenEndpoint string
	service       string
	now           func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for token and probe requests.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithTokenEndpoint overrides the default registry's token service and
// service name. Intended for tests.
func WithTokenEndpoint(endpoint, service string) Option {
	return func(m *Manager) {
		m.tokenEndpoint = endpoint
		m.service = service
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a token manager for the default registry credentials.
// Zero-value credentials mean anonymous access.
func NewManager(creds Credentials, opts ...Option) *Manager {
	m := &Manager{
		tokens:        make(map[string]tokenInfo),
		creds:         creds,
		httpClient:    &http.Client{Timeout: requestTimeout},
		tokenEndpoint: DefaultTokenEndpoint,
		service:       DefaultService,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultToken returns a bearer token for the default registry, or the empty
// string for anonymous access. A configured access token is returned as-is.
// Token-request failures of any kind degrade to anonymous rather than failing
// the caller: a broken credential must not block public-image access. The
// failure is still logged, and ValidateCredentials can distinguish it.
func (m *Manager) DefaultToken(ctx context.Context, scope string) (string, error) {
	if m.creds.AccessToken != "" {
		return m.creds.AccessToken, nil
	}
	if m.creds.Username == "" || m.creds.Password == "" {
		return "", nil
	}

	if token, ok := m.cachedToken(defaultIdentity, scope); ok {
		return token, nil
	}

	resp, err := m.requestToken(ctx, m.tokenEndpoint, m.service, scope, m.creds)
	if err != nil {
		if httperr.IsKind(err, httperr.KindAuthentication) {
			logger.Warnw("default registry credentials rejected, falling back to anonymous",
				"username", m.creds.Username)
		} else {
			logger.Warnw("token request failed, falling back to anonymous", "error", err)
		}
		return "", nil
	}

	m.storeToken(defaultIdentity, scope, resp)
	return resp.Token, nil
}

// PrivateToken returns a bearer token for a third-party registry, discovering
// its auth endpoint dynamically. Unlike the default registry there is no
// anonymous fallback here: failures propagate to the caller.
func (m *Manager) PrivateToken(ctx context.Context, reg RegistryAuth, scope string) (string, error) {
	if reg.Credentials.AccessToken != "" {
		return reg.Credentials.AccessToken, nil
	}

	if token, ok := m.cachedToken(reg.URL, scope); ok {
		return token, nil
	}

	endpoint, err := m.DiscoverAuthEndpoint(ctx, reg.URL)
	if err != nil {
		return "", fmt.Errorf("discovering auth endpoint for %s: %w", reg.URL, err)
	}

	service, err := registryHost(reg.URL)
	if err != nil {
		return "", err
	}

	resp, err := m.requestToken(ctx, endpoint, service, scope, reg.Credentials)
	if err != nil {
		return "", err
	}

	m.storeToken(reg.URL, scope, resp)
	return resp.Token, nil
}

// AuthHeaders builds the request headers for a registry call. A nil reg
// targets the default registry. An empty map means the request proceeds
// anonymously.
func (m *Manager) AuthHeaders(ctx context.Context, reg *RegistryAuth, scope string) (map[string]string, error) {
	var token string
	var err error
	if reg == nil {
		token, err = m.DefaultToken(ctx, scope)
	} else {
		token, err = m.PrivateToken(ctx, *reg, scope)
	}
	if err != nil {
		return nil, err
	}
	if token == "" {
		return map[string]string{}, nil
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// ValidateCredentials probes the token endpoint with the given credentials.
// It never returns an error; any failure reports false.
func (m *Manager) ValidateCredentials(ctx context.Context, creds Credentials) bool {
	if creds.AccessToken != "" {
		return true
	}
	if creds.Username == "" || creds.Password == "" {
		return false
	}
	_, err := m.requestToken(ctx, m.tokenEndpoint, m.service, "", creds)
	if err != nil {
		logger.Debugw("credential validation failed", "error", err)
		return false
	}
	return true
}

// ClearTokenCache drops every cached token.
func (m *Manager) ClearTokenCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]tokenInfo)
}

// ClearRegistryTokens drops cached tokens for one registry. An empty url
// clears the default registry's tokens.
func (m *Manager) ClearRegistryTokens(url string) {
	identity := url
	if identity == "" {
		identity = defaultIdentity
	}
	prefix := identity + "\x00"

	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.tokens {
		if strings.HasPrefix(k, prefix) {
			delete(m.tokens, k)
		}
	}
}

// cacheKey combines registry identity and scope. Both parts matter: a token
// for repository:foo/bar:pull is not valid for another repository.
func cacheKey(identity, scope string) string {
	return identity + "\x00" + scope
}

func (m *Manager) cachedToken(identity, scope string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.tokens[cacheKey(identity, scope)]
	if !ok || !m.now().Before(info.expiresAt) {
		return "", false
	}
	return info.token, true
}

func (m *Manager) storeToken(identity, scope string, resp tokenResponse) {
	lifetime := defaultTokenLifetime
	if resp.ExpiresIn > 0 {
		lifetime = time.Duration(resp.ExpiresIn) * time.Second
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[cacheKey(identity, scope)] = tokenInfo{
		token:     resp.Token,
		expiresAt: m.now().Add(lifetime),
	}
}

// requestToken performs the token request: HTTP Basic credentials with a form
// body carrying service and the optional scope.
func (m *Manager) requestToken(
	ctx context.Context,
	endpoint, service, scope string,
	creds Credentials,
) (tokenResponse, error) {
	form := url.Values{}
	form.Set("service", service)
	if scope != "" {
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, httperr.Wrap(httperr.KindUnknown, "building token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if creds.Username != "" {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, httperr.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return tokenResponse{}, httperr.Wrap(httperr.KindAuthentication,
			"token request rejected", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tokenResponse{}, httperr.FromResponse(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return tokenResponse{}, httperr.Network(err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return tokenResponse{}, httperr.Wrap(httperr.KindUnknown, "decoding token response", err)
	}
	if tr.Token == "" {
		return tokenResponse{}, httperr.New(httperr.KindUnknown, "token response missing token")
	}
	return tr, nil
}

// registryHost extracts the host from a registry URL for use as the token
// service parameter.
func registryHost(registryURL string) (string, error) {
	u, err := url.Parse(registryURL)
	if err != nil || u.Host == "" {
		return "", httperr.Validationf("invalid registry URL: %q", registryURL)
	}
	return u.Host, nil
}
