// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/logger"
)

// DiscoverAuthEndpoint finds the token endpoint for a third-party registry by
// probing <registryURL>/v2/ and parsing the WWW-Authenticate challenge of the
// expected 401. When the challenge is missing or malformed it falls back to
// the auth.<host>/token convention. Only a total network failure is an error.
func (m *Manager) DiscoverAuthEndpoint(ctx context.Context, registryURL string) (string, error) {
	base, err := url.Parse(registryURL)
	if err != nil || base.Host == "" {
		return "", httperr.Validationf("invalid registry URL: %q", registryURL)
	}

	probeURL := strings.TrimSuffix(registryURL, "/") + "/v2/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return "", httperr.Wrap(httperr.KindUnknown, "building discovery request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", httperr.Network(err)
	}
	defer resp.Body.Close()

	if realm := realmFromChallenge(resp.Header.Get("WWW-Authenticate")); realm != "" {
		return realm, nil
	}

	// No usable challenge. Guess the conventional endpoint; this is a
	// best-effort heuristic, not a guaranteed discovery mechanism.
	scheme := base.Scheme
	if scheme == "" {
		scheme = "https"
	}
	guess := fmt.Sprintf("%s://auth.%s/token", scheme, base.Hostname())
	logger.Debugw("registry returned no parseable auth challenge, guessing endpoint",
		"registry", registryURL, "guess", guess)
	return guess, nil
}

// realmFromChallenge extracts the realm value from a Bearer challenge header
// like `Bearer realm="https://auth.example.com/token",service="example.com"`.
// Returns the empty string when the header is absent or not a Bearer
// challenge with a realm.
func realmFromChallenge(header string) string {
	if header == "" {
		return ""
	}
	scheme, params, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	for _, part := range splitChallengeParams(params) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "realm") {
			return strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return ""
}

// splitChallengeParams splits challenge parameters on commas that are not
// inside quoted values.
func splitChallengeParams(s string) []string {
	var parts []string
	var b strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
