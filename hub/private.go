// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stacklok/dockerhub-mcp/auth"
	"github.com/stacklok/dockerhub-mcp/httperr"
	validationhttp "github.com/stacklok/dockerhub-mcp/validation/http"
)

// MakePrivateRegistryRequest performs an authenticated GET against an
// arbitrary private registry endpoint. The registry's token endpoint is
// discovered from its WWW-Authenticate challenge, responses are never
// cached, and the registry's host gets its own rate-limit bucket so a slow
// private registry cannot starve Docker Hub calls (or vice versa).
//
// Caller-supplied headers are validated before being forwarded; an
// Authorization header from the caller is dropped in favor of the token
// negotiated for the registry.
func (c *Client) MakePrivateRegistryRequest(
	ctx context.Context,
	rawURL string,
	registry auth.RegistryAuth,
	scope string,
	headers map[string]string,
) ([]byte, error) {
	if err := validationhttp.ValidateRegistryURL(rawURL); err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, "validating registry URL", err)
	}
	if err := validationhttp.ValidateHeaders(headers); err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, "validating request headers", err)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, "parsing registry URL", err)
	}
	limitKey := parsed.Host

	var body []byte
	err = c.retry(ctx, "private_registry_request", func(ctx context.Context) error {
		authHeaders, err := c.auth.AuthHeaders(ctx, &registry, scope)
		if err != nil {
			return err
		}

		// Header names are matched canonically so a lowercase "authorization"
		// from the caller cannot shadow the negotiated token.
		merged := make(map[string]string, len(headers)+len(authHeaders))
		for k, v := range headers {
			if http.CanonicalHeaderKey(k) == "Authorization" {
				continue
			}
			merged[k] = v
		}
		for k, v := range authHeaders {
			merged[k] = v
		}

		body, err = c.doRequest(ctx, limitKey, rawURL, merged)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("private registry request to %s: %w", parsed.Host, err)
	}
	return body, nil
}
