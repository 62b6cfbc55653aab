// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/stacklok/dockerhub-mcp/cache"
	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/hub/types"
	"github.com/stacklok/dockerhub-mcp/logger"
	"github.com/stacklok/dockerhub-mcp/ratelimit"
)

const (
	defaultPageSize = 25
	defaultTag      = "latest"
)

// SearchImages queries the Hub search endpoint. The endpoint is public, so
// no auth header is sent, but the call still counts against the rate budget.
func (c *Client) SearchImages(
	ctx context.Context,
	query string,
	limit, page int,
	isOfficial, isAutomated *bool,
) (*types.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, httperr.Validationf("search query must not be empty")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	params := map[string]string{
		"q":         query,
		"page_size": strconv.Itoa(limit),
		"page":      strconv.Itoa(page),
	}
	if isOfficial != nil {
		params["is_official"] = strconv.FormatBool(*isOfficial)
	}
	if isAutomated != nil {
		params["is_automated"] = strconv.FormatBool(*isAutomated)
	}

	key := cache.GenerateKey("search/repositories", params)
	if cached, ok := c.cache.Get(key); ok {
		if resp, ok := cached.(*types.SearchResponse); ok {
			return resp, nil
		}
	}

	var result types.SearchResponse
	err := c.retry(ctx, "search_images", func(ctx context.Context) error {
		u := c.hubBaseURL + "/search/repositories/?" + encodeParams(params)
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, u, nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return httperr.Wrap(httperr.KindValidation, "decoding search response", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching images: %w", err)
	}

	c.cache.SetWithTTL(key, &result, searchTTL)
	return &result, nil
}

// GetRepositoryDetails fetches repository metadata from the Hub API.
func (c *Client) GetRepositoryDetails(ctx context.Context, repository string) (*types.RepositoryDetails, error) {
	repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}

	key := cache.GenerateKey("repositories", map[string]string{"repository": repo.String()})
	if cached, ok := c.cache.Get(key); ok {
		if details, ok := cached.(*types.RepositoryDetails); ok {
			return details, nil
		}
	}

	var result types.RepositoryDetails
	err = c.retry(ctx, "get_repository_details", func(ctx context.Context) error {
		u := fmt.Sprintf("%s/repositories/%s/%s/", c.hubBaseURL, repo.Namespace, repo.Name)
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, u, c.hubAuthHeaders(ctx))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return httperr.Wrap(httperr.KindValidation, "decoding repository details", err)
		}
		return result.Validate()
	})
	if err != nil {
		return nil, fmt.Errorf("getting repository details for %s: %w", repo, err)
	}

	c.cache.SetWithTTL(key, &result, repositoryTTL)
	return &result, nil
}

// ListTags lists a repository's tags from the Hub API.
func (c *Client) ListTags(ctx context.Context, repository string, limit, page int) (*types.TagsResponse, error) {
	repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	params := map[string]string{
		"repository": repo.String(),
		"page_size":  strconv.Itoa(limit),
		"page":       strconv.Itoa(page),
	}
	key := cache.GenerateKey("tags", params)
	if cached, ok := c.cache.Get(key); ok {
		if tags, ok := cached.(*types.TagsResponse); ok {
			return tags, nil
		}
	}

	var result types.TagsResponse
	err = c.retry(ctx, "list_tags", func(ctx context.Context) error {
		u := fmt.Sprintf("%s/repositories/%s/%s/tags/?page_size=%d&page=%d",
			c.hubBaseURL, repo.Namespace, repo.Name, limit, page)
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, u, c.hubAuthHeaders(ctx))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return httperr.Wrap(httperr.KindValidation, "decoding tags response", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags for %s: %w", repo, err)
	}

	c.cache.SetWithTTL(key, &result, tagsTTL)
	return &result, nil
}

// GetManifest fetches an image manifest from the Registry v2 API using a
// pull-scoped token. The registry is a different service than the metadata
// API, with its own auth scope per repository.
func (c *Client) GetManifest(ctx context.Context, repository, tag string) (*types.Manifest, error) {
	repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		tag = defaultTag
	}

	key := cache.GenerateKey("manifests", map[string]string{"repository": repo.String(), "tag": tag})
	if cached, ok := c.cache.Get(key); ok {
		if m, ok := cached.(*types.Manifest); ok {
			return m, nil
		}
	}

	var result *types.Manifest
	err = c.retry(ctx, "get_manifest", func(ctx context.Context) error {
		headers, err := c.auth.AuthHeaders(ctx, nil, repo.PullScope())
		if err != nil {
			return err
		}
		headers["Accept"] = types.MediaTypeManifestV2

		u := fmt.Sprintf("%s/%s/%s/manifests/%s", c.registryBaseURL, repo.Namespace, repo.Name, tag)
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, u, headers)
		if err != nil {
			return err
		}
		result, err = types.ParseManifest(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting manifest for %s:%s: %w", repo, tag, err)
	}

	c.cache.SetWithTTL(key, result, manifestTTL)
	return result, nil
}

// GetImageConfig fetches the image config blob referenced by a tag's
// manifest. The manifest fetch reuses its own cache.
func (c *Client) GetImageConfig(ctx context.Context, repository, tag string) (*types.ImageConfig, error) {
	repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		tag = defaultTag
	}

	manifest, err := c.GetManifest(ctx, repository, tag)
	if err != nil {
		return nil, err
	}

	configDigest, err := digest.Parse(manifest.Config.Digest.String())
	if err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, "manifest carries invalid config digest", err)
	}

	key := cache.GenerateKey("blobs", map[string]string{
		"repository": repo.String(),
		"digest":     configDigest.String(),
	})
	if cached, ok := c.cache.Get(key); ok {
		if cfg, ok := cached.(*types.ImageConfig); ok {
			return cfg, nil
		}
	}

	var result *types.ImageConfig
	err = c.retry(ctx, "get_image_config", func(ctx context.Context) error {
		headers, err := c.auth.AuthHeaders(ctx, nil, repo.PullScope())
		if err != nil {
			return err
		}
		headers["Accept"] = types.MediaTypeImageConfigV1

		u := fmt.Sprintf("%s/%s/%s/blobs/%s", c.registryBaseURL, repo.Namespace, repo.Name, configDigest)
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, u, headers)
		if err != nil {
			return err
		}
		result, err = types.ParseImageConfig(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting image config for %s:%s: %w", repo, tag, err)
	}

	c.cache.SetWithTTL(key, result, imageConfigTTL)
	return result, nil
}

// GetVulnerabilities fetches a tag's vulnerability scan. A missing scan is an
// expected state, reported as a nil result rather than an error.
func (c *Client) GetVulnerabilities(ctx context.Context, repository, tag string) (*types.VulnerabilityReport, error) {
	repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		tag = defaultTag
	}

	key := cache.GenerateKey("scan", map[string]string{"repository": repo.String(), "tag": tag})
	if cached, ok := c.cache.Get(key); ok {
		if report, ok := cached.(*types.VulnerabilityReport); ok {
			return report, nil
		}
	}

	var result types.VulnerabilityReport
	err = c.retry(ctx, "get_vulnerabilities", func(ctx context.Context) error {
		u := fmt.Sprintf("%s/repositories/%s/%s/tags/%s/scan/", c.hubBaseURL, repo.Namespace, repo.Name, tag)
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, u, c.hubAuthHeaders(ctx))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return httperr.Wrap(httperr.KindValidation, "decoding scan report", err)
		}
		return nil
	})
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting vulnerabilities for %s:%s: %w", repo, tag, err)
	}

	result.Repository = repo.String()
	result.Tag = tag
	c.cache.SetWithTTL(key, &result, scanTTL)
	return &result, nil
}

// GetDockerfile fetches the Dockerfile for an automated build. Retrieval is
// inherently best-effort: the endpoint is missing for non-automated builds
// and frequently forbidden, so failures are logged and reported as an empty
// result, never as an error.
func (c *Client) GetDockerfile(ctx context.Context, repository string) (string, error) {
	repo, err := ParseRepository(repository)
	if err != nil {
		return "", err
	}

	key := cache.GenerateKey("dockerfile", map[string]string{"repository": repo.String()})
	if cached, ok := c.cache.Get(key); ok {
		if contents, ok := cached.(string); ok {
			return contents, nil
		}
	}

	var result types.DockerfileResponse
	err = c.retry(ctx, "get_dockerfile", func(ctx context.Context) error {
		u := fmt.Sprintf("%s/repositories/%s/%s/dockerfile/", c.hubBaseURL, repo.Namespace, repo.Name)
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, u, c.hubAuthHeaders(ctx))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return httperr.Wrap(httperr.KindValidation, "decoding dockerfile response", err)
		}
		return nil
	})
	if err != nil {
		logger.Debugw("dockerfile unavailable", "repository", repo.String(), "error", err)
		return "", nil
	}

	c.cache.SetWithTTL(key, result.Contents, dockerfileTTL)
	return result.Contents, nil
}

// RepositoryExists reports whether a repository is visible on the Hub.
// A not-found answer is a normal false; other failures propagate.
func (c *Client) RepositoryExists(ctx context.Context, repository string) (bool, error) {
	_, err := c.GetRepositoryDetails(ctx, repository)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CheckCredentials probes the Hub /user/ endpoint with the configured
// credentials. It never returns an error; any failure reports false.
func (c *Client) CheckCredentials(ctx context.Context) bool {
	token, err := c.auth.DefaultToken(ctx, "")
	if err != nil || token == "" {
		return false
	}

	var user types.UserResponse
	err = c.retry(ctx, "check_credentials", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, ratelimit.DefaultKey, c.hubBaseURL+"/user/",
			map[string]string{"Authorization": "Bearer " + token})
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &user)
	})
	if err != nil {
		logger.Debugw("credential probe failed", "error", err)
		return false
	}
	return user.Username != ""
}

// hubAuthHeaders builds the optional default-registry auth headers for Hub
// metadata calls. Anonymous is acceptable here, so failures reduce to an
// empty header map.
func (c *Client) hubAuthHeaders(ctx context.Context) map[string]string {
	headers, err := c.auth.AuthHeaders(ctx, nil, "")
	if err != nil {
		logger.Debugw("falling back to anonymous hub access", "error", err)
		return map[string]string{}
	}
	return headers
}

// encodeParams renders a parameter map in sorted-key order, matching the
// cache key layout.
func encodeParams(params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}
