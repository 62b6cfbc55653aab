// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/hub/types"
	"github.com/stacklok/dockerhub-mcp/provenance"
)

// stubClient returns canned payloads and records the arguments it saw.
type stubClient struct {
	searchResp  *types.SearchResponse
	details     *types.RepositoryDetails
	tags        *types.TagsResponse
	manifest    *types.Manifest
	imageConfig *types.ImageConfig
	report      *types.VulnerabilityReport
	dockerfile  string
	exists      bool
	credsValid  bool
	err         error

	lastQuery string
	lastRepo  string
	lastTag   string
}

func (s *stubClient) SearchImages(_ context.Context, query string, _, _ int, _, _ *bool) (*types.SearchResponse, error) {
	s.lastQuery = query
	return s.searchResp, s.err
}

func (s *stubClient) GetRepositoryDetails(_ context.Context, repository string) (*types.RepositoryDetails, error) {
	s.lastRepo = repository
	return s.details, s.err
}

func (s *stubClient) ListTags(_ context.Context, repository string, _, _ int) (*types.TagsResponse, error) {
	s.lastRepo = repository
	return s.tags, s.err
}

func (s *stubClient) GetManifest(_ context.Context, repository, tag string) (*types.Manifest, error) {
	s.lastRepo, s.lastTag = repository, tag
	return s.manifest, s.err
}

func (s *stubClient) GetImageConfig(_ context.Context, repository, tag string) (*types.ImageConfig, error) {
	s.lastRepo, s.lastTag = repository, tag
	return s.imageConfig, s.err
}

func (s *stubClient) GetVulnerabilities(_ context.Context, repository, tag string) (*types.VulnerabilityReport, error) {
	s.lastRepo, s.lastTag = repository, tag
	return s.report, s.err
}

func (s *stubClient) GetDockerfile(_ context.Context, repository string) (string, error) {
	s.lastRepo = repository
	return s.dockerfile, s.err
}

func (s *stubClient) RepositoryExists(_ context.Context, repository string) (bool, error) {
	s.lastRepo = repository
	return s.exists, s.err
}

func (s *stubClient) CheckCredentials(context.Context) bool {
	return s.credsValid
}

type stubVerifier struct {
	result *provenance.Result
	expect *provenance.Expectation
	ctx    context.Context
}

func (s *stubVerifier) VerifyImage(ctx context.Context, _ string, expect *provenance.Expectation) (*provenance.Result, error) {
	s.ctx = ctx
	s.expect = expect
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.result, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleSearchImages(t *testing.T) {
	t.Parallel()

	client := &stubClient{searchResp: &types.SearchResponse{
		Count: 2,
		Results: []types.SearchResult{
			{RepoName: "library/nginx", StarCount: 19000, IsOfficial: true},
			{RepoName: "acme/nginx", StarCount: 3},
		},
	}}
	h := NewHandler(client, nil)

	result, err := h.handleSearchImages(context.Background(), callRequest(map[string]any{"query": "nginx"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "nginx", client.lastQuery)
}

func TestHandleSearchImages_Filter(t *testing.T) {
	t.Parallel()

	client := &stubClient{searchResp: &types.SearchResponse{
		Count: 2,
		Results: []types.SearchResult{
			{RepoName: "library/nginx", StarCount: 19000, IsOfficial: true},
			{RepoName: "acme/nginx", StarCount: 3},
		},
	}}
	h := NewHandler(client, nil)

	result, err := h.handleSearchImages(context.Background(), callRequest(map[string]any{
		"query":  "nginx",
		"filter": "result.is_official",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), "Found 1 results")

	result, err = h.handleSearchImages(context.Background(), callRequest(map[string]any{
		"query":  "nginx",
		"filter": "result.bogus ??",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSearchImages_MissingQuery(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubClient{}, nil)
	result, err := h.handleSearchImages(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetRepository_ErrorMapping(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: httperr.New(httperr.KindNotFound, "no such repository")}
	h := NewHandler(client, nil)

	result, err := h.handleGetRepository(context.Background(), callRequest(map[string]any{"repository": "nosuch/repo"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	// The tool reports the taxonomy message, not the upstream payload.
	assert.Contains(t, textOf(t, result), "not_found")
	assert.NotContains(t, textOf(t, result), "no such repository")
}

func TestHandleGetVulnerabilities_NoScan(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubClient{report: nil}, nil)
	result, err := h.handleGetVulnerabilities(context.Background(), callRequest(map[string]any{"repository": "nginx"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), "No vulnerability scan")
}

func TestHandleGetDockerfile_Empty(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubClient{dockerfile: ""}, nil)
	result, err := h.handleGetDockerfile(context.Background(), callRequest(map[string]any{"repository": "acme/app"}))
	require.NoError(t, err)
	assert.Contains(t, textOf(t, result), "No Dockerfile")
}

func TestHandleCheckCredentials(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubClient{credsValid: true}, nil)
	result, err := h.handleCheckCredentials(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, textOf(t, result), "true")
}

func TestHandleVerifyProvenance(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{result: &provenance.Result{IsSigned: true, IsVerified: true}}
	h := NewHandler(&stubClient{}, verifier)

	result, err := h.handleVerifyProvenance(context.Background(), callRequest(map[string]any{
		"image":          "docker.io/library/nginx:latest",
		"repository_uri": "https://github.com/nginx/nginx",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.NotNil(t, verifier.expect)
	assert.Equal(t, "https://github.com/nginx/nginx", verifier.expect.RepositoryURI)

	// Without expectation fields the verifier gets nil.
	_, err = h.handleVerifyProvenance(context.Background(), callRequest(map[string]any{
		"image": "docker.io/library/nginx:latest",
	}))
	require.NoError(t, err)
	assert.Nil(t, verifier.expect)
}

func TestHandleVerifyProvenance_ContextReachesVerifier(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{result: &provenance.Result{}}
	h := NewHandler(&stubClient{}, verifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A canceled call must be observable by the verifier so registry and TUF
	// I/O can stop early.
	result, err := h.handleVerifyProvenance(ctx, callRequest(map[string]any{
		"image": "docker.io/library/nginx:latest",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, ctx, verifier.ctx)
}

func TestHandleVerifyProvenance_Unavailable(t *testing.T) {
	t.Parallel()

	h := NewHandler(&stubClient{}, nil)
	result, err := h.handleVerifyProvenance(context.Background(), callRequest(map[string]any{
		"image": "docker.io/library/nginx:latest",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRecovered_PanicBecomesToolError(t *testing.T) {
	t.Parallel()

	handler := recovered("docker_test_tool", func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("boom")
	})
	result, err := handler(context.Background(), callRequest(nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
