// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stacklok/dockerhub-mcp/filter"
	"github.com/stacklok/dockerhub-mcp/hub/types"
	"github.com/stacklok/dockerhub-mcp/provenance"
)

// HubClient is the subset of the hub client the tools need.
type HubClient interface {
	SearchImages(ctx context.Context, query string, limit, page int, isOfficial, isAutomated *bool) (*types.SearchResponse, error)
	GetRepositoryDetails(ctx context.Context, repository string) (*types.RepositoryDetails, error)
	ListTags(ctx context.Context, repository string, limit, page int) (*types.TagsResponse, error)
	GetManifest(ctx context.Context, repository, tag string) (*types.Manifest, error)
	GetImageConfig(ctx context.Context, repository, tag string) (*types.ImageConfig, error)
	GetVulnerabilities(ctx context.Context, repository, tag string) (*types.VulnerabilityReport, error)
	GetDockerfile(ctx context.Context, repository string) (string, error)
	RepositoryExists(ctx context.Context, repository string) (bool, error)
	CheckCredentials(ctx context.Context) bool
}

func (*Handler) toolSearchImages() mcp.Tool {
	return mcp.NewTool(
		"docker_search_images",
		mcp.WithDescription("Search Docker Hub for images. Supports an optional CEL filter "+
			"over result fields, e.g. \"result.star_count > 100 && result.is_official\"."),
		mcp.WithTitleAnnotation("Search Docker Hub"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search term")),
		mcp.WithNumber("limit", mcp.Description("Results per page (default 25)")),
		mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
		mcp.WithBoolean("is_official", mcp.Description("Only official images")),
		mcp.WithBoolean("is_automated", mcp.Description("Only automated builds")),
		mcp.WithString("filter", mcp.Description("CEL expression applied to each result")),
	)
}

func (h *Handler) handleSearchImages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", 0)
	page := request.GetInt("page", 0)

	var isOfficial, isAutomated *bool
	if args := request.GetArguments(); args != nil {
		if _, set := args["is_official"]; set {
			v := request.GetBool("is_official", false)
			isOfficial = &v
		}
		if _, set := args["is_automated"]; set {
			v := request.GetBool("is_automated", false)
			isAutomated = &v
		}
	}

	var resultFilter *filter.Filter
	if expr := request.GetString("filter", ""); expr != "" {
		resultFilter, err = filter.Compile(expr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	resp, err := h.client.SearchImages(ctx, query, limit, page, isOfficial, isAutomated)
	if err != nil {
		return errorResult(err), nil
	}
	if resultFilter != nil {
		resp, err = resultFilter.Apply(resp)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	fallback := fmt.Sprintf("Found %d results (%d total matches)", len(resp.Results), resp.Count)
	return mcp.NewToolResultStructured(resp, fallback), nil
}

func (*Handler) toolGetRepository() mcp.Tool {
	return mcp.NewTool(
		"docker_get_repository",
		mcp.WithDescription("Get metadata for a Docker Hub repository such as description, "+
			"star count, and pull count."),
		mcp.WithTitleAnnotation("Get Repository Details"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("repository", mcp.Required(),
			mcp.Description("Repository reference, e.g. \"nginx\" or \"grafana/grafana\"")),
	)
}

func (h *Handler) handleGetRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	details, err := h.client.GetRepositoryDetails(ctx, repository)
	if err != nil {
		return errorResult(err), nil
	}
	fallback := fmt.Sprintf("%s/%s: %s", details.Namespace, details.Name, details.Description)
	return mcp.NewToolResultStructured(details, fallback), nil
}

func (*Handler) toolListTags() mcp.Tool {
	return mcp.NewTool(
		"docker_list_tags",
		mcp.WithDescription("List the tags of a Docker Hub repository."),
		mcp.WithTitleAnnotation("List Tags"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository reference")),
		mcp.WithNumber("limit", mcp.Description("Tags per page (default 25)")),
		mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
	)
}

func (h *Handler) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags, err := h.client.ListTags(ctx, repository, request.GetInt("limit", 0), request.GetInt("page", 0))
	if err != nil {
		return errorResult(err), nil
	}
	fallback := fmt.Sprintf("%d tags (%d total)", len(tags.Results), tags.Count)
	return mcp.NewToolResultStructured(tags, fallback), nil
}

func (*Handler) toolGetManifest() mcp.Tool {
	return mcp.NewTool(
		"docker_get_manifest",
		mcp.WithDescription("Get the image manifest for a repository tag from the registry."),
		mcp.WithTitleAnnotation("Get Manifest"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository reference")),
		mcp.WithString("tag", mcp.Description("Tag name (default \"latest\")")),
	)
}

func (h *Handler) handleGetManifest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	manifest, err := h.client.GetManifest(ctx, repository, request.GetString("tag", ""))
	if err != nil {
		return errorResult(err), nil
	}
	fallback := fmt.Sprintf("Manifest with %d layers, config %s", len(manifest.Layers), manifest.Config.Digest)
	return mcp.NewToolResultStructured(manifest, fallback), nil
}

func (*Handler) toolGetImageConfig() mcp.Tool {
	return mcp.NewTool(
		"docker_get_image_config",
		mcp.WithDescription("Get the image config (entrypoint, env, architecture, layer history) "+
			"for a repository tag."),
		mcp.WithTitleAnnotation("Get Image Config"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository reference")),
		mcp.WithString("tag", mcp.Description("Tag name (default \"latest\")")),
	)
}

func (h *Handler) handleGetImageConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg, err := h.client.GetImageConfig(ctx, repository, request.GetString("tag", ""))
	if err != nil {
		return errorResult(err), nil
	}
	fallback := fmt.Sprintf("%s/%s image config", cfg.OS, cfg.Architecture)
	return mcp.NewToolResultStructured(cfg, fallback), nil
}

func (*Handler) toolGetVulnerabilities() mcp.Tool {
	return mcp.NewTool(
		"docker_get_vulnerabilities",
		mcp.WithDescription("Get the vulnerability scan report for a repository tag. Reports "+
			"whether a scan exists and its severity summary."),
		mcp.WithTitleAnnotation("Get Vulnerability Report"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository reference")),
		mcp.WithString("tag", mcp.Description("Tag name (default \"latest\")")),
	)
}

func (h *Handler) handleGetVulnerabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := h.client.GetVulnerabilities(ctx, repository, request.GetString("tag", ""))
	if err != nil {
		return errorResult(err), nil
	}
	if report == nil {
		return mcp.NewToolResultText("No vulnerability scan is available for this tag."), nil
	}
	fallback := fmt.Sprintf("%d critical, %d high, %d medium, %d low",
		report.Summary.Critical, report.Summary.High, report.Summary.Medium, report.Summary.Low)
	return mcp.NewToolResultStructured(report, fallback), nil
}

func (*Handler) toolGetDockerfile() mcp.Tool {
	return mcp.NewTool(
		"docker_get_dockerfile",
		mcp.WithDescription("Get the Dockerfile of an automated build, when the repository "+
			"publishes one."),
		mcp.WithTitleAnnotation("Get Dockerfile"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository reference")),
	)
}

func (h *Handler) handleGetDockerfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contents, err := h.client.GetDockerfile(ctx, repository)
	if err != nil {
		return errorResult(err), nil
	}
	if contents == "" {
		return mcp.NewToolResultText("No Dockerfile is available for this repository."), nil
	}
	return mcp.NewToolResultText(contents), nil
}

func (*Handler) toolRepositoryExists() mcp.Tool {
	return mcp.NewTool(
		"docker_repository_exists",
		mcp.WithDescription("Check whether a repository exists and is visible on Docker Hub."),
		mcp.WithTitleAnnotation("Check Repository Exists"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository reference")),
	)
}

func (h *Handler) handleRepositoryExists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exists, err := h.client.RepositoryExists(ctx, repository)
	if err != nil {
		return errorResult(err), nil
	}
	fallback := fmt.Sprintf("Repository %s exists: %t", repository, exists)
	return mcp.NewToolResultStructured(map[string]bool{"exists": exists}, fallback), nil
}

func (*Handler) toolCheckCredentials() mcp.Tool {
	return mcp.NewTool(
		"docker_check_credentials",
		mcp.WithDescription("Check whether the configured Docker Hub credentials authenticate "+
			"successfully."),
		mcp.WithTitleAnnotation("Check Credentials"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *Handler) handleCheckCredentials(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	valid := h.client.CheckCredentials(ctx)
	fallback := fmt.Sprintf("Credentials valid: %t", valid)
	return mcp.NewToolResultStructured(map[string]bool{"valid": valid}, fallback), nil
}

func (*Handler) toolVerifyProvenance() mcp.Tool {
	return mcp.NewTool(
		"docker_verify_provenance",
		mcp.WithDescription("Verify the sigstore provenance of an image: whether it is signed "+
			"and whether the signature matches an optional expectation."),
		mcp.WithTitleAnnotation("Verify Image Provenance"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("image", mcp.Required(),
			mcp.Description("Image reference, e.g. \"docker.io/library/nginx:latest\"")),
		mcp.WithString("repository_uri", mcp.Description("Expected source repository URI")),
		mcp.WithString("repository_ref", mcp.Description("Expected source repository ref")),
		mcp.WithString("signer_identity", mcp.Description("Expected signer identity")),
		mcp.WithString("runner_environment", mcp.Description("Expected runner environment")),
		mcp.WithString("cert_issuer", mcp.Description("Expected certificate issuer")),
	)
}

func (h *Handler) handleVerifyProvenance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.verifier == nil {
		return mcp.NewToolResultError("provenance verification is not available"), nil
	}
	image, err := request.RequireString("image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	expect := &provenance.Expectation{
		RepositoryURI:     request.GetString("repository_uri", ""),
		RepositoryRef:     request.GetString("repository_ref", ""),
		SignerIdentity:    request.GetString("signer_identity", ""),
		RunnerEnvironment: request.GetString("runner_environment", ""),
		CertIssuer:        request.GetString("cert_issuer", ""),
	}
	if *expect == (provenance.Expectation{}) {
		expect = nil
	}

	result, err := h.verifier.VerifyImage(ctx, image, expect)
	if err != nil {
		return errorResult(err), nil
	}
	fallback := fmt.Sprintf("signed: %t, verified: %t", result.IsSigned, result.IsVerified)
	return mcp.NewToolResultStructured(result, fallback), nil
}
