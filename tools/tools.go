// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package tools exposes the Docker Hub client as MCP tools. Every tool is
// read-only; failures surface as tool errors carrying the normalized
// user-facing message, never raw upstream payloads.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stacklok/dockerhub-mcp/httperr"
	"github.com/stacklok/dockerhub-mcp/logger"
	"github.com/stacklok/dockerhub-mcp/provenance"
)

// ProvenanceVerifier verifies image signatures. Construction of the real
// verifier requires network access to the sigstore TUF repository, so it is
// injected and may be nil when verification is disabled.
type ProvenanceVerifier interface {
	VerifyImage(ctx context.Context, imageRef string, expect *provenance.Expectation) (*provenance.Result, error)
}

// Handler registers and serves the Docker Hub tool set.
type Handler struct {
	client   HubClient
	verifier ProvenanceVerifier
}

// NewHandler builds a Handler. verifier may be nil; the provenance tool then
// reports that verification is unavailable.
func NewHandler(client HubClient, verifier ProvenanceVerifier) *Handler {
	return &Handler{client: client, verifier: verifier}
}

// Register adds all tools to the MCP server.
func (h *Handler) Register(s *server.MCPServer) {
	s.AddTool(h.toolSearchImages(), recovered("docker_search_images", h.handleSearchImages))
	s.AddTool(h.toolGetRepository(), recovered("docker_get_repository", h.handleGetRepository))
	s.AddTool(h.toolListTags(), recovered("docker_list_tags", h.handleListTags))
	s.AddTool(h.toolGetManifest(), recovered("docker_get_manifest", h.handleGetManifest))
	s.AddTool(h.toolGetImageConfig(), recovered("docker_get_image_config", h.handleGetImageConfig))
	s.AddTool(h.toolGetVulnerabilities(), recovered("docker_get_vulnerabilities", h.handleGetVulnerabilities))
	s.AddTool(h.toolGetDockerfile(), recovered("docker_get_dockerfile", h.handleGetDockerfile))
	s.AddTool(h.toolRepositoryExists(), recovered("docker_repository_exists", h.handleRepositoryExists))
	s.AddTool(h.toolCheckCredentials(), recovered("docker_check_credentials", h.handleCheckCredentials))
	s.AddTool(h.toolVerifyProvenance(), recovered("docker_verify_provenance", h.handleVerifyProvenance))
}

// recovered wraps a tool handler so a panic in one call degrades to a tool
// error instead of killing the stdio server.
func recovered(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("tool handler panicked", "tool", name, "panic", r)
				result = mcp.NewToolResultError(fmt.Sprintf("%s failed unexpectedly", name))
				err = nil
			}
		}()
		return next(ctx, request)
	}
}

// errorResult converts a client error into a tool error result with the
// taxonomy's user-facing message.
func errorResult(err error) *mcp.CallToolResult {
	kind := httperr.KindOf(err)
	return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", kind.Message(), kind))
}
