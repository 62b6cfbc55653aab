// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// dockerhub-mcp is an MCP server exposing read-only Docker Hub tools over
// stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/stacklok/dockerhub-mcp/auth"
	"github.com/stacklok/dockerhub-mcp/cache"
	"github.com/stacklok/dockerhub-mcp/config"
	"github.com/stacklok/dockerhub-mcp/env"
	"github.com/stacklok/dockerhub-mcp/hub"
	"github.com/stacklok/dockerhub-mcp/logger"
	"github.com/stacklok/dockerhub-mcp/provenance"
	"github.com/stacklok/dockerhub-mcp/ratelimit"
	"github.com/stacklok/dockerhub-mcp/tools"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		debug            bool
		enableProvenance bool
	)

	cmd := &cobra.Command{
		Use:   "dockerhub-mcp",
		Short: "MCP server for Docker Hub image metadata",
		Long: "dockerhub-mcp serves read-only Docker Hub tools over the Model Context " +
			"Protocol on stdio: image search, repository metadata, tags, manifests, " +
			"image configs, vulnerability reports, and provenance verification.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			return serve(debug, enableProvenance)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&enableProvenance, "provenance", true,
		"Enable the provenance verification tool (fetches the sigstore trusted root at startup)")
	return cmd
}

func serve(debug, enableProvenance bool) error {
	envReader := &env.OSReader{}
	// Logs go to stderr; stdout carries the MCP protocol.
	logger.InitializeWithOptions(envReader, debug)

	cfg, err := config.Load(envReader)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	apiCache := cache.New(
		cache.WithDefaultTTL(cfg.Cache.TTL),
		cache.WithMaxKeys(cfg.Cache.MaxKeys),
	)
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	authMgr := auth.NewManager(cfg.Credentials)

	var clientOpts []hub.Option
	if cfg.HubBaseURL != "" || cfg.RegistryBaseURL != "" {
		hubURL, registryURL := cfg.HubBaseURL, cfg.RegistryBaseURL
		if hubURL == "" {
			hubURL = hub.DefaultHubBaseURL
		}
		if registryURL == "" {
			registryURL = hub.DefaultRegistryBaseURL
		}
		clientOpts = append(clientOpts, hub.WithBaseURLs(hubURL, registryURL))
	}
	client := hub.New(apiCache, limiter, authMgr, clientOpts...)

	var verifier tools.ProvenanceVerifier
	if enableProvenance {
		v, err := provenance.New(nil)
		if err != nil {
			logger.Warnw("provenance verification disabled", "error", err)
		} else {
			verifier = v
		}
	}

	mcpServer := server.NewMCPServer(
		"Docker Hub MCP Server",
		version,
		server.WithToolCapabilities(true),
	)
	tools.NewHandler(client, verifier).Register(mcpServer)

	hasCreds := cfg.Credentials.Username != "" || cfg.Credentials.AccessToken != ""
	logger.Infow("serving MCP over stdio", "version", version, "authenticated", hasCreds)
	return server.ServeStdio(mcpServer)
}
