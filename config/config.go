// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config resolves server configuration from an optional YAML file
// and the process environment. Environment variables win over the file so
// credentials can be injected without touching disk.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/dockerhub-mcp/auth"
	"github.com/stacklok/dockerhub-mcp/env"
)

// Environment variables consulted by Load.
const (
	EnvUsername    = "DOCKERHUB_USERNAME"
	EnvPassword    = "DOCKERHUB_PASSWORD" //nolint:gosec // variable name, not a credential
	EnvAccessToken = "DOCKERHUB_ACCESS_TOKEN"
	EnvConfigPath  = "DOCKERHUB_MCP_CONFIG"
)

const (
	defaultRateLimit  = 180
	defaultRateWindow = 6 * time.Hour
	defaultCacheTTL   = 5 * time.Minute
	defaultCacheKeys  = 1000
)

// Config is the resolved server configuration.
type Config struct {
	Credentials auth.Credentials `yaml:"-"`

	HubBaseURL      string `yaml:"hub_base_url,omitempty"`
	RegistryBaseURL string `yaml:"registry_base_url,omitempty"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
}

// RateLimitConfig bounds outbound request volume. The defaults mirror
// Docker Hub's anonymous pull allowance.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

// CacheConfig bounds the response cache.
type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	MaxKeys int           `yaml:"max_keys"`
}

// duration parses YAML durations written as strings like "1h30m".
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", node.Value, err)
	}
	*d = duration(parsed)
	return nil
}

// fileConfig is the YAML document shape, credentials included. Credentials
// are kept off the main Config's YAML mapping so the resolved struct never
// round-trips secrets to disk.
type fileConfig struct {
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	AccessToken string `yaml:"access_token,omitempty"`

	HubBaseURL      string `yaml:"hub_base_url,omitempty"`
	RegistryBaseURL string `yaml:"registry_base_url,omitempty"`

	RateLimit struct {
		MaxRequests int      `yaml:"max_requests"`
		Window      duration `yaml:"window"`
	} `yaml:"rate_limit"`
	Cache struct {
		TTL     duration `yaml:"ttl"`
		MaxKeys int      `yaml:"max_keys"`
	} `yaml:"cache"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		RateLimit: RateLimitConfig{MaxRequests: defaultRateLimit, Window: defaultRateWindow},
		Cache:     CacheConfig{TTL: defaultCacheTTL, MaxKeys: defaultCacheKeys},
	}
}

// DefaultPath returns the XDG location of the config file.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "dockerhub-mcp", "config.yaml")
}

// Load resolves configuration: defaults, then the YAML file if it exists,
// then environment variables. A missing file is fine; an unreadable or
// malformed one is an error.
func Load(envReader env.Reader) (*Config, error) {
	cfg := Default()

	path := envReader.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultPath()
	}
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}

	if v := envReader.Getenv(EnvUsername); v != "" {
		cfg.Credentials.Username = v
	}
	if v := envReader.Getenv(EnvPassword); v != "" {
		cfg.Credentials.Password = v
	}
	if v := envReader.Getenv(EnvAccessToken); v != "" {
		cfg.Credentials.AccessToken = v
	}

	return cfg, cfg.validate()
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	c.Credentials.Username = fc.Username
	c.Credentials.Password = fc.Password
	c.Credentials.AccessToken = fc.AccessToken
	if fc.HubBaseURL != "" {
		c.HubBaseURL = fc.HubBaseURL
	}
	if fc.RegistryBaseURL != "" {
		c.RegistryBaseURL = fc.RegistryBaseURL
	}
	if fc.RateLimit.MaxRequests > 0 {
		c.RateLimit.MaxRequests = fc.RateLimit.MaxRequests
	}
	if fc.RateLimit.Window > 0 {
		c.RateLimit.Window = time.Duration(fc.RateLimit.Window)
	}
	if fc.Cache.TTL > 0 {
		c.Cache.TTL = time.Duration(fc.Cache.TTL)
	}
	if fc.Cache.MaxKeys > 0 {
		c.Cache.MaxKeys = fc.Cache.MaxKeys
	}
	return nil
}

func (c *Config) validate() error {
	if c.Credentials.Username != "" && c.Credentials.Password == "" {
		return fmt.Errorf("%s is set but %s is empty", EnvUsername, EnvPassword)
	}
	if c.Credentials.Password != "" && c.Credentials.Username == "" {
		return fmt.Errorf("%s is set but %s is empty", EnvPassword, EnvUsername)
	}
	return nil
}
