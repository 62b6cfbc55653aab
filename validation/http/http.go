// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package http validates caller-supplied HTTP headers and registry URLs
// before they are forwarded to an upstream registry.
package http

import (
	"fmt"
	"net/url"

	"golang.org/x/net/http/httpguts"
)

const (
	maxHeaderNameLen  = 256
	maxHeaderValueLen = 8192
)

// ValidateHeaderName checks that a string is a legal RFC 7230 header name.
// It rejects CRLF injection, control characters, and non-token bytes.
func ValidateHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("header name cannot be empty")
	}
	if len(name) > maxHeaderNameLen {
		return fmt.Errorf("header name exceeds maximum length of %d bytes", maxHeaderNameLen)
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("invalid HTTP header name %q", name)
	}
	return nil
}

// ValidateHeaderValue checks that a string is a legal RFC 7230 header value.
func ValidateHeaderValue(value string) error {
	if len(value) > maxHeaderValueLen {
		return fmt.Errorf("header value exceeds maximum length of %d bytes", maxHeaderValueLen)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("invalid HTTP header value: contains control characters")
	}
	return nil
}

// ValidateHeaders validates every entry of a caller-supplied header map.
func ValidateHeaders(headers map[string]string) error {
	for name, value := range headers {
		if err := ValidateHeaderName(name); err != nil {
			return err
		}
		if err := ValidateHeaderValue(value); err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
	}
	return nil
}

// ValidateRegistryURL checks that a registry request URL is absolute,
// carries an http or https scheme and a host, and has no fragment.
func ValidateRegistryURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("registry URL cannot be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid registry URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("registry URL must use http or https: %s", rawURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("registry URL must include a host: %s", rawURL)
	}
	if parsed.Fragment != "" {
		return fmt.Errorf("registry URL must not contain fragments: %s", rawURL)
	}
	return nil
}
