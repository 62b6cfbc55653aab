// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHeaderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{name: "simple", header: "Accept", wantErr: false},
		{name: "custom", header: "X-Custom-Header", wantErr: false},
		{name: "empty", header: "", wantErr: true},
		{name: "crlf injection", header: "Evil\r\nInjected", wantErr: true},
		{name: "space", header: "Bad Name", wantErr: true},
		{name: "too long", header: strings.Repeat("a", 257), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateHeaderName(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHeaderValue(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHeaderValue("application/json"))
	assert.NoError(t, ValidateHeaderValue(""))
	assert.Error(t, ValidateHeaderValue("bad\r\nvalue"))
	assert.Error(t, ValidateHeaderValue("null\x00byte"))
	assert.Error(t, ValidateHeaderValue(strings.Repeat("v", 8193)))
}

func TestValidateHeaders(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHeaders(map[string]string{
		"Accept":       "application/json",
		"X-Request-ID": "abc-123",
	}))
	err := ValidateHeaders(map[string]string{"Bad Name": "v"})
	assert.Error(t, err)
	err = ValidateHeaders(map[string]string{"Good-Name": "bad\nvalue"})
	assert.ErrorContains(t, err, "Good-Name")
}

func TestValidateRegistryURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://registry.example.com/v2/", wantErr: false},
		{name: "http", url: "http://127.0.0.1:5000/v2/", wantErr: false},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "registry.example.com/v2/", wantErr: true},
		{name: "wrong scheme", url: "ftp://registry.example.com/", wantErr: true},
		{name: "fragment", url: "https://registry.example.com/v2/#frag", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateRegistryURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
