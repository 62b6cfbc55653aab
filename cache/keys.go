// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// GenerateKey builds a deterministic cache key from an endpoint name and its
// parameters. Parameter keys are sorted lexicographically and values are
// URL-encoded, so two maps that are equal as key/value sets produce the same
// key regardless of insertion order. An empty parameter map yields the bare
// endpoint.
func GenerateKey(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// memoKey derives the cache key for a memoized call from its namespace and
// positional arguments.
func memoKey(namespace string, args []string) string {
	if len(args) == 0 {
		return namespace
	}
	params := make(map[string]string, len(args))
	for i, arg := range args {
		params[strconv.Itoa(i)] = arg
	}
	return GenerateKey(namespace, params)
}
