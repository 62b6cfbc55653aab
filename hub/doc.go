// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package hub is the read-only client for the Docker Hub metadata API and
// the Registry v2 API. It composes the cache, rate limiter, and auth
// manager into one pipeline: every operation checks the cache, acquires a
// token, gates the HTTP call through the limiter, normalizes failures into
// the shared error taxonomy, and caches successful payloads under a
// deterministic key.
package hub
