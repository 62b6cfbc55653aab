// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cache provides a bounded in-memory TTL cache for registry API
// responses. Keys are generated deterministically from an endpoint name and a
// parameter map, so repeated requests for the same data hit the cache
// regardless of how callers ordered their parameters. Expiry is checked
// lazily on every read; an optional Sweep can purge proactively but
// correctness never depends on it.
package cache
