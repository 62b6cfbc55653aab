// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package httperr provides the normalized error taxonomy for Docker Hub and
// Registry v2 calls. Raw transport and HTTP errors are converted into a small
// set of kinds (network, authentication, forbidden, not_found, rate_limit,
// server, validation, unknown) before they leave the hub client, so callers
// branch on classification rather than status codes, and user-facing layers
// can map kinds to short messages without leaking response bodies.
package httperr
