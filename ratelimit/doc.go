// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ratelimit implements a fixed-window request limiter for registry
// calls. Each logical key tracks its own window; Docker Hub's rate-limit
// response headers feed back into the limiter so local counting converges on
// the server's authoritative state instead of drifting. Callers can fail fast
// on exhaustion or wait for the window to reset.
package ratelimit
