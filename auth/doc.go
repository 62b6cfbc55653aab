// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package auth manages bearer tokens for Docker Hub and third-party
// registries. Tokens are requested from the registry's token service with
// HTTP Basic credentials, cached per (registry, scope) until they expire, and
// re-acquired on demand. Third-party token endpoints are discovered from the
// WWW-Authenticate challenge on the registry's /v2/ probe, with a
// convention-based guess as fallback. Broken default-registry credentials
// degrade to anonymous access instead of failing public-image reads.
package auth
