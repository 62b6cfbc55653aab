// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package provenance verifies image signatures and attestations against the
// sigstore public-good instance. Bundles are discovered two ways: from the
// cosign signature tag adjacent to an image, and from attestation artifacts
// reachable through the OCI referrers API.
package provenance
