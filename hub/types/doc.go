// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package types defines the typed schemas for Docker Hub and Registry v2
// payloads. Upstream JSON is parsed into these types at the client boundary;
// the two Registry v2 payloads (manifest, image config) are additionally
// validated against embedded JSON Schemas, failing fast with a validation
// error on shape mismatches instead of propagating loosely-typed data.
package types
