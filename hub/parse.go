// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"strings"

	"github.com/stacklok/dockerhub-mcp/httperr"
)

// OfficialNamespace is the reserved namespace for official images. A
// single-segment repository reference like "nginx" resolves into it.
const OfficialNamespace = "library"

// Repository is a parsed repository reference.
type Repository struct {
	Namespace string
	Name      string
}

// String returns the canonical namespace/name form.
func (r Repository) String() string {
	return r.Namespace + "/" + r.Name
}

// PullScope returns the Registry v2 token scope for pulling this repository.
func (r Repository) PullScope() string {
	return "repository:" + r.String() + ":pull"
}

// ParseRepository parses a reference of the form "name" or "namespace/name".
// A bare name implies the official-images namespace. References with more
// than one slash are rejected. Parsing is total and deterministic: the same
// input always yields the same result.
func ParseRepository(ref string) (Repository, error) {
	parts := strings.Split(ref, "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return Repository{}, httperr.Validationf("invalid repository format: %q", ref)
		}
		return Repository{Namespace: OfficialNamespace, Name: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Repository{}, httperr.Validationf("invalid repository format: %q", ref)
		}
		return Repository{Namespace: parts[0], Name: parts[1]}, nil
	default:
		return Repository{}, httperr.Validationf("invalid repository format: %q", ref)
	}
}
