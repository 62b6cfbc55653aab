// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"testing"

	"github.com/sigstore/sigstore-go/pkg/fulcio/certificate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerIdentity(t *testing.T) {
	t.Parallel()

	t.Run("no SAN", func(t *testing.T) {
		t.Parallel()
		_, err := signerIdentity(&certificate.Summary{})
		require.Error(t, err)
	})

	t.Run("non-github issuer returns SAN verbatim", func(t *testing.T) {
		t.Parallel()
		identity, err := signerIdentity(&certificate.Summary{
			SubjectAlternativeName: "user@example.com",
			Extensions: certificate.Extensions{
				Issuer: "https://accounts.google.com",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", identity)
	})

	t.Run("github issuer reduces to workflow path", func(t *testing.T) {
		t.Parallel()
		identity, err := signerIdentity(&certificate.Summary{
			SubjectAlternativeName: "https://github.com/acme/app/.github/workflows/release.yml@refs/tags/v1.0.0",
			Extensions: certificate.Extensions{
				Issuer:              githubTokenIssuer,
				SourceRepositoryURI: "https://github.com/acme/app",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "/.github/workflows/release.yml", identity)
	})

	t.Run("github issuer without source repository", func(t *testing.T) {
		t.Parallel()
		_, err := signerIdentity(&certificate.Summary{
			SubjectAlternativeName: "https://github.com/acme/app/.github/workflows/release.yml",
			Extensions: certificate.Extensions{
				Issuer: githubTokenIssuer,
			},
		})
		require.Error(t, err)
	})
}
