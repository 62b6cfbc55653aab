// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/sigstore/sigstore-go/pkg/fulcio/certificate"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/tuf"
	"github.com/sigstore/sigstore-go/pkg/verify"

	"github.com/stacklok/dockerhub-mcp/logger"
)

// trustedRootPublicGood is sigstore's public trusted root repository. It is
// the only instance supported; sigstore-go ships its root.json embedded.
const trustedRootPublicGood = "tuf-repo-cdn.sigstore.dev"

// githubTokenIssuer is the issuer stamped into fulcio certs when signing
// through GitHub Actions tokens.
//
//nolint:gosec // not an embedded credential
const githubTokenIssuer = "https://token.actions.githubusercontent.com"

// ErrNotFound is returned when an image carries no signature or attestation,
// or what it carries is too incomplete to build a verifiable bundle.
var ErrNotFound = errors.New("provenance not found or incomplete")

// Expectation pins the provenance an image is required to carry. Empty
// fields are not checked.
type Expectation struct {
	RepositoryURI     string `json:"repository_uri,omitempty"`
	RepositoryRef     string `json:"repository_ref,omitempty"`
	SignerIdentity    string `json:"signer_identity,omitempty"`
	RunnerEnvironment string `json:"runner_environment,omitempty"`
	CertIssuer        string `json:"cert_issuer,omitempty"`
}

// Result reports what verification found. IsSigned means some signature or
// attestation material exists; IsVerified means at least one bundle verified
// against the trusted root and every verified bundle matched the
// expectation.
type Result struct {
	IsSigned   bool   `json:"is_signed"`
	IsVerified bool   `json:"is_verified"`
	Signer     string `json:"signer,omitempty"`
	Issuer     string `json:"issuer,omitempty"`
}

// Verifier verifies image provenance against the sigstore public-good
// instance. Safe for concurrent use.
type Verifier struct {
	verifier *verify.Verifier
	keychain authn.Keychain
}

// New builds a Verifier. The trusted root material is fetched via TUF at
// construction time, so New performs network I/O.
func New(keychain authn.Keychain) (*Verifier, error) {
	tufOpts := tuf.DefaultOptions()
	tufOpts.DisableLocalCache = true
	tufOpts.RepositoryBaseURL = "https://" + trustedRootPublicGood

	trustedMaterial, err := root.FetchTrustedRootWithOptions(tufOpts)
	if err != nil {
		return nil, fmt.Errorf("fetching sigstore trusted root: %w", err)
	}

	sev, err := verify.NewVerifier(trustedMaterial,
		verify.WithSignedCertificateTimestamps(1),
		verify.WithTransparencyLog(1),
		verify.WithObserverTimestamps(1),
	)
	if err != nil {
		return nil, fmt.Errorf("building sigstore verifier: %w", err)
	}

	if keychain == nil {
		keychain = authn.DefaultKeychain
	}
	return &Verifier{verifier: sev, keychain: keychain}, nil
}

// VerifyImage verifies the provenance of an image reference like
// "docker.io/library/nginx:latest". An unsigned image is a valid answer,
// not an error. Registry I/O is bounded by ctx.
func (v *Verifier) VerifyImage(ctx context.Context, imageRef string, expect *Expectation) (*Result, error) {
	bundles, err := v.collectBundles(ctx, imageRef)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if len(bundles) == 0 {
		return &Result{}, nil
	}

	result := &Result{IsSigned: true}
	verified := 0
	for _, b := range bundles {
		vr, err := v.verifier.Verify(b.bundle, verify.NewPolicy(
			verify.WithArtifactDigest(b.digestAlgo, b.digestBytes),
			verify.WithoutIdentitiesUnsafe(),
		))
		if err != nil {
			logger.Debugw("bundle verification failed", "image", imageRef, "error", err)
			continue
		}
		if expect != nil && !matchesExpectation(vr, expect) {
			return result, nil
		}
		if vr.Signature != nil && vr.Signature.Certificate != nil {
			if identity, err := signerIdentity(vr.Signature.Certificate); err == nil {
				result.Signer = identity
			}
			result.Issuer = vr.Signature.Certificate.Issuer
		}
		verified++
	}

	result.IsVerified = verified > 0
	return result, nil
}

// collectBundles gathers verification bundles for an image, first from a
// cosign signature tag, then from referrer attestations.
func (v *Verifier) collectBundles(ctx context.Context, imageRef string) ([]sigstoreBundle, error) {
	bundles, err := bundlesFromSignedImage(ctx, imageRef, v.keychain)
	if errors.Is(err, ErrNotFound) {
		return bundlesFromAttestations(ctx, imageRef, v.keychain)
	}
	return bundles, err
}

func matchesExpectation(vr *verify.VerificationResult, expect *Expectation) bool {
	if vr == nil || vr.Signature == nil || vr.Signature.Certificate == nil {
		return false
	}
	cert := vr.Signature.Certificate

	if expect.RepositoryURI != "" && expect.RepositoryURI != cert.SourceRepositoryURI {
		return false
	}
	if expect.RepositoryRef != "" && expect.RepositoryRef != cert.SourceRepositoryRef {
		return false
	}
	if expect.RunnerEnvironment != "" && expect.RunnerEnvironment != cert.RunnerEnvironment {
		return false
	}
	if expect.CertIssuer != "" && expect.CertIssuer != cert.Issuer {
		return false
	}
	if expect.SignerIdentity != "" {
		identity, err := signerIdentity(cert)
		if err != nil || expect.SignerIdentity != identity {
			return false
		}
	}
	return true
}

// signerIdentity extracts the signer identity from a fulcio certificate.
// For certs issued through GitHub Actions tokens the identity is reduced to
// the workflow path, so expectations generalize across repositories.
func signerIdentity(cert *certificate.Summary) (string, error) {
	if cert.SubjectAlternativeName == "" {
		return "", errors.New("certificate has no signer identity in SAN")
	}
	identity := cert.SubjectAlternativeName

	if cert.Issuer != githubTokenIssuer {
		return identity, nil
	}
	if cert.SourceRepositoryURI == "" {
		return "", errors.New("certificate has no source repository extension")
	}
	identity, _, _ = strings.Cut(identity, "@")
	return strings.TrimPrefix(identity, cert.SourceRepositoryURI), nil
}
