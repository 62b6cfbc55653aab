// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	containerdigest "github.com/opencontainers/go-digest"
	"github.com/sigstore/sigstore-go/pkg/bundle"

	"github.com/stacklok/dockerhub-mcp/logger"
)

const attestationArtifactPrefix = "application/vnd.dev.sigstore.bundle"

// bundlesFromAttestations discovers attestation bundles through the OCI
// referrers API. Attestations are stored as OCI artifacts whose first layer
// is the serialized bundle.
func bundlesFromAttestations(ctx context.Context, imageRef string, keychain authn.Keychain) ([]sigstoreBundle, error) {
	opts := []remote.Option{remote.WithContext(ctx), remote.WithAuthFromKeychain(keychain)}

	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return nil, fmt.Errorf("parsing image reference: %w", err)
	}
	desc, err := remote.Get(ref, opts...)
	if err != nil {
		return nil, fmt.Errorf("getting image descriptor: %w", err)
	}

	digest := ref.Context().Digest(desc.Digest.String())
	digestBytes, err := hex.DecodeString(desc.Digest.Hex)
	if err != nil {
		return nil, fmt.Errorf("decoding image digest: %w", err)
	}

	referrers, err := remote.Referrers(digest, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing referrers: %s", ErrNotFound, err)
	}
	refManifest, err := referrers.IndexManifest()
	if err != nil {
		return nil, fmt.Errorf("%w: reading referrers index: %s", ErrNotFound, err)
	}

	var bundles []sigstoreBundle
	for _, refDesc := range refManifest.Manifests {
		if !strings.HasPrefix(refDesc.ArtifactType, attestationArtifactPrefix) {
			continue
		}
		b, err := bundleFromReferrer(ref, refDesc.Digest.String(), opts)
		if err != nil {
			logger.Debugw("skipping attestation referrer", "image", imageRef, "error", err)
			continue
		}
		bundles = append(bundles, sigstoreBundle{
			bundle:      b,
			digestBytes: digestBytes,
			digestAlgo:  containerdigest.Canonical.String(),
		})
	}
	if len(bundles) == 0 {
		return nil, ErrNotFound
	}
	return bundles, nil
}

// bundleFromReferrer reads the bundle out of one attestation artifact.
func bundleFromReferrer(ref name.Reference, digest string, opts []remote.Option) (*bundle.Bundle, error) {
	img, err := remote.Image(ref.Context().Digest(digest), opts...)
	if err != nil {
		return nil, fmt.Errorf("getting referrer image: %w", err)
	}
	layers, err := img.Layers()
	if err != nil {
		return nil, fmt.Errorf("getting referrer layers: %w", err)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("referrer artifact has no layers")
	}

	layer, err := layers[0].Uncompressed()
	if err != nil {
		return nil, fmt.Errorf("reading referrer layer: %w", err)
	}
	defer layer.Close()

	raw, err := io.ReadAll(io.LimitReader(layer, maxAttestationsBytes))
	if err != nil {
		return nil, fmt.Errorf("reading bundle bytes: %w", err)
	}

	b := &bundle.Bundle{}
	if err := b.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("unmarshaling bundle: %w", err)
	}
	return b, nil
}
