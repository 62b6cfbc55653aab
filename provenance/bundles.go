// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package provenance

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	protobundle "github.com/sigstore/protobuf-specs/gen/pb-go/bundle/v1"
	protocommon "github.com/sigstore/protobuf-specs/gen/pb-go/common/v1"
	protorekor "github.com/sigstore/protobuf-specs/gen/pb-go/rekor/v1"
	"github.com/sigstore/sigstore-go/pkg/bundle"

	"github.com/stacklok/dockerhub-mcp/logger"
)

const (
	bundleMediaType01    = "application/vnd.dev.sigstore.bundle+json;version=0.1"
	simpleSigningType    = "application/vnd.dev.cosign.simplesigning.v1+json"
	certificateAnnot     = "dev.sigstore.cosign/certificate"
	rekorBundleAnnot     = "dev.sigstore.cosign/bundle"
	signatureAnnot       = "dev.cosignproject.cosign/signature"
	maxAttestationsBytes = int64(10 << 20)
)

// sigstoreBundle pairs a verification bundle with the digest it signs.
type sigstoreBundle struct {
	bundle      *bundle.Bundle
	digestBytes []byte
	digestAlgo  string
}

// bundlesFromSignedImage builds bundles from a cosign-style signature tag
// (sha256-<hex>.sig) adjacent to the image.
func bundlesFromSignedImage(ctx context.Context, imageRef string, keychain authn.Keychain) ([]sigstoreBundle, error) {
	sigRef, err := signatureReference(ctx, imageRef, keychain)
	if err != nil {
		return nil, fmt.Errorf("resolving signature reference: %w", err)
	}

	layers, err := simpleSigningLayers(ctx, sigRef, keychain)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, err)
	}

	var bundles []sigstoreBundle
	for _, layer := range layers {
		b, err := bundleFromSigningLayer(layer)
		if err != nil {
			logger.Debugw("skipping simple signing layer", "error", err)
			continue
		}
		bundles = append(bundles, b)
	}
	if len(bundles) == 0 {
		return nil, ErrNotFound
	}
	return bundles, nil
}

// signatureReference computes the cosign signature tag for an image.
func signatureReference(ctx context.Context, imageRef string, keychain authn.Keychain) (string, error) {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return "", fmt.Errorf("parsing image reference: %w", err)
	}
	desc, err := remote.Get(ref, remote.WithContext(ctx), remote.WithAuthFromKeychain(keychain))
	if err != nil {
		return "", fmt.Errorf("getting image descriptor: %w", err)
	}

	digest := ref.Context().Digest(desc.Digest.String())
	h, err := v1.NewHash(digest.Identifier())
	if err != nil {
		return "", fmt.Errorf("parsing image digest: %w", err)
	}
	sigTag := digest.Context().Tag(fmt.Sprint(h.Algorithm, "-", h.Hex, ".sig"))
	return sigTag.Name(), nil
}

// simpleSigningLayers extracts the simple-signing layers from a signature
// manifest.
func simpleSigningLayers(ctx context.Context, manifestRef string, keychain authn.Keychain) ([]v1.Descriptor, error) {
	raw, err := crane.Manifest(manifestRef, crane.WithContext(ctx), crane.WithAuthFromKeychain(keychain))
	if err != nil {
		return nil, fmt.Errorf("getting signature manifest: %w", err)
	}

	manifest, err := v1.ParseManifest(io.LimitReader(bytes.NewReader(raw), maxAttestationsBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing signature manifest: %w", err)
	}

	var layers []v1.Descriptor
	for _, layer := range manifest.Layers {
		if layer.MediaType == simpleSigningType {
			layers = append(layers, layer)
		}
	}
	return layers, nil
}

// bundleFromSigningLayer assembles a protobuf bundle from one simple-signing
// layer's annotations.
func bundleFromSigningLayer(layer v1.Descriptor) (sigstoreBundle, error) {
	material, err := verificationMaterial(layer)
	if err != nil {
		return sigstoreBundle{}, fmt.Errorf("building verification material: %w", err)
	}
	signature, err := messageSignature(layer)
	if err != nil {
		return sigstoreBundle{}, fmt.Errorf("building message signature: %w", err)
	}

	bun, err := bundle.NewBundle(&protobundle.Bundle{
		MediaType:            bundleMediaType01,
		VerificationMaterial: material,
		Content:              signature,
	})
	if err != nil {
		return sigstoreBundle{}, fmt.Errorf("assembling bundle: %w", err)
	}

	digestBytes, err := hex.DecodeString(layer.Digest.Hex)
	if err != nil {
		return sigstoreBundle{}, fmt.Errorf("decoding layer digest: %w", err)
	}
	return sigstoreBundle{
		bundle:      bun,
		digestAlgo:  layer.Digest.Algorithm,
		digestBytes: digestBytes,
	}, nil
}

func verificationMaterial(layer v1.Descriptor) (*protobundle.VerificationMaterial, error) {
	block, _ := pem.Decode([]byte(layer.Annotations[certificateAnnot]))
	if block == nil {
		return nil, errors.New("no PEM certificate in signing layer")
	}

	tlogEntries, err := tlogEntriesFromAnnotation(layer.Annotations[rekorBundleAnnot])
	if err != nil {
		return nil, fmt.Errorf("extracting tlog entries: %w", err)
	}

	return &protobundle.VerificationMaterial{
		Content: &protobundle.VerificationMaterial_X509CertificateChain{
			X509CertificateChain: &protocommon.X509CertificateChain{
				Certificates: []*protocommon.X509Certificate{{RawBytes: block.Bytes}},
			},
		},
		TlogEntries: tlogEntries,
	}, nil
}

// tlogEntriesFromAnnotation rebuilds the transparency log entry from
// cosign's rekor bundle annotation.
func tlogEntriesFromAnnotation(raw string) ([]*protorekor.TransparencyLogEntry, error) {
	var annotated struct {
		SignedEntryTimestamp string `json:"SignedEntryTimestamp"`
		Payload              struct {
			LogIndex       int64  `json:"logIndex"`
			LogID          string `json:"logID"`
			IntegratedTime int64  `json:"integratedTime"`
			Body           string `json:"body"`
		} `json:"Payload"`
	}
	if err := json.Unmarshal([]byte(raw), &annotated); err != nil {
		return nil, fmt.Errorf("unmarshaling rekor bundle: %w", err)
	}

	logID, err := hex.DecodeString(annotated.Payload.LogID)
	if err != nil {
		return nil, fmt.Errorf("decoding log ID: %w", err)
	}
	set, err := base64.StdEncoding.DecodeString(annotated.SignedEntryTimestamp)
	if err != nil {
		return nil, fmt.Errorf("decoding signed entry timestamp: %w", err)
	}
	body, err := base64.StdEncoding.DecodeString(annotated.Payload.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding entry body: %w", err)
	}

	var entry struct {
		APIVersion string `json:"apiVersion"`
		Kind       string `json:"kind"`
	}
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling entry body: %w", err)
	}

	return []*protorekor.TransparencyLogEntry{{
		LogIndex: annotated.Payload.LogIndex,
		LogId:    &protocommon.LogId{KeyId: logID},
		KindVersion: &protorekor.KindVersion{
			Kind:    entry.Kind,
			Version: entry.APIVersion,
		},
		IntegratedTime: annotated.Payload.IntegratedTime,
		InclusionPromise: &protorekor.InclusionPromise{
			SignedEntryTimestamp: set,
		},
		CanonicalizedBody: body,
	}}, nil
}

func messageSignature(layer v1.Descriptor) (*protobundle.Bundle_MessageSignature, error) {
	if layer.Digest.Algorithm != "sha256" {
		return nil, fmt.Errorf("unsupported digest algorithm: %s", layer.Digest.Algorithm)
	}
	digest, err := hex.DecodeString(layer.Digest.Hex)
	if err != nil {
		return nil, fmt.Errorf("decoding digest: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(layer.Annotations[signatureAnnot])
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}

	return &protobundle.Bundle_MessageSignature{
		MessageSignature: &protocommon.MessageSignature{
			MessageDigest: &protocommon.HashOutput{
				Algorithm: protocommon.HashAlgorithm_SHA2_256,
				Digest:    digest,
			},
			Signature: sig,
		},
	}, nil
}
