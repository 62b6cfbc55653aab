// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"encoding/json"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	ggcrtypes "github.com/google/go-containerregistry/pkg/v1/types"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/stacklok/dockerhub-mcp/httperr"
)

// Manifest is a Registry v2 image manifest. The go-containerregistry schema
// covers both the Docker schema 2 and OCI forms.
type Manifest = v1.Manifest

// ImageConfig is a Registry v2 image config blob (architecture, entrypoint,
// env, layer history).
type ImageConfig = v1.ConfigFile

// Media types this client sends and accepts on the Registry v2 API.
const (
	// MediaTypeManifestV2 is the Docker schema 2 manifest media type pinned
	// in the Accept header of manifest requests.
	MediaTypeManifestV2 = string(ggcrtypes.DockerManifestSchema2)

	// MediaTypeImageConfigV1 is the Docker image config media type pinned in
	// the Accept header of config blob requests.
	MediaTypeImageConfigV1 = string(ggcrtypes.DockerConfigJSON)
)

// manifestMediaTypes are the media types ParseManifest accepts in a manifest
// body. Docker Hub serves the Docker form for most images but OCI-built
// images come back with OCI media types.
var manifestMediaTypes = map[string]bool{
	MediaTypeManifestV2:            true,
	ocispec.MediaTypeImageManifest: true,
}

// ParseManifest validates and decodes a Registry v2 manifest body.
// Shape mismatches fail with a validation error rather than propagating a
// loosely-typed payload.
func ParseManifest(data []byte) (*Manifest, error) {
	if err := validateAgainstSchema(data, "data/manifest.schema.json", "manifest schema validation failed"); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, "decoding manifest", err)
	}
	if mt := string(m.MediaType); mt != "" && !manifestMediaTypes[mt] {
		return nil, httperr.Validationf("unexpected manifest media type %q", mt)
	}
	return &m, nil
}

// ParseImageConfig validates and decodes a Registry v2 image config blob.
func ParseImageConfig(data []byte) (*ImageConfig, error) {
	if err := validateAgainstSchema(data, "data/image-config.schema.json", "image config schema validation failed"); err != nil {
		return nil, err
	}

	var cfg ImageConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, "decoding image config", err)
	}
	return &cfg, nil
}
