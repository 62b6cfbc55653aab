// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/dockerhub-mcp/httperr"
)

const validManifest = `{
  "schemaVersion": 2,
  "mediaType": "application/vnd.docker.distribution.manifest.v2+json",
  "config": {
    "mediaType": "application/vnd.docker.container.image.v1+json",
    "size": 1469,
    "digest": "sha256:c059bfaa849c4d8e4aecaeb3a10c2d9b3d85f5165c66ad3a4d937758128c4d18"
  },
  "layers": [
    {
      "mediaType": "application/vnd.docker.image.rootfs.diff.tar.gzip",
      "size": 2814446,
      "digest": "sha256:59bf1c3509f33515622619af21ed55bbe26d24913cedbca106468a5fb37a50c3"
    }
  ]
}`

const validImageConfig = `{
  "architecture": "amd64",
  "os": "linux",
  "created": "2026-01-10T12:00:00Z",
  "config": {
    "Env": ["PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"],
    "Cmd": ["/bin/sh"]
  },
  "rootfs": {
    "type": "layers",
    "diff_ids": ["sha256:8d3ac3489996423f53d6087c81180006263b79f206d3fdec9e66f0e27ceb8759"]
  },
  "history": [{"created": "2026-01-10T12:00:00Z", "created_by": "/bin/sh -c #(nop) ADD file"}]
}`

func TestParseManifest_Valid(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(validManifest))
	require.NoError(t, err)
	assert.EqualValues(t, 2, m.SchemaVersion)
	assert.Equal(t, "sha256:c059bfaa849c4d8e4aecaeb3a10c2d9b3d85f5165c66ad3a4d937758128c4d18", m.Config.Digest.String())
	require.Len(t, m.Layers, 1)
	assert.EqualValues(t, 2814446, m.Layers[0].Size)
}

func TestParseManifest_OCIMediaType(t *testing.T) {
	t.Parallel()

	oci := `{
	  "schemaVersion": 2,
	  "mediaType": "application/vnd.oci.image.manifest.v1+json",
	  "config": {"mediaType": "application/vnd.oci.image.config.v1+json", "size": 10, "digest": "sha256:ab12"},
	  "layers": []
	}`
	m, err := ParseManifest([]byte(oci))
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.oci.image.manifest.v1+json", string(m.MediaType))
}

func TestParseManifest_ShapeMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"missing config", `{"schemaVersion": 2, "layers": []}`},
		{"wrong schema version", `{"schemaVersion": 1, "config": {"mediaType": "m", "size": 1, "digest": "sha256:ab"}, "layers": []}`},
		{"bad digest", `{"schemaVersion": 2, "config": {"mediaType": "m", "size": 1, "digest": "garbage"}, "layers": []}`},
		{"layers not array", `{"schemaVersion": 2, "config": {"mediaType": "m", "size": 1, "digest": "sha256:ab"}, "layers": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseManifest([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, httperr.IsKind(err, httperr.KindValidation), "got %v", err)
		})
	}
}

func TestParseManifest_RejectsUnexpectedMediaType(t *testing.T) {
	t.Parallel()

	body := `{
	  "schemaVersion": 2,
	  "mediaType": "application/vnd.docker.distribution.manifest.list.v2+json",
	  "config": {"mediaType": "m", "size": 1, "digest": "sha256:ab"},
	  "layers": []
	}`
	_, err := ParseManifest([]byte(body))
	require.Error(t, err)
	assert.True(t, httperr.IsKind(err, httperr.KindValidation))
}

func TestParseImageConfig_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := ParseImageConfig([]byte(validImageConfig))
	require.NoError(t, err)
	assert.Equal(t, "amd64", cfg.Architecture)
	assert.Equal(t, "linux", cfg.OS)
	assert.Equal(t, []string{"/bin/sh"}, cfg.Config.Cmd)
	require.Len(t, cfg.RootFS.DiffIDs, 1)
}

func TestParseImageConfig_ShapeMismatch(t *testing.T) {
	t.Parallel()

	_, err := ParseImageConfig([]byte(`{"os": "linux"}`))
	require.Error(t, err)
	assert.True(t, httperr.IsKind(err, httperr.KindValidation))
}

func TestRepositoryDetails_Validate(t *testing.T) {
	t.Parallel()

	good := &RepositoryDetails{Namespace: "library", Name: "nginx"}
	require.NoError(t, good.Validate())

	bad := &RepositoryDetails{Name: "nginx"}
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, httperr.IsKind(err, httperr.KindValidation))
}
