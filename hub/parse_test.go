// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/dockerhub-mcp/httperr"
)

func TestParseRepository(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		input         string
		wantNamespace string
		wantName      string
		wantErr       bool
	}{
		{name: "official image gets library namespace", input: "nginx", wantNamespace: "library", wantName: "nginx"},
		{name: "namespaced image", input: "grafana/grafana", wantNamespace: "grafana", wantName: "grafana"},
		{name: "empty", input: "", wantErr: true},
		{name: "too many segments", input: "a/b/c", wantErr: true},
		{name: "blank segment", input: "grafana/", wantErr: true},
		{name: "leading slash", input: "/nginx", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, err := ParseRepository(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, httperr.IsKind(err, httperr.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNamespace, repo.Namespace)
			assert.Equal(t, tt.wantName, repo.Name)
		})
	}
}

func TestRepositoryString(t *testing.T) {
	t.Parallel()

	repo, err := ParseRepository("nginx")
	require.NoError(t, err)
	assert.Equal(t, "library/nginx", repo.String())
	assert.Equal(t, "repository:library/nginx:pull", repo.PullScope())
}
