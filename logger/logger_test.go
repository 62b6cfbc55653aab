// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"testing"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/stacklok/dockerhub-mcp/env"
	"github.com/stacklok/dockerhub-mcp/env/mocks"
)

func TestUnstructuredLogsCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"unset defaults to unstructured", "", true},
		{"explicit true", "true", true},
		{"explicit false", "false", false},
		{"numeric false", "0", false},
		{"garbage defaults to unstructured", "not-a-bool", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockEnv := mocks.NewMockReader(ctrl)
			mockEnv.EXPECT().Getenv("DOCKERHUB_UNSTRUCTURED_LOGS").Return(tt.value)

			if got := unstructuredLogs(mockEnv); got != tt.want {
				t.Errorf("unstructuredLogs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitializeWithOptions(t *testing.T) { //nolint:paralleltest // Uses global logger state
	tests := []struct {
		name         string
		unstructured string
		debug        bool
		wantDebugOn  bool
	}{
		{"structured info", "false", false, false},
		{"structured debug", "false", true, true},
		{"unstructured info", "true", false, false},
		{"unstructured debug", "true", true, true},
	}

	for _, tt := range tests { //nolint:paralleltest // Uses global logger state
		t.Run(tt.name, func(t *testing.T) {
			reader := env.MapReader{"DOCKERHUB_UNSTRUCTURED_LOGS": tt.unstructured}
			InitializeWithOptions(reader, tt.debug)

			core := zap.L().Core()
			if got := core.Enabled(zap.DebugLevel); got != tt.wantDebugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebugOn)
			}
			if !core.Enabled(zap.InfoLevel) {
				t.Error("info level should always be enabled")
			}
		})
	}
}
