// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"os"
	"testing"
)

func TestOSReader_Getenv(t *testing.T) { //nolint:paralleltest // Modifies environment variables
	testKey := "DOCKERHUB_MCP_TEST_VARIABLE"
	testValue := "some_value"

	originalValue, wasSet := os.LookupEnv(testKey)
	os.Setenv(testKey, testValue)
	t.Cleanup(func() {
		if wasSet {
			os.Setenv(testKey, originalValue)
		} else {
			os.Unsetenv(testKey)
		}
	})

	reader := &OSReader{}

	if got := reader.Getenv(testKey); got != testValue {
		t.Errorf("Getenv(%q) = %q, want %q", testKey, got, testValue)
	}
	if got := reader.Getenv("DOCKERHUB_MCP_NONEXISTENT_12345"); got != "" {
		t.Errorf("Getenv(nonexistent) = %q, want empty", got)
	}
}

func TestMapReader_Getenv(t *testing.T) {
	t.Parallel()

	reader := MapReader{"DOCKERHUB_USERNAME": "alice"}

	if got := reader.Getenv("DOCKERHUB_USERNAME"); got != "alice" {
		t.Errorf("Getenv(DOCKERHUB_USERNAME) = %q, want %q", got, "alice")
	}
	if got := reader.Getenv("DOCKERHUB_PASSWORD"); got != "" {
		t.Errorf("Getenv(absent key) = %q, want empty", got)
	}
}
