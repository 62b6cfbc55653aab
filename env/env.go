// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package env provides an indirection over environment variable access so that
// credential and logging configuration can be injected in tests.
package env

//go:generate mockgen -source=env.go -destination=mocks/mock_reader.go -package=mocks Reader

import "os"

// Reader defines an interface for environment variable access.
type Reader interface {
	Getenv(key string) string
}

// OSReader implements Reader using the standard os package.
type OSReader struct{}

// Getenv returns the value of the environment variable named by the key.
func (*OSReader) Getenv(key string) string {
	return os.Getenv(key)
}

// MapReader implements Reader from a fixed map. Intended for tests and for
// callers that resolve configuration from a source other than the process
// environment.
type MapReader map[string]string

// Getenv returns the mapped value, or the empty string when the key is absent.
func (m MapReader) Getenv(key string) string {
	return m[key]
}
