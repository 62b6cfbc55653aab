// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/stacklok/dockerhub-mcp/httperr"
)

//go:embed data/manifest.schema.json data/image-config.schema.json
var embeddedSchemaFS embed.FS

// validateAgainstSchema validates raw JSON bytes against an embedded schema.
// Schema violations come back as a single validation error listing every
// failed constraint.
func validateAgainstSchema(data []byte, schemaPath, errPrefix string) error {
	schemaBytes, err := embeddedSchemaFS.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read embedded schema %s: %w", schemaPath, err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return httperr.Wrap(httperr.KindValidation, errPrefix, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return httperr.Validationf("%s: %s", errPrefix, strings.Join(details, "; "))
	}

	return nil
}
