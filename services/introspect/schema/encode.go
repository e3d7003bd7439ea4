// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"bytes"
	"context"
	"fmt"

	gojson "github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// MarshalJSON encodes v as JSON, indented with two spaces when indent is set.
func MarshalJSON(v any, indent bool) ([]byte, error) {
	if indent {
		return gojson.MarshalIndent(v, "", "  ")
	}
	return gojson.Marshal(v)
}

// MarshalYAML encodes v as YAML with two-space indentation.
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode renders a module in the given format.
func Encode(ctx context.Context, m *Module, format Format, indent bool) ([]byte, error) {
	_, span := otel.Tracer("introspect.schema").Start(ctx, "schema.Encode")
	defer span.End()
	span.SetAttributes(
		attribute.String("format", string(format)),
		attribute.Int("objects", m.Objects.Len()),
	)

	switch format {
	case FormatJSON, "":
		return MarshalJSON(m, indent)
	case FormatYAML:
		return MarshalYAML(m)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
