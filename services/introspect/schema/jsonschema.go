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
	"encoding/json"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/AleutianAI/introspect/services/introspect/module"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// ArgumentsSchema returns the JSON Schema of the argument map a dispatcher
// receives when fn is invoked.
//
// Description:
//
//	Every argument becomes a property. Non-optional arguments are required.
//	Literal defaults are carried as the schema default. Object arguments
//	are titled with the object name; enum arguments list their values when
//	m is non-nil.
func ArgumentsSchema(fn *scanner.Function, m *module.Module) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        "object",
		Description: fn.Description,
		Properties:  make(map[string]*jsonschema.Schema, len(fn.Arguments)),
		Required:    []string{},
	}
	for _, a := range fn.Arguments {
		prop := typeSchema(a.Type, m)
		prop.Description = a.Description
		if a.DefaultValue != "" && gojson.Valid([]byte(a.DefaultValue)) {
			prop.Default = json.RawMessage(a.DefaultValue)
		}
		s.Properties[a.Name] = prop
		if !a.IsOptional {
			s.Required = append(s.Required, a.Name)
		}
	}
	return s
}

func typeSchema(t *scanner.TypeRef, m *module.Module) *jsonschema.Schema {
	if t == nil {
		return &jsonschema.Schema{}
	}
	switch t.Kind {
	case scanner.KindString:
		return &jsonschema.Schema{Type: "string"}
	case scanner.KindInteger:
		return &jsonschema.Schema{Type: "integer"}
	case scanner.KindFloat:
		return &jsonschema.Schema{Type: "number"}
	case scanner.KindBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case scanner.KindVoid:
		return &jsonschema.Schema{Type: "null"}
	case scanner.KindList:
		return &jsonschema.Schema{Type: "array", Items: typeSchema(t.Of, m)}
	case scanner.KindEnum:
		s := &jsonschema.Schema{Type: "string", Title: t.Name}
		if m == nil {
			return s
		}
		e := m.ResolveEnum(t)
		if e == nil {
			return s
		}
		values := e.Values.Values()
		if typ, nums, ok := numericEnum(values); ok {
			s.Type = typ
			s.Enum = nums
			return s
		}
		for _, v := range values {
			s.Enum = append(s.Enum, v.Value)
		}
		return s
	default:
		return &jsonschema.Schema{Type: "object", Title: t.Name}
	}
}

// numericEnum returns the JSON type and values of an enum whose members are
// all number literals: "integer" when every value is integral, else "number".
func numericEnum(values []*scanner.EnumValue) (string, []any, bool) {
	if len(values) == 0 {
		return "", nil, false
	}
	ints := make([]any, 0, len(values))
	for _, v := range values {
		if !v.Numeric {
			return "", nil, false
		}
		n, err := strconv.ParseInt(numberText(v.Value), 0, 64)
		if err != nil {
			break
		}
		ints = append(ints, n)
	}
	if len(ints) == len(values) {
		return "integer", ints, true
	}

	floats := make([]any, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(numberText(v.Value), 64)
		if err != nil {
			return "", nil, false
		}
		floats = append(floats, f)
	}
	return "number", floats, true
}

func numberText(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), "_", "")
}
