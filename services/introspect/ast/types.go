// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast wraps the tree-sitter TypeScript front end.
//
// It exposes a parsed File together with the accessor capability the
// introspector needs: declared names, source locations, JSDoc text and the
// decorator matcher that answers "is this node marked with X".
package ast

import (
	"errors"
	"fmt"
)

// Size limits for parsed files.
const (
	// DefaultMaxFileSize is the default maximum file size accepted by the parser (10MB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged before parsing (1MB).
	WarnFileSize = 1024 * 1024
)

// Sentinel errors returned by the parser.
var (
	// ErrFileTooLarge indicates the content exceeds the configured maximum size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates the content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

// Node types of the tree-sitter TypeScript grammar used across the introspector.
const (
	NodeProgram                  = "program"
	NodeExportStatement          = "export_statement"
	NodeClassDeclaration         = "class_declaration"
	NodeAbstractClassDeclaration = "abstract_class_declaration"
	NodeClass                    = "class"
	NodeClassBody                = "class_body"
	NodeEnumDeclaration          = "enum_declaration"
	NodeEnumBody                 = "enum_body"
	NodeEnumAssignment           = "enum_assignment"
	NodeDecorator                = "decorator"
	NodeComment                  = "comment"
	NodeMethodDefinition         = "method_definition"
	NodeFieldDefinition          = "public_field_definition"
	NodeFormalParameters         = "formal_parameters"
	NodeRequiredParameter        = "required_parameter"
	NodeOptionalParameter        = "optional_parameter"
	NodeRestPattern              = "rest_pattern"
	NodeTypeAnnotation           = "type_annotation"
	NodeAccessibilityModifier    = "accessibility_modifier"
	NodeString                   = "string"
	NodeStringFragment           = "string_fragment"
	NodeEscapeSequence           = "escape_sequence"
	NodeCallExpression           = "call_expression"
	NodeNewExpression            = "new_expression"
	NodeMemberExpression         = "member_expression"
	NodeArguments                = "arguments"
	NodePropertyIdentifier       = "property_identifier"
	NodeTypeIdentifier           = "type_identifier"
	NodeIdentifier               = "identifier"
)

// Location identifies a position in a source file.
//
// Line and Column are 1-indexed so they can be pasted into an editor.
type Location struct {
	FilePath string `json:"file_path" yaml:"file_path"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
}

// String renders the location as path:line:col.
func (l Location) String() string {
	if l.FilePath == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.Line, l.Column)
}

// IsZero reports whether the location was never set.
func (l Location) IsZero() bool {
	return l.FilePath == "" && l.Line == 0 && l.Column == 0
}
