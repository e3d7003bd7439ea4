// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scanner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/introspect/services/introspect/ast"
)

// Fatal error kinds. Match with errors.Is.
var (
	// ErrMissingName is raised for an exposed declaration without an identifier.
	ErrMissingName = errors.New("missing name")

	// ErrNotExposed is raised when a class is used by the module but lacks the object marker.
	ErrNotExposed = errors.New("not exposed")

	// ErrUnresolvableType is raised when a type cannot be matched to a scalar, object or enum.
	ErrUnresolvableType = errors.New("unresolvable type")

	// ErrDuplicateMember is raised for name collisions the caller chose to treat as fatal.
	ErrDuplicateMember = errors.New("duplicate member")
)

// IntrospectionError is a fatal introspection failure tied to a declaration.
//
// Description:
//
//	Kind is one of the sentinel errors above and is returned by Unwrap, so
//	errors.Is(err, ErrUnresolvableType) works through any wrapping. Location
//	points at the offending declaration.
type IntrospectionError struct {
	Kind       error
	Name       string
	Location   ast.Location
	Detail     string
	Suggestion string
}

func newError(kind error, name string, loc ast.Location, format string, args ...any) *IntrospectionError {
	return &IntrospectionError{
		Kind:     kind,
		Name:     name,
		Location: loc,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *IntrospectionError) Error() string {
	var b strings.Builder
	if !e.Location.IsZero() {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

// Unwrap returns the error kind for errors.Is/As.
func (e *IntrospectionError) Unwrap() error {
	return e.Kind
}

// WarningKind classifies non-fatal diagnostics.
type WarningKind string

const (
	// WarnMissingExport flags an exposed class that is not exported from its source file.
	WarnMissingExport WarningKind = "missing_export"

	// WarnDuplicateMember flags two members collapsing to the same external name.
	WarnDuplicateMember WarningKind = "duplicate_member"
)

// Warning is a non-fatal diagnostic. Construction always proceeds.
type Warning struct {
	Kind     WarningKind  `json:"kind" yaml:"kind"`
	Name     string       `json:"name" yaml:"name"`
	Location ast.Location `json:"location" yaml:"location"`
	Message  string       `json:"message" yaml:"message"`
}

// String renders the warning like a compiler diagnostic.
func (w Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Location, w.Message)
}
