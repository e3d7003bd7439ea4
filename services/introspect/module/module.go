// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package module turns the exposed declarations of a set of files into a
// closed, resolved type graph.
//
// Description:
//
//	Building is a strict two-phase protocol. Every object-marked class in
//	every file is built first. Only then are the collected type names
//	resolved, by pure lookup against the complete set, and the result pushed
//	back into each object. Objects and enums live in index-addressed arenas;
//	a resolved TypeRef carries the arena index of its target, so there are
//	no pointers between descriptors.
package module

import (
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// Module is a built, fully resolved set of exposed declarations.
//
// Thread Safety:
//
//	Immutable after Build returns; safe for concurrent reads.
type Module struct {
	objects  []*scanner.Object
	enums    []*scanner.Enum
	byName   map[string]int
	enumName map[string]int
	refs     *scanner.ReferenceSet
	warnings []scanner.Warning
}

// Objects returns the exposed objects in build order: file order, then declaration order.
func (m *Module) Objects() []*scanner.Object {
	out := make([]*scanner.Object, len(m.objects))
	copy(out, m.objects)
	return out
}

// Enums returns the referenced enums in first-reference order.
func (m *Module) Enums() []*scanner.Enum {
	out := make([]*scanner.Enum, len(m.enums))
	copy(out, m.enums)
	return out
}

// Object returns the exposed object with the given name.
func (m *Module) Object(name string) (*scanner.Object, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.objects[i], true
}

// Enum returns the referenced enum with the given name.
func (m *Module) Enum(name string) (*scanner.Enum, bool) {
	i, ok := m.enumName[name]
	if !ok {
		return nil, false
	}
	return m.enums[i], true
}

// Resolve follows a resolved object link. Lists are followed to their element.
//
// Returns nil for scalars, enums and unresolved references.
func (m *Module) Resolve(t *scanner.TypeRef) *scanner.Object {
	for t != nil && t.Kind == scanner.KindList {
		t = t.Of
	}
	if t == nil || t.Kind != scanner.KindObject || t.Index < 0 || t.Index >= len(m.objects) {
		return nil
	}
	return m.objects[t.Index]
}

// ResolveEnum follows a resolved enum link. Lists are followed to their element.
func (m *Module) ResolveEnum(t *scanner.TypeRef) *scanner.Enum {
	for t != nil && t.Kind == scanner.KindList {
		t = t.Of
	}
	if t == nil || t.Kind != scanner.KindEnum || t.Index < 0 || t.Index >= len(m.enums) {
		return nil
	}
	return m.enums[t.Index]
}

// References returns the union of every object's references in first-seen order.
func (m *Module) References() *scanner.ReferenceSet {
	return scanner.NewReferenceSet(m.refs.Names()...)
}

// Warnings returns the non-fatal diagnostics raised while building.
func (m *Module) Warnings() []scanner.Warning {
	out := make([]scanner.Warning, len(m.warnings))
	copy(out, m.warnings)
	return out
}
