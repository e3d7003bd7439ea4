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

// ReferenceSet is an ordered, de-duplicated set of type names.
//
// Names keep the position of their first Add.
type ReferenceSet struct {
	names []string
	seen  map[string]struct{}
}

// NewReferenceSet returns a set holding names in first-seen order.
func NewReferenceSet(names ...string) *ReferenceSet {
	s := &ReferenceSet{}
	s.Add(names...)
	return s
}

// Add appends names that are not already present.
func (s *ReferenceSet) Add(names ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := s.seen[n]; ok {
			continue
		}
		s.seen[n] = struct{}{}
		s.names = append(s.names, n)
	}
}

// Names returns a copy of the names in first-seen order.
func (s *ReferenceSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of distinct names.
func (s *ReferenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Contains reports whether name was added.
func (s *ReferenceSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[name]
	return ok
}

// Resolution is what a referenced name resolved to.
type Resolution struct {
	// Kind is KindObject, KindEnum or a scalar kind.
	Kind TypeKind

	// Index is the arena position of the linked object or enum, -1 for scalars.
	Index int
}

// References maps referenced names to their resolution.
type References map[string]Resolution
