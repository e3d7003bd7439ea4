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

// Default decorator names.
const (
	DefaultObjectMarker   = "object"
	DefaultFunctionMarker = "func"
	DefaultFieldMarker    = "field"
)

// Markers names the decorators that expose declarations.
type Markers struct {
	// Object exposes a class.
	Object string `yaml:"object" validate:"required"`

	// Function exposes a method; on a property it also exposes the property.
	Function string `yaml:"function" validate:"required"`

	// Field exposes a property.
	Field string `yaml:"field"`
}

// DefaultMarkers returns the stock marker names.
func DefaultMarkers() Markers {
	return Markers{
		Object:   DefaultObjectMarker,
		Function: DefaultFunctionMarker,
		Field:    DefaultFieldMarker,
	}
}
