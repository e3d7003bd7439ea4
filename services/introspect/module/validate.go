// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package module

import (
	"fmt"
	"log/slog"

	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// validatePhase surfaces member collisions the objects recorded while building.
//
// By default each collision becomes a WarnDuplicateMember warning and the
// later member stays in place. With StrictDuplicates the first collision
// aborts the build with ErrDuplicateMember.
func (b *Builder) validatePhase(state *buildState) error {
	for _, obj := range state.module.objects {
		for _, c := range obj.Collisions {
			msg := collisionMessage(obj.Name, c)

			if b.options.StrictDuplicates {
				return &scanner.IntrospectionError{
					Kind:     scanner.ErrDuplicateMember,
					Name:     obj.Name + "." + c.Key,
					Location: c.Second,
					Detail:   msg,
				}
			}

			state.module.warnings = append(state.module.warnings, scanner.Warning{
				Kind:     scanner.WarnDuplicateMember,
				Name:     obj.Name + "." + c.Key,
				Location: c.Second,
				Message:  msg,
			})
			b.options.Logger.Warn("duplicate member name",
				slog.String("object", obj.Name),
				slog.String("key", c.Key),
				slog.String("kind", string(c.Kind)),
				slog.String("first", c.First.String()),
				slog.String("second", c.Second.String()),
			)
		}
	}

	for _, w := range state.module.warnings {
		recordWarning(w.Kind)
	}
	return nil
}

func collisionMessage(object string, c scanner.Collision) string {
	switch c.Kind {
	case scanner.CollisionProperty:
		return fmt.Sprintf("property %q of %s overrides the property declared at %s", c.Key, object, c.First)
	case scanner.CollisionMethod:
		return fmt.Sprintf("method %q of %s overrides the method declared at %s", c.Key, object, c.First)
	default:
		return fmt.Sprintf("%q of %s is used by both a method and a property (first at %s)", c.Key, object, c.First)
	}
}
