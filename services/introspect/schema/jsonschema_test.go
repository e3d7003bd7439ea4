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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentsSchema(t *testing.T) {
	src := `@object()
export class Painter {
  /** Paints a wall. */
  @func()
  paint(wall: Wall, color: Color, coats = 2, label = "x", ratio?: float, tags: string[] = []): void {}
}

@object()
export class Wall {}

enum Color { Red = "red", Blue = "blue" }
`
	m := buildModule(t, "painter.ts", src)
	painter, ok := m.Object("Painter")
	require.True(t, ok)
	paint, ok := painter.Methods.Get("paint")
	require.True(t, ok)

	s := ArgumentsSchema(paint, m)

	assert.Equal(t, "object", s.Type)
	assert.Equal(t, "Paints a wall.", s.Description)
	assert.Equal(t, []string{"wall", "color"}, s.Required)
	require.Len(t, s.Properties, 6)

	assert.Equal(t, "object", s.Properties["wall"].Type)
	assert.Equal(t, "Wall", s.Properties["wall"].Title)

	assert.Equal(t, "string", s.Properties["color"].Type)
	assert.Equal(t, []any{"red", "blue"}, s.Properties["color"].Enum)

	assert.Equal(t, "integer", s.Properties["coats"].Type)
	assert.Equal(t, json.RawMessage("2"), s.Properties["coats"].Default)

	assert.Equal(t, json.RawMessage(`"x"`), s.Properties["label"].Default)
	assert.Equal(t, "number", s.Properties["ratio"].Type)

	assert.Equal(t, "array", s.Properties["tags"].Type)
	require.NotNil(t, s.Properties["tags"].Items)
	assert.Equal(t, "string", s.Properties["tags"].Items.Type)
	assert.Equal(t, json.RawMessage("[]"), s.Properties["tags"].Default)
}

func TestArgumentsSchema_NonLiteralDefaultOmitted(t *testing.T) {
	src := `@object()
export class Clock {
  @func()
  tick(at: number = Date.now()): void {}
}
`
	m := buildModule(t, "clock.ts", src)
	clock, _ := m.Object("Clock")
	tick, _ := clock.Methods.Get("tick")

	s := ArgumentsSchema(tick, m)
	assert.Empty(t, s.Required)
	assert.Nil(t, s.Properties["at"].Default)
}

func TestArgumentsSchema_NumericEnums(t *testing.T) {
	src := `@object()
export class Dial {
  @func()
  set(level: Level, ratio: Ratio, mixed: Mixed): void {}
}

enum Level { Low = 1, Mid = 0x2, High = -3 }
enum Ratio { Half = 0.5, Whole = 1 }
enum Mixed { A = 1, B = "b" }
`
	m := buildModule(t, "dial.ts", src)
	dial, _ := m.Object("Dial")
	set, ok := dial.Methods.Get("set")
	require.True(t, ok)

	s := ArgumentsSchema(set, m)

	assert.Equal(t, "integer", s.Properties["level"].Type)
	assert.Equal(t, []any{int64(1), int64(2), int64(-3)}, s.Properties["level"].Enum)

	assert.Equal(t, "number", s.Properties["ratio"].Type)
	assert.Equal(t, []any{0.5, 1.0}, s.Properties["ratio"].Enum)

	assert.Equal(t, "string", s.Properties["mixed"].Type)
	assert.Equal(t, []any{"1", "b"}, s.Properties["mixed"].Enum)
}
