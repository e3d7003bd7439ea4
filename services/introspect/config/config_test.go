// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, scanner.DefaultMarkers(), cfg.Markers)
	assert.False(t, cfg.StrictDuplicates)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.Indent)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	assert.Contains(t, cfg.Include, "**/*.ts")
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
}

func TestLoad_Overrides(t *testing.T) {
	yaml := []byte(`
markers:
  object: expose
  function: method
  field: prop
scalars:
  ID: String
  int: Integer
strict_duplicates: true
output:
  format: yaml
watch:
  debounce: 1s
`)
	cfg, err := Load(context.Background(), yaml)
	require.NoError(t, err)

	assert.Equal(t, "expose", cfg.Markers.Object)
	assert.Equal(t, "method", cfg.Markers.Function)
	assert.True(t, cfg.StrictDuplicates)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)

	// Untouched keys keep their defaults.
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Contains(t, cfg.Include, "**/*.ts")

	kinds := cfg.ScalarKinds()
	assert.Equal(t, scanner.KindString, kinds["ID"])
	assert.Equal(t, scanner.KindInteger, kinds["int"])
	assert.Equal(t, scanner.KindFloat, kinds["float"], "built-in aliases are kept")
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "unknown format", yaml: "output:\n  format: toml\n", wantErr: "Format"},
		{name: "missing object marker", yaml: "markers:\n  object: \"\"\n", wantErr: "Object"},
		{name: "bad scalar kind", yaml: "scalars:\n  ID: Text\n", wantErr: "Scalars"},
		{name: "no include", yaml: "include: []\n", wantErr: "Include"},
		{name: "zero concurrency", yaml: "concurrency: 0\n", wantErr: "Concurrency"},
		{name: "cache without dir", yaml: "cache:\n  enabled: true\n  dir: \"\"\n", wantErr: "Dir"},
		{name: "malformed yaml", yaml: "output: [\n", wantErr: "parsing YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), []byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_TooLarge(t *testing.T) {
	data := []byte("# " + strings.Repeat("x", MaxYAMLFileSize))
	_, err := Load(context.Background(), data)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Root, "missing file yields defaults rooted at dir")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("root: src\nstrict_duplicates: true\n"), 0o644))
	cfg, err = LoadFile(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Root)
	assert.True(t, cfg.StrictDuplicates)
	assert.Equal(t, filepath.Join(dir, "src", ".introspect", "cache"), cfg.CacheDir())
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("concurrency: 1000\n"), 0o644))

	_, err := LoadFile(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

func TestCacheDir_Absolute(t *testing.T) {
	cfg := Default()
	cfg.Cache.Dir = "/var/cache/introspect"
	assert.Equal(t, "/var/cache/introspect", cfg.CacheDir())
}

func TestFingerprint_ChangesWithSettings(t *testing.T) {
	base := Default().Fingerprint()
	assert.Equal(t, base, Default().Fingerprint())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "marker", mutate: func(c *Config) { c.Markers.Object = "expose" }},
		{name: "scalar", mutate: func(c *Config) { c.Scalars = map[string]string{"ID": "String"} }},
		{name: "strict", mutate: func(c *Config) { c.StrictDuplicates = true }},
		{name: "format", mutate: func(c *Config) { c.Output.Format = "yaml" }},
		{name: "indent", mutate: func(c *Config) { c.Output.Indent = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.NotEqual(t, base, cfg.Fingerprint())
		})
	}
}

func TestFingerprint_ScalarOrderIndependent(t *testing.T) {
	a := Default()
	a.Scalars = map[string]string{"A": "String", "B": "Integer", "C": "Float"}
	b := Default()
	b.Scalars = map[string]string{"C": "Float", "B": "Integer", "A": "String"}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestLoad_IndentSet(t *testing.T) {
	cfg, err := Load(context.Background(), []byte("output:\n  format: json\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Output.Indent)
	assert.False(t, cfg.Output.IndentSet)

	cfg, err = Load(context.Background(), []byte("output:\n  indent: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Output.Indent)
	assert.True(t, cfg.Output.IndentSet)

	cfg, err = Load(context.Background(), []byte("output:\n  indent: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Output.Indent)
	assert.True(t, cfg.Output.IndentSet)
}
