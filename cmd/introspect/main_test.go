// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/introspect/services/introspect/config"
)

const projectSource = `@object()
export class Account {
  @field()
  id: number

  @func()
  rename(name: string): Account { return this }
}

@object()
class Internal {}
`

func newProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "account.ts"), []byte(projectSource), 0o644))
	return dir
}

// execute runs the root command with args and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCheckCommand(t *testing.T) {
	dir := newProjectDir(t)

	stdout, stderr, err := execute(t, "check", "--root", dir)
	require.NoError(t, err)
	assert.Equal(t, "2 objects, 0 enums from 1 files, 1 warnings\n", stdout)
	assert.Contains(t, stderr, "warning: missing export in class Internal")

	_, _, err = execute(t, "check", "--root", dir, "--fail-on-warning")
	assert.True(t, errors.Is(err, errWarnings))
}

func TestCheckCommand_FatalError(t *testing.T) {
	dir := t.TempDir()
	src := "@object()\nexport class A {\n  @field() b: Missing\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte(src), 0o644))

	_, _, err := execute(t, "check", "--root", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not resolve type Missing")
	assert.False(t, errors.Is(err, errWarnings))
}

func TestSchemaCommand_WritesFile(t *testing.T) {
	dir := newProjectDir(t)

	_, _, err := execute(t, "schema", "--root", dir, "--format", "yaml", "-o", "out/schema.yaml")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out", "schema.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "schemaVersion: \"1.0\"\n"))
	assert.Contains(t, string(data), "Account:")
}

func TestSchemaCommand_Stdout(t *testing.T) {
	dir := newProjectDir(t)

	stdout, _, err := execute(t, "schema", "--root", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, `{`))
	assert.True(t, strings.HasSuffix(stdout, "\n"))
	assert.Contains(t, stdout, `"Account"`)
}

func TestRootCommand_InvalidLogFlags(t *testing.T) {
	_, _, err := execute(t, "check", "--root", t.TempDir(), "--log-level", "loud")
	assert.Error(t, err)

	_, _, err = execute(t, "check", "--root", t.TempDir(), "--log-format", "xml")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{level: "debug", format: "text"},
		{level: "INFO", format: "json"},
		{level: "warn", format: "JSON"},
		{level: "verbose", format: "text", wantErr: true},
		{level: "error", format: "logfmt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := newLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestWriteOutput_Stdout(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	require.NoError(t, writeOutput(cfg, &buf, []byte(`{}`)))
	assert.Equal(t, "{}\n", buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(cfg, &buf, []byte("a: 1\n")))
	assert.Equal(t, "a: 1\n", buf.String())
}

func TestCompactWhenPiped(t *testing.T) {
	tests := []struct {
		name       string
		indentSet  bool
		path       string
		terminal   bool
		wantIndent bool
	}{
		{name: "piped default", wantIndent: false},
		{name: "terminal", terminal: true, wantIndent: true},
		{name: "explicit indent", indentSet: true, wantIndent: true},
		{name: "file output", path: "schema.json", wantIndent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Output.IndentSet = tt.indentSet
			cfg.Output.Path = tt.path
			compactWhenPiped(cfg, tt.terminal)
			assert.Equal(t, tt.wantIndent, cfg.Output.Indent)
		})
	}
}

func TestSchemaCommand_ConfigIndentSurvivesPipe(t *testing.T) {
	dir := newProjectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("output:\n  indent: true\n"), 0o644))

	stdout, _, err := execute(t, "schema", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "\n  \"objects\": {")

	stdout, _, err = execute(t, "schema", "--root", dir, "--indent=false")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "\n  \"objects\"")
}
