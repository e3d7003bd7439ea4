// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package introspect

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/introspect/services/introspect/cache"
	"github.com/AleutianAI/introspect/services/introspect/config"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

const userSource = `/** A user account. */
@object()
export class User {
  @field()
  name: string

  @func()
  posts(limit = 10): Post[] { return [] }
}
`

const postSource = `@object()
export class Post {
  @field()
  title: string

  @field()
  author: User | null
}

@object()
class Draft {}
`

// newProject writes sources into a temp root and loads its configuration.
func newProject(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	cfg, err := config.LoadFile(context.Background(), dir)
	require.NoError(t, err)
	cfg.Output.Indent = false
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	svc, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

// =============================================================================
// Pipeline
// =============================================================================

func TestService_Run(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"src/user.ts":      userSource,
		"src/post.ts":      postSource,
		"src/user.test.ts": "@object()\nexport class Ignored {}\n",
	})
	svc := newTestService(t, cfg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.False(t, res.Cached)
	assert.Len(t, res.Key, 32)
	require.NotNil(t, res.Module)
	require.NotNil(t, res.Schema)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, scanner.WarnMissingExport, res.Warnings[0].Kind)
	assert.Equal(t, "Draft", res.Warnings[0].Name)

	var doc struct {
		SchemaVersion string                    `json:"schemaVersion"`
		Objects       map[string]map[string]any `json:"objects"`
	}
	require.NoError(t, gojson.Unmarshal(res.Output, &doc))
	assert.Equal(t, "1.0", doc.SchemaVersion)
	assert.Contains(t, doc.Objects, "User")
	assert.Contains(t, doc.Objects, "Post")
	assert.Contains(t, doc.Objects, "Draft")
	assert.NotContains(t, doc.Objects, "Ignored")
	assert.Equal(t, "A user account.", doc.Objects["User"]["description"])
}

func TestService_RunYAML(t *testing.T) {
	cfg := newProject(t, map[string]string{"user.ts": userSource, "post.ts": postSource})
	cfg.Output.Format = "yaml"
	svc := newTestService(t, cfg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(res.Output), "schemaVersion: \"1.0\"")
}

func TestService_FatalErrorHasNoOutput(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"user.ts": "@object()\nexport class User {\n  @field() friend: Usr\n}\n",
	})
	svc := newTestService(t, cfg)

	res, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)

	var ierr *scanner.IntrospectionError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), `did you mean "User"?`)
}

func TestService_EmptyRoot(t *testing.T) {
	cfg := newProject(t, nil)
	svc := newTestService(t, cfg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Files)
	assert.Zero(t, res.Schema.Objects.Len())
}

func TestService_RebuildSeesEdits(t *testing.T) {
	cfg := newProject(t, map[string]string{"user.ts": userSource, "post.ts": postSource})
	svc := newTestService(t, cfg)
	ctx := context.Background()

	first, err := svc.Run(ctx)
	require.NoError(t, err)

	edited := "@object()\nexport class User {\n  @field() email: string\n}\n\n@object()\nexport class Post {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "user.ts"), []byte(edited), 0o644))
	require.NoError(t, os.Remove(filepath.Join(cfg.Root, "post.ts")))

	second, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)

	user, ok := second.Module.Object("User")
	require.True(t, ok)
	assert.True(t, user.Properties.Has("email"))
	assert.False(t, user.Properties.Has("name"))
}

// =============================================================================
// Schema cache
// =============================================================================

func TestService_CacheHit(t *testing.T) {
	cfg := newProject(t, map[string]string{"user.ts": userSource, "post.ts": postSource})
	store, err := cache.Open("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	svc := newTestService(t, cfg, WithStore(store))
	ctx := context.Background()

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Nil(t, second.Module)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Warnings, second.Warnings)

	data, entry, err := store.Latest(ctx, cfg.Root)
	require.NoError(t, err)
	assert.Equal(t, first.Output, data)
	assert.Equal(t, 3, entry.Objects)
}

func TestService_CacheMissAfterSettingChange(t *testing.T) {
	cfg := newProject(t, map[string]string{"user.ts": userSource, "post.ts": postSource})
	store, err := cache.Open("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer store.Close()

	svc, err := New(cfg, WithStore(store))
	require.NoError(t, err)
	first, err := svc.Run(context.Background())
	require.NoError(t, err)

	changed := *cfg
	changed.Output.Indent = true
	other, err := New(&changed, WithStore(store))
	require.NoError(t, err)
	second, err := other.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.NotEqual(t, first.Key, second.Key)
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Output.Format = "toml"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNew_OpensConfiguredCache(t *testing.T) {
	cfg := newProject(t, map[string]string{"user.ts": userSource, "post.ts": postSource})
	cfg.Cache.Enabled = true
	svc := newTestService(t, cfg)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.DirExists(t, cfg.CacheDir())
}
