// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testDebounce = 20 * time.Millisecond

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tsOnly(rel string) bool { return strings.HasSuffix(rel, ".ts") }

// startWatcher runs a watcher over dir and forwards every batch to the returned channel.
func startWatcher(t *testing.T, dir string) <-chan []string {
	t.Helper()
	w, err := New(dir, tsOnly, testDebounce, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			batches <- changed
		})
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return batches
}

// waitFor returns the first batch containing path, or fails after a timeout.
func waitFor(t *testing.T, batches <-chan []string, path string) []string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-batches:
			for _, p := range changed {
				if p == path {
					return changed
				}
			}
		case <-deadline:
			t.Fatalf("no change reported for %s", path)
			return nil
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_NilMatch(t *testing.T) {
	_, err := New(t.TempDir(), nil, 0, nil)
	assert.Error(t, err)
}

func TestNew_DefaultDebounce(t *testing.T) {
	w, err := New(t.TempDir(), tsOnly, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	require.NoError(t, w.Close())
}

// =============================================================================
// Change delivery
// =============================================================================

func TestWatcher_ReportsMatchingFile(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	path := filepath.Join(dir, "api.ts")
	writeFile(t, path, "export class A {}\n")

	changed := waitFor(t, batches, path)
	assert.Equal(t, []string{path}, changed)
}

func TestWatcher_IgnoresNonMatchingFile(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	writeFile(t, filepath.Join(dir, "notes.md"), "# notes\n")
	select {
	case changed := <-batches:
		t.Fatalf("unexpected change batch: %v", changed)
	case <-time.After(10 * testDebounce):
	}

	path := filepath.Join(dir, "b.ts")
	writeFile(t, path, "export {}\n")
	assert.Equal(t, []string{path}, waitFor(t, batches, path))
}

func TestWatcher_BatchesBurst(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ts")
	b := filepath.Join(dir, "b.ts")
	writeFile(t, a, "1")
	writeFile(t, b, "1")

	batches := startWatcher(t, dir)
	writeFile(t, b, "2")
	writeFile(t, a, "2")

	changed := waitFor(t, batches, a)
	if len(changed) == 2 {
		assert.Equal(t, []string{a, b}, changed, "batch is sorted")
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	path := filepath.Join(sub, "nested.ts")

	// The new directory is registered asynchronously; keep touching the file
	// until a batch reports it.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		writeFile(t, path, "export {}\n")
		select {
		case changed := <-batches:
			for _, p := range changed {
				if p == path {
					return
				}
			}
		case <-time.After(100 * time.Millisecond):
		}
	}
	t.Fatalf("no change reported for %s", path)
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	w, err := New(t.TempDir(), tsOnly, testDebounce, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx, func(context.Context, []string) {
		t.Error("callback must not run")
	}))
}

// =============================================================================
// Helpers
// =============================================================================

func TestSkipDir(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "node_modules", want: true},
		{name: ".git", want: true},
		{name: ".introspect", want: true},
		{name: "src", want: false},
		{name: "dist", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skipDir(tt.name))
		})
	}
}
