// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch triggers a callback when matching source files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when a non-positive debounce is configured.
const DefaultDebounce = 200 * time.Millisecond

// MatchFunc reports whether a slash-separated path relative to the root is watched.
type MatchFunc func(rel string) bool

// ChangeFunc receives the absolute paths changed since the last call, sorted.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher monitors a directory tree and batches changes to matching files.
//
// Description:
//
//	Every directory under the root is watched except hidden ones and
//	node_modules. Events for matching files are collected until no new
//	event arrives for the debounce interval, then delivered in one call.
//	Directories created while running are watched as they appear.
//
// Thread Safety:
//
//	Run must be called at most once. The callback runs on Run's goroutine.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	match    MatchFunc
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher rooted at root.
//
// Inputs:
//
//	root - Directory to watch recursively.
//	match - Selects the files whose changes are reported. Must not be nil.
//	debounce - Quiet period before a batch is delivered.
//	logger - Logger for diagnostics. Nil uses slog.Default().
func New(root string, match MatchFunc, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if match == nil {
		return nil, fmt.Errorf("match func must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, root: abs, match: match, debounce: debounce, logger: logger}
	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers change batches to onChange until ctx is cancelled.
//
// The fsnotify watcher is closed before Run returns. Returns nil when ctx
// ends, or an error if the event stream breaks.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("fsnotify event stream closed")
			}
			if w.handle(event) {
				pending[event.Name] = struct{}{}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("fsnotify error stream closed")
			}
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			w.logger.Debug("source change detected", slog.Int("files", len(changed)))
			onChange(ctx, changed)
		}
	}
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handle watches new directories and reports whether event concerns a matching file.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					slog.String("path", event.Name),
					slog.String("error", err.Error()),
				)
			}
			return false
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	return w.match(filepath.ToSlash(rel))
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}
