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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns the source files under Root selected by Include and not
// by Exclude, as absolute paths in lexical order.
func (c *Config) Discover() ([]string, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", c.Root, err)
	}
	fsys := os.DirFS(root)

	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range c.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		for _, rel := range matches {
			if _, ok := seen[rel]; ok {
				continue
			}
			seen[rel] = struct{}{}
			if c.Excluded(rel) {
				continue
			}
			paths = append(paths, filepath.Join(root, filepath.FromSlash(rel)))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Matches reports whether a path relative to Root is a source file this
// configuration selects.
func (c *Config) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return !c.Excluded(rel)
		}
	}
	return false
}

// Excluded reports whether a slash-separated relative path matches an Exclude glob.
func (c *Config) Excluded(rel string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
