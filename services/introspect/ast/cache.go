// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheSize is the number of parsed files kept by a Cache.
const DefaultCacheSize = 256

// Cache keeps recently parsed files keyed by path and content hash.
//
// Description:
//
//	Used by the watch loop so unchanged files are not re-parsed on every
//	rebuild. Evicted files are closed. Files handed out by the cache are
//	owned by the cache: callers must not Close them, and must not hold nodes
//	across a later call that may evict (Reserve guarantees a whole batch fits).
//
// Thread Safety:
//
//	Safe for concurrent use.
type Cache struct {
	parser *Parser
	files  *lru.Cache[string, *File]

	mu   sync.Mutex
	size int
}

// NewCache creates a Cache of the given size backed by parser.
func NewCache(parser *Parser, size int) (*Cache, error) {
	if parser == nil {
		return nil, fmt.Errorf("parser must not be nil")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.NewWithEvict[string, *File](size, func(_ string, f *File) {
		f.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("creating parse cache: %w", err)
	}
	return &Cache{parser: parser, files: files, size: size}, nil
}

// Reserve grows the cache so a batch of n files can be held at once.
func (c *Cache) Reserve(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > c.size {
		c.size = n * 2
		c.files.Resize(c.size)
	}
}

// ParseFile returns the cached parse of path, re-parsing when the content changed.
func (c *Cache) ParseFile(ctx context.Context, path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	key := path + ":" + strconv.FormatUint(xxhash.Sum64(content), 16)
	if f, ok := c.files.Get(key); ok {
		recordCacheLookup(true)
		return f, nil
	}
	recordCacheLookup(false)

	f, err := c.parser.Parse(ctx, content, path)
	if err != nil {
		return nil, err
	}
	c.files.Add(key, f)
	return f, nil
}

// ParseFiles parses every path through the cache.
//
// Cache misses are parsed in parallel, bounded by the parser's concurrency.
// Files are returned in the order of paths.
func (c *Cache) ParseFiles(ctx context.Context, paths []string) ([]*File, error) {
	c.Reserve(len(paths))
	files := make([]*File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parser.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			f, err := c.ParseFile(gctx, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	return c.files.Len()
}

// Purge closes and drops every cached file.
func (c *Cache) Purge() {
	c.files.Purge()
}
