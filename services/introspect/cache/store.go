// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache persists serialized schemas in BadgerDB keyed by a
// fingerprint of their inputs.
package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	gojson "github.com/goccy/go-json"

	"github.com/AleutianAI/introspect/services/introspect/ast"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// BadgerDB key layout.
const (
	keyPrefixSchema = "introspect:schema:"
	keyPrefixRoot   = "introspect:root:"
	keySuffixData   = ":data"
	keySuffixMeta   = ":meta"
	keySuffixLatest = ":latest"
)

// ErrNotFound is returned when no schema is stored under a key.
var ErrNotFound = errors.New("schema not found in cache")

// Entry describes one cached schema.
type Entry struct {
	// Key is the input fingerprint the schema is stored under.
	Key string `json:"key"`

	// Root is the source root the schema was built from.
	Root string `json:"root"`

	// Format is the encoding of the payload ("json" or "yaml").
	Format string `json:"format"`

	// Objects is the number of exposed objects in the schema.
	Objects int `json:"objects"`

	// CreatedAtMilli is when the entry was stored (Unix milliseconds UTC).
	CreatedAtMilli int64 `json:"created_at_milli"`

	// CompressedSize is the size of the gzip-compressed payload in bytes.
	CompressedSize int64 `json:"compressed_size"`

	// ContentHash is the SHA256 of the uncompressed payload.
	ContentHash string `json:"content_hash"`

	// Warnings are the build diagnostics, replayed on a cache hit.
	Warnings []scanner.Warning `json:"warnings,omitempty"`
}

// Store reads and writes cached schemas.
//
// Thread Safety:
//
//	Safe for concurrent use. BadgerDB handles its own concurrency control.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	owned  bool
}

// NewStore wraps an opened BadgerDB. The caller keeps ownership of db.
//
// Outputs:
//
//	*Store - The configured store.
//	error - Non-nil if db or logger is nil.
func NewStore(db *badger.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	return &Store{db: db, logger: logger}, nil
}

// Open opens (or creates) a BadgerDB under dir and wraps it.
//
// An empty dir opens an in-memory database. Close releases it.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening schema cache: %w", err)
	}
	s, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Put stores data under key and makes it the latest schema for entry.Root.
//
// Key Schema:
//
//	introspect:schema:{key}:data     → gzip(payload)
//	introspect:schema:{key}:meta     → JSON(Entry)
//	introspect:root:{rootHash}:latest → key
func (s *Store) Put(ctx context.Context, key string, data []byte, entry Entry) (*Entry, error) {
	if key == "" {
		return nil, fmt.Errorf("key must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var compressed bytes.Buffer
	gw, err := gzip.NewWriterLevel(&compressed, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("compressing schema: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	entry.Key = key
	entry.CreatedAtMilli = time.Now().UnixMilli()
	entry.CompressedSize = int64(compressed.Len())
	entry.ContentHash = hashBytes(data)

	metaJSON, err := gojson.Marshal(&entry)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyPrefixSchema+key+keySuffixData), compressed.Bytes()); err != nil {
			return fmt.Errorf("storing data: %w", err)
		}
		if err := txn.Set([]byte(keyPrefixSchema+key+keySuffixMeta), metaJSON); err != nil {
			return fmt.Errorf("storing metadata: %w", err)
		}
		if entry.Root != "" {
			if err := txn.Set([]byte(latestKey(entry.Root)), []byte(key)); err != nil {
				return fmt.Errorf("updating latest pointer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing schema to badger: %w", err)
	}

	s.logger.Debug("schema cached",
		slog.String("key", key),
		slog.String("root", entry.Root),
		slog.Int("objects", entry.Objects),
		slog.Int64("compressed_size", entry.CompressedSize),
	)
	return &entry, nil
}

// Get loads the schema stored under key. Returns ErrNotFound on a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, *Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var compressed []byte
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		dataItem, err := txn.Get([]byte(keyPrefixSchema + key + keySuffixData))
		if err != nil {
			return err
		}
		compressed, err = dataItem.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("reading data: %w", err)
		}

		metaItem, err := txn.Get([]byte(keyPrefixSchema + key + keySuffixMeta))
		if err != nil {
			return err
		}
		return metaItem.Value(func(val []byte) error {
			return gojson.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		recordLookup(false)
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading schema from badger: %w", err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gr.Close()
	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, nil, fmt.Errorf("decompressing schema: %w", err)
	}
	if hashBytes(data) != entry.ContentHash {
		return nil, nil, fmt.Errorf("cached schema %s: content hash mismatch", key)
	}

	recordLookup(true)
	return data, &entry, nil
}

// Latest loads the most recently stored schema for root.
func (s *Store) Latest(ctx context.Context, root string) ([]byte, *Entry, error) {
	var key string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey(root)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			key = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading latest pointer: %w", err)
	}
	return s.Get(ctx, key)
}

// Delete removes the schema stored under key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, suffix := range []string{keySuffixData, keySuffixMeta} {
			if err := txn.Delete([]byte(keyPrefixSchema + key + suffix)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("deleting %s: %w", suffix, err)
			}
		}
		return nil
	})
}

// Fingerprint derives a cache key from the parsed inputs and the build settings.
//
// Description:
//
//	The key covers every file path and content hash, sorted by path, plus
//	the settings string (markers, scalars, strictness, output format), so
//	any change that could alter the output changes the key.
func Fingerprint(files []*ast.File, settings string) string {
	entries := make([]string, 0, len(files))
	for _, f := range files {
		if f == nil {
			continue
		}
		entries = append(entries, f.Path+"\x00"+f.Hash)
	}
	sort.Strings(entries)

	h := sha256.New()
	h.Write([]byte(settings))
	for _, e := range entries {
		h.Write([]byte{'\n'})
		h.Write([]byte(e))
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func latestKey(root string) string {
	return keyPrefixRoot + hashBytes([]byte(root))[:16] + keySuffixLatest
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
