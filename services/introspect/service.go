// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package introspect extracts the exposed API schema of a TypeScript module.
//
// Description:
//
//	Service runs the whole pipeline for a configured source root: discover
//	files, parse them, build and resolve the module, serialize the schema
//	and, when enabled, cache the output keyed by a fingerprint of the
//	inputs. Each stage lives in its own package; Service only wires them.
package introspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/introspect/services/introspect/ast"
	"github.com/AleutianAI/introspect/services/introspect/cache"
	"github.com/AleutianAI/introspect/services/introspect/config"
	"github.com/AleutianAI/introspect/services/introspect/module"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
	"github.com/AleutianAI/introspect/services/introspect/schema"
)

const tracerName = "introspect"

// Result is the outcome of one pipeline run.
type Result struct {
	// Module is the resolved module. Nil when the output came from the cache.
	Module *module.Module

	// Schema is the serializable form. Nil when the output came from the cache.
	Schema *schema.Module

	// Output is the encoded schema in the configured format.
	Output []byte

	// Warnings are the non-fatal diagnostics of the build.
	Warnings []scanner.Warning

	// Files is the number of source files scanned.
	Files int

	// Cached is true when Output was served from the schema cache.
	Cached bool

	// Key is the input fingerprint.
	Key string

	Duration time.Duration
}

// Service runs the introspection pipeline for one configuration.
//
// Thread Safety:
//
//	Run calls must not overlap: the parse cache hands out files that are
//	only valid until the next run.
type Service struct {
	cfg     *config.Config
	files   *ast.Cache
	builder *module.Builder
	store   *cache.Store
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore uses store as the schema cache instead of opening cfg.Cache.Dir.
func WithStore(store *cache.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// New creates a Service for cfg.
//
// Outputs:
//
//	*Service - The configured service. Call Close when done.
//	error - Non-nil if cfg is invalid or the cache cannot be opened.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	parser := ast.NewParser(
		ast.WithMaxFileSize(int64(cfg.MaxFileSize)),
		ast.WithConcurrency(cfg.Concurrency),
		ast.WithLogger(s.logger),
	)
	files, err := ast.NewCache(parser, cfg.Cache.ParseCacheSize)
	if err != nil {
		return nil, err
	}
	s.files = files

	s.builder = module.NewBuilder(
		module.WithMarkers(cfg.Markers),
		module.WithScalars(cfg.ScalarKinds()),
		module.WithStrictDuplicates(cfg.StrictDuplicates),
		module.WithLogger(s.logger),
	)

	if s.store == nil && cfg.Cache.Enabled {
		store, err := cache.Open(cfg.CacheDir(), s.logger)
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	return s, nil
}

// Close releases the parse cache and the schema cache.
func (s *Service) Close() error {
	s.files.Purge()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Run discovers, parses, builds and serializes the configured sources.
//
// Description:
//
//	When the schema cache holds output for the same inputs and settings,
//	it is returned without building (Result.Cached). A fatal introspection
//	error returns no output at all.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "introspect.Run")
	defer span.End()
	start := time.Now()

	paths, err := s.cfg.Discover()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(paths)))

	res, err := s.RunFiles(ctx, paths)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Duration = time.Since(start)
	span.SetAttributes(attribute.Bool("cached", res.Cached))
	return res, nil
}

// RunFiles runs the pipeline over an explicit list of source paths.
func (s *Service) RunFiles(ctx context.Context, paths []string) (*Result, error) {
	files, err := s.files.ParseFiles(ctx, paths)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Files: len(files),
		Key:   cache.Fingerprint(files, s.cfg.Fingerprint()),
	}

	if s.store != nil {
		data, entry, err := s.store.Get(ctx, res.Key)
		switch {
		case err == nil:
			res.Output = data
			res.Warnings = entry.Warnings
			res.Cached = true
			s.logger.Debug("schema served from cache", slog.String("key", res.Key))
			return res, nil
		case !errors.Is(err, cache.ErrNotFound):
			s.logger.Warn("schema cache read failed", slog.String("error", err.Error()))
		}
	}

	m, err := s.builder.Build(ctx, files)
	if err != nil {
		return nil, err
	}
	res.Module = m
	res.Schema = schema.FromModule(m)
	res.Warnings = m.Warnings()

	res.Output, err = schema.Encode(ctx, res.Schema, schema.Format(s.cfg.Output.Format), s.cfg.Output.Indent)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		_, err := s.store.Put(ctx, res.Key, res.Output, cache.Entry{
			Root:     s.cfg.Root,
			Format:   s.cfg.Output.Format,
			Objects:  res.Schema.Objects.Len(),
			Warnings: res.Warnings,
		})
		if err != nil {
			s.logger.Warn("schema cache write failed", slog.String("error", err.Error()))
		}
	}
	return res, nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}
