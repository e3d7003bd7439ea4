// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package module

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/introspect/services/introspect/ast"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// DefaultScalars maps type names that are not TypeScript keywords onto scalars.
//
// `float` is the conventional alias (`type float = number`) for a
// floating-point number; the boxed wrapper types map to their primitives.
func DefaultScalars() map[string]scanner.TypeKind {
	return map[string]scanner.TypeKind{
		"float":   scanner.KindFloat,
		"String":  scanner.KindString,
		"Number":  scanner.KindInteger,
		"Boolean": scanner.KindBoolean,
	}
}

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// Markers are the decorator names that expose declarations.
	Markers scanner.Markers

	// Scalars maps extra type names onto scalar kinds.
	Scalars map[string]scanner.TypeKind

	// StrictDuplicates turns member name collisions into fatal errors.
	// Default: false (last-write-wins with a warning).
	StrictDuplicates bool

	// Logger receives warnings. Default: slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring Builder.
type Option func(*BuilderOptions)

// WithMarkers sets the decorator names.
func WithMarkers(m scanner.Markers) Option {
	return func(o *BuilderOptions) {
		o.Markers = m
	}
}

// WithScalars replaces the scalar alias table.
func WithScalars(scalars map[string]scanner.TypeKind) Option {
	return func(o *BuilderOptions) {
		o.Scalars = scalars
	}
}

// WithStrictDuplicates makes duplicate member names fatal.
func WithStrictDuplicates(strict bool) Option {
	return func(o *BuilderOptions) {
		o.StrictDuplicates = strict
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *BuilderOptions) {
		o.Logger = logger
	}
}

// Builder builds modules from parsed files.
//
// Thread Safety:
//
//	Builder is safe for concurrent use. Each Build call operates on its own state.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a Builder with the given options.
//
// Example:
//
//	b := module.NewBuilder(
//	    module.WithStrictDuplicates(true),
//	    module.WithLogger(logger),
//	)
func NewBuilder(opts ...Option) *Builder {
	options := BuilderOptions{
		Markers: scanner.DefaultMarkers(),
		Scalars: DefaultScalars(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Scalars == nil {
		options.Scalars = map[string]scanner.TypeKind{}
	}
	return &Builder{options: options}
}

// declaration is a top-level class or enum found in the sources.
type declaration struct {
	file *ast.File
	node *sitter.Node
}

// buildState holds mutable state during a single Build.
type buildState struct {
	module *Module

	// classes and enums index every top-level declaration by name, marked or not.
	classes map[string]declaration
	enums   map[string]declaration

	refs scanner.References
}

// Build constructs a Module from parsed files.
//
// Description:
//
//	Phases:
//
//	  1. BUILD: every object-marked class in every file, in file order then
//	     declaration order.
//	  2. RESOLVE: every referenced name, against the complete built set.
//	  3. PROPAGATE: resolutions pushed into every object.
//	  4. VALIDATE: member collisions become warnings, or errors when strict.
//
//	Any fatal error aborts the whole module: Build returns nil and the error,
//	never a partially resolved module.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing.
//	files - Parsed files. Nil entries are skipped.
//
// Outputs:
//
//	*Module - The resolved module.
//	error - An *scanner.IntrospectionError for introspection failures, or ctx.Err().
func (b *Builder) Build(ctx context.Context, files []*ast.File) (*Module, error) {
	ctx, span := startBuildSpan(ctx, len(files))
	defer span.End()
	start := time.Now()

	m, err := b.build(ctx, files)
	if err != nil {
		setBuildSpanError(span, err)
		recordBuildMetrics(time.Since(start), false)
		var ie *scanner.IntrospectionError
		if errors.As(err, &ie) {
			recordBuildFailure(ie.Kind)
		}
		return nil, err
	}

	setBuildSpanResult(span, len(m.objects), len(m.enums), len(m.warnings))
	recordBuildMetrics(time.Since(start), true)
	return m, nil
}

func (b *Builder) build(ctx context.Context, files []*ast.File) (*Module, error) {
	state := &buildState{
		module: &Module{
			byName:   make(map[string]int),
			enumName: make(map[string]int),
			refs:     scanner.NewReferenceSet(),
		},
		classes: make(map[string]declaration),
		enums:   make(map[string]declaration),
		refs:    make(scanner.References),
	}

	if err := b.buildPhase(ctx, state, files); err != nil {
		return nil, err
	}
	if err := b.resolvePhase(ctx, state); err != nil {
		return nil, err
	}
	if err := b.propagatePhase(ctx, state); err != nil {
		return nil, err
	}
	if err := b.validatePhase(state); err != nil {
		return nil, err
	}
	return state.module, nil
}

// buildPhase builds every exposed object and indexes every declaration.
func (b *Builder) buildPhase(ctx context.Context, state *buildState, files []*ast.File) error {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, node := range f.Declarations() {
			name := f.Name(node)

			if ast.IsEnum(node) {
				if _, ok := state.enums[name]; !ok && name != "" {
					state.enums[name] = declaration{file: f, node: node}
				}
				continue
			}

			if name != "" {
				if _, ok := state.classes[name]; !ok {
					state.classes[name] = declaration{file: f, node: node}
				}
			}

			if !f.IsDecoratedWith(node, b.options.Markers.Object) {
				continue
			}

			obj, err := scanner.NewObject(node, f, b.options.Markers, b.options.Logger)
			if err != nil {
				return err
			}
			if i, dup := state.module.byName[obj.Name]; dup {
				prev := state.module.objects[i]
				return &scanner.IntrospectionError{
					Kind:     scanner.ErrDuplicateMember,
					Name:     obj.Name,
					Location: obj.Location,
					Detail:   "object " + obj.Name + " is already declared at " + prev.Location.String(),
				}
			}

			state.module.byName[obj.Name] = len(state.module.objects)
			state.module.objects = append(state.module.objects, obj)
			state.module.warnings = append(state.module.warnings, obj.Warnings...)
			recordObjectBuilt()
		}
	}
	return nil
}

// propagatePhase pushes the resolved references into every object.
func (b *Builder) propagatePhase(ctx context.Context, state *buildState) error {
	_, span := startPhaseSpan(ctx, "module.propagate")
	defer span.End()

	for _, obj := range state.module.objects {
		if err := obj.PropagateReferences(state.refs); err != nil {
			return err
		}
	}
	return nil
}
