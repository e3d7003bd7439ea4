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
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/AleutianAI/introspect/services/introspect/ast"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// suggestionThreshold is the minimum Jaro-Winkler similarity for a "did you mean" hint.
const suggestionThreshold = 0.8

// resolvePhase resolves every referenced name against the complete built set.
//
// Resolution order, for each name in first-seen order:
//
//  1. scalar alias table
//  2. exposed object
//  3. enum declared in any file
//  4. class declared in any file but not exposed: ErrNotExposed
//  5. anything else: ErrUnresolvableType at the first use
func (b *Builder) resolvePhase(ctx context.Context, state *buildState) error {
	_, span := startPhaseSpan(ctx, "module.resolve")
	defer span.End()

	for _, obj := range state.module.objects {
		state.module.refs.Add(obj.References()...)
	}

	for _, name := range state.module.refs.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := b.resolveName(state, name)
		if err != nil {
			return err
		}
		state.refs[name] = res
	}
	return nil
}

func (b *Builder) resolveName(state *buildState, name string) (scanner.Resolution, error) {
	if kind, ok := b.options.Scalars[name]; ok {
		return scanner.Resolution{Kind: kind, Index: -1}, nil
	}

	if i, ok := state.module.byName[name]; ok {
		return scanner.Resolution{Kind: scanner.KindObject, Index: i}, nil
	}

	if decl, ok := state.enums[name]; ok {
		i, ok := state.module.enumName[name]
		if !ok {
			e, err := scanner.NewEnum(decl.node, decl.file)
			if err != nil {
				return scanner.Resolution{}, err
			}
			i = len(state.module.enums)
			state.module.enumName[name] = i
			state.module.enums = append(state.module.enums, e)
		}
		return scanner.Resolution{Kind: scanner.KindEnum, Index: i}, nil
	}

	if decl, ok := state.classes[name]; ok {
		// Not exposed, otherwise it would be in byName. NewObject reports it.
		_, err := scanner.NewObject(decl.node, decl.file, b.options.Markers, b.options.Logger)
		if err == nil {
			err = &scanner.IntrospectionError{Kind: scanner.ErrNotExposed, Name: name, Location: decl.file.Location(decl.node)}
		}
		return scanner.Resolution{}, err
	}

	err := &scanner.IntrospectionError{
		Kind:       scanner.ErrUnresolvableType,
		Name:       name,
		Location:   firstUse(state.module.objects, name),
		Detail:     "could not resolve type " + name + " to a scalar, an exposed object or an enum",
		Suggestion: b.suggest(state, name),
	}
	return scanner.Resolution{}, err
}

// suggest returns the closest known type name, or "" if nothing is close enough.
func (b *Builder) suggest(state *buildState, name string) string {
	candidates := make([]string, 0, len(state.module.objects)+len(state.enums)+len(b.options.Scalars))
	for _, obj := range state.module.objects {
		candidates = append(candidates, obj.Name)
	}
	candidates = append(candidates, sortedKeys(state.enums)...)
	candidates = append(candidates, sortedKeys(b.options.Scalars)...)

	best, bestScore := "", float32(0)
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(name, c, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// firstUse finds where name is first used, in the same order References reports it.
func firstUse(objects []*scanner.Object, name string) ast.Location {
	for _, obj := range objects {
		if obj.Constructor != nil {
			if loc, ok := argumentUse(obj.Constructor.Arguments, name); ok {
				return loc
			}
		}
		for _, p := range obj.Properties.Values() {
			if ref, ok := p.Reference(); ok && ref == name {
				return p.Type.Location
			}
		}
		for _, fn := range obj.Methods.Values() {
			if loc, ok := argumentUse(fn.Arguments, name); ok {
				return loc
			}
			if ref, ok := fn.ReturnType.Reference(); ok && ref == name {
				return fn.ReturnType.Location
			}
		}
	}
	return ast.Location{}
}

func argumentUse(args []*scanner.Argument, name string) (ast.Location, bool) {
	for _, a := range args {
		if ref, ok := a.Type.Reference(); ok && ref == name {
			return a.Type.Location, true
		}
	}
	return ast.Location{}, false
}
