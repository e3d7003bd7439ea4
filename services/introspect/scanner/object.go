// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scanner builds descriptors of exposed TypeScript declarations.
//
// Description:
//
//	An Object is built from one class declaration by a single walk over its
//	members: properties, the constructor and function-marked methods are
//	extracted into descriptors whose types may name other declarations.
//	Those names are collected with References and later resolved by the
//	caller, which pushes the result back with PropagateReferences.
package scanner

import (
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/introspect/services/introspect/ast"
	"github.com/AleutianAI/introspect/services/introspect/ordered"
)

// CollisionKind says which member maps an overwritten key belonged to.
type CollisionKind string

const (
	CollisionProperty       CollisionKind = "property"
	CollisionMethod         CollisionKind = "method"
	CollisionMethodProperty CollisionKind = "method_property"
)

// Collision records two members that share an external name.
type Collision struct {
	Key  string
	Kind CollisionKind

	// First is where the earlier member was declared, Second the later one.
	First  ast.Location
	Second ast.Location
}

// Object describes one exposed class.
//
// Description:
//
//	Methods and Properties are keyed by external name (alias or name) in
//	declaration order. A later member with the same key replaces the
//	earlier one and the clash is kept in Collisions for whole-module
//	validation. Warnings holds non-fatal diagnostics raised while building.
type Object struct {
	Name        string
	Description string
	Constructor *Constructor
	Methods     *ordered.Map[*Function]
	Properties  *ordered.Map[*Property]
	Exported    bool
	Location    ast.Location

	Collisions []Collision
	Warnings   []Warning
}

// NewObject builds an Object from a class declaration node.
//
// Description:
//
//	Fails with ErrMissingName for an anonymous class and with ErrNotExposed
//	when the class lacks the object marker. A class that is not exported
//	still builds; a WarnMissingExport warning is logged and recorded.
//
// Inputs:
//
//	node - A class_declaration, abstract_class_declaration or class node.
//	file - The file the node belongs to.
//	markers - Decorator names to match.
//	logger - Destination for warnings. Nil uses slog.Default().
//
// Outputs:
//
//	*Object - The built descriptor with unresolved type references.
//	error - Non-nil on a fatal introspection error.
func NewObject(node *sitter.Node, file *ast.File, markers Markers, logger *slog.Logger) (*Object, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc := file.Location(node)
	name := file.Name(node)
	if name == "" {
		return nil, newError(ErrMissingName, "", loc, "could not resolve name of class")
	}

	if !file.IsDecoratedWith(node, markers.Object) {
		return nil, newError(ErrNotExposed, name, loc,
			"class %s is used by the module but not exposed with the @%s decorator", name, markers.Object)
	}

	obj := &Object{
		Name:        name,
		Description: file.Doc(node),
		Methods:     ordered.New[*Function](),
		Properties:  ordered.New[*Property](),
		Exported:    file.IsExported(node),
		Location:    loc,
	}

	if !obj.Exported {
		w := Warning{
			Kind:     WarnMissingExport,
			Name:     name,
			Location: loc,
			Message:  fmt.Sprintf("missing export in class %s but it's used by the module", name),
		}
		obj.Warnings = append(obj.Warnings, w)
		logger.Warn("exposed class is not exported",
			slog.String("class", name),
			slog.String("location", loc.String()),
		)
	}

	body := ast.Body(node)
	if body == nil {
		return obj, nil
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)

		switch {
		case member.Type() == ast.NodeFieldDefinition:
			p, err := NewProperty(member, file, markers)
			if err != nil {
				return nil, err
			}
			obj.addProperty(p)

		case isConstructor(file, member):
			c, err := NewConstructor(member, file)
			if err != nil {
				return nil, err
			}
			obj.Constructor = c

		case member.Type() == ast.NodeMethodDefinition && file.IsDecoratedWith(member, markers.Function):
			fn, err := NewFunction(member, file, markers)
			if err != nil {
				return nil, err
			}
			obj.addMethod(fn)
		}
	}

	return obj, nil
}

func (o *Object) addProperty(p *Property) {
	key := p.ExternalName()
	if prev, ok := o.Properties.Get(key); ok {
		o.Collisions = append(o.Collisions, Collision{Key: key, Kind: CollisionProperty, First: prev.Location, Second: p.Location})
	} else if fn, ok := o.Methods.Get(key); ok {
		o.Collisions = append(o.Collisions, Collision{Key: key, Kind: CollisionMethodProperty, First: fn.Location, Second: p.Location})
	}
	o.Properties.Set(key, p)
}

func (o *Object) addMethod(fn *Function) {
	key := fn.ExternalName()
	if prev, ok := o.Methods.Get(key); ok {
		o.Collisions = append(o.Collisions, Collision{Key: key, Kind: CollisionMethod, First: prev.Location, Second: fn.Location})
	} else if p, ok := o.Properties.Get(key); ok {
		o.Collisions = append(o.Collisions, Collision{Key: key, Kind: CollisionMethodProperty, First: p.Location, Second: fn.Location})
	}
	o.Methods.Set(key, fn)
}

// References returns every named type the object depends on.
//
// The order is the first-seen order across the constructor, then the
// properties, then the methods, each in map order. Names are unique.
func (o *Object) References() []string {
	set := NewReferenceSet()
	if o.Constructor != nil {
		set.Add(o.Constructor.References()...)
	}
	for _, p := range o.Properties.Values() {
		if ref, ok := p.Reference(); ok {
			set.Add(ref)
		}
	}
	for _, fn := range o.Methods.Values() {
		set.Add(fn.References()...)
	}
	return set.Names()
}

// PropagateReferences resolves every type in the object against refs.
//
// Calling it again with the same refs leaves the object unchanged.
func (o *Object) PropagateReferences(refs References) error {
	if o.Constructor != nil {
		if err := o.Constructor.PropagateReferences(refs); err != nil {
			return err
		}
	}
	if err := o.Properties.Each(func(_ string, p *Property) error {
		return p.PropagateReferences(refs)
	}); err != nil {
		return err
	}
	return o.Methods.Each(func(_ string, fn *Function) error {
		return fn.PropagateReferences(refs)
	})
}
