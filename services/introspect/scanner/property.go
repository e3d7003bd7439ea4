// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scanner

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/introspect/services/introspect/ast"
)

// Property describes one class property.
type Property struct {
	Name        string
	Alias       string
	Description string
	// Type is nil for an unexposed property whose type cannot be inferred.
	Type *TypeRef

	// IsExposed is true when the property carries the field or function marker.
	IsExposed bool

	Location ast.Location
}

// NewProperty extracts a Property from a public_field_definition node.
//
// Description:
//
//	The type comes from the annotation when present, otherwise it is
//	inferred from a literal initializer, or from `new X(...)` on an exposed
//	property. An unexposed property with neither keeps a nil Type. The alias is the string argument of
//	the field marker, falling back to the function marker. A `?` after the
//	name makes the type optional.
//
// Outputs:
//
//	*Property - The extracted descriptor.
//	error - ErrMissingName or ErrUnresolvableType wrapped in *IntrospectionError.
func NewProperty(node *sitter.Node, file *ast.File, markers Markers) (*Property, error) {
	loc := file.Location(node)
	name := file.Name(node)
	if name == "" {
		return nil, newError(ErrMissingName, "", loc, "could not resolve name of property")
	}

	p := &Property{
		Name:        name,
		Description: file.Doc(node),
		IsExposed:   file.IsDecoratedWith(node, markers.Field) || file.IsDecoratedWith(node, markers.Function),
		Location:    loc,
	}

	if alias, ok := file.DecoratorArgument(node, markers.Field); ok {
		p.Alias = alias
	} else if alias, ok := file.DecoratorArgument(node, markers.Function); ok {
		p.Alias = alias
	}

	if annotation := node.ChildByFieldName("type"); annotation != nil {
		t, err := typeFromNode(file, annotation)
		if err != nil {
			return nil, err
		}
		p.Type = t
	} else if t, ok := typeFromInitializer(file, node.ChildByFieldName("value"), p.IsExposed); ok {
		p.Type = t
	} else if p.IsExposed {
		return nil, newError(ErrUnresolvableType, name, loc, "could not resolve type of property %q", name)
	}

	if p.Type != nil && file.HasModifier(node, "?") {
		p.Type.Optional = true
	}
	return p, nil
}

// typeFromInitializer infers a property type from its initializer. Literals
// give scalars; `new X(...)` gives a reference to X when withRefs is set.
func typeFromInitializer(file *ast.File, value *sitter.Node, withRefs bool) (*TypeRef, bool) {
	if t, ok := typeFromLiteral(file, value); ok {
		return t, true
	}
	if !withRefs || value == nil || value.Type() != ast.NodeNewExpression {
		return nil, false
	}
	ctor := value.ChildByFieldName("constructor")
	if ctor == nil {
		return nil, false
	}
	switch ctor.Type() {
	case ast.NodeIdentifier:
		return namedRef(file.Text(ctor), file.Location(ctor)), true
	case ast.NodeMemberExpression:
		if prop := ctor.ChildByFieldName("property"); prop != nil {
			return namedRef(file.Text(prop), file.Location(ctor)), true
		}
	}
	return nil, false
}

// ExternalName is the key the property is exposed under: its alias, or its name.
func (p *Property) ExternalName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.Name
}

// Reference returns the named type the property depends on, if any.
func (p *Property) Reference() (string, bool) {
	if p.Type == nil {
		return "", false
	}
	return p.Type.Reference()
}

// PropagateReferences resolves the property type against refs.
func (p *Property) PropagateReferences(refs References) error {
	if p.Type == nil {
		return nil
	}
	return p.Type.resolve(refs)
}
