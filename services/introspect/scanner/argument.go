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

// Argument describes one parameter of a function or constructor.
type Argument struct {
	Name        string
	Description string
	Type        *TypeRef
	IsOptional  bool
	IsVariadic  bool

	// DefaultValue is the JSON text of a literal default, or the raw source
	// of any other default expression. Empty when there is no default.
	DefaultValue string

	Location ast.Location
}

// newArgument extracts an Argument from a required_parameter or optional_parameter node.
func newArgument(node *sitter.Node, file *ast.File, paramDocs map[string]string) (*Argument, error) {
	loc := file.Location(node)
	name := file.Name(node)
	if name == "" {
		return nil, newError(ErrMissingName, "", loc, "could not resolve name of parameter")
	}

	arg := &Argument{
		Name:     name,
		Location: loc,
	}

	if pattern := node.ChildByFieldName("pattern"); pattern != nil && pattern.Type() == ast.NodeRestPattern {
		arg.IsVariadic = true
	}

	arg.Description = file.Doc(node)
	if arg.Description == "" {
		arg.Description = paramDocs[name]
	}

	value := node.ChildByFieldName("value")
	if annotation := node.ChildByFieldName("type"); annotation != nil {
		t, err := typeFromNode(file, annotation)
		if err != nil {
			return nil, err
		}
		arg.Type = t
	} else if t, ok := typeFromLiteral(file, value); ok {
		arg.Type = t
	} else {
		return nil, newError(ErrUnresolvableType, name, loc, "could not resolve type of parameter %q", name)
	}

	if value != nil {
		arg.DefaultValue = literalDefault(file, value)
	}
	arg.IsOptional = node.Type() == ast.NodeOptionalParameter || value != nil || arg.Type.Optional
	return arg, nil
}

// argumentsFromNode extracts the parameters of a formal_parameters node in order.
//
// A leading `this` parameter only types the receiver and is skipped.
func argumentsFromNode(params *sitter.Node, file *ast.File, paramDocs map[string]string) ([]*Argument, error) {
	args := []*Argument{}
	if params == nil {
		return args, nil
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case ast.NodeRequiredParameter, ast.NodeOptionalParameter:
		default:
			continue
		}
		if file.Name(child) == "this" {
			continue
		}
		arg, err := newArgument(child, file, paramDocs)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func argumentReferences(set *ReferenceSet, args []*Argument) {
	for _, a := range args {
		if ref, ok := a.Type.Reference(); ok {
			set.Add(ref)
		}
	}
}

func propagateArguments(args []*Argument, refs References) error {
	for _, a := range args {
		if err := a.Type.resolve(refs); err != nil {
			return err
		}
	}
	return nil
}
