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

// Function describes one exposed method.
type Function struct {
	Name        string
	Alias       string
	Description string
	Arguments   []*Argument
	ReturnType  *TypeRef
	Location    ast.Location
}

// NewFunction extracts a Function from a method_definition node.
//
// Description:
//
//	The alias is the string argument of the function marker. A missing
//	return annotation means the method returns nothing (Void). Promise<T>
//	return types are unwrapped to T. Parameter descriptions come from
//	inline JSDoc, falling back to the method's `@param` tags.
//
// Outputs:
//
//	*Function - The extracted descriptor.
//	error - ErrMissingName or ErrUnresolvableType wrapped in *IntrospectionError.
func NewFunction(node *sitter.Node, file *ast.File, markers Markers) (*Function, error) {
	loc := file.Location(node)
	name := file.Name(node)
	if name == "" {
		return nil, newError(ErrMissingName, "", loc, "could not resolve name of method")
	}

	fn := &Function{
		Name:        name,
		Description: file.Doc(node),
		Location:    loc,
	}
	if alias, ok := file.DecoratorArgument(node, markers.Function); ok {
		fn.Alias = alias
	}

	args, err := argumentsFromNode(node.ChildByFieldName("parameters"), file, file.ParamDocs(node))
	if err != nil {
		return nil, err
	}
	fn.Arguments = args

	if rt := node.ChildByFieldName("return_type"); rt != nil {
		t, err := typeFromNode(file, rt)
		if err != nil {
			return nil, err
		}
		fn.ReturnType = t
	} else {
		fn.ReturnType = scalarRef(KindVoid, loc)
	}
	return fn, nil
}

// ExternalName is the key the function is exposed under: its alias, or its name.
func (fn *Function) ExternalName() string {
	if fn.Alias != "" {
		return fn.Alias
	}
	return fn.Name
}

// References returns the named types of the arguments, in order, then of the return type.
func (fn *Function) References() []string {
	set := NewReferenceSet()
	argumentReferences(set, fn.Arguments)
	if ref, ok := fn.ReturnType.Reference(); ok {
		set.Add(ref)
	}
	return set.Names()
}

// PropagateReferences resolves argument and return types against refs.
func (fn *Function) PropagateReferences(refs References) error {
	if err := propagateArguments(fn.Arguments, refs); err != nil {
		return err
	}
	return fn.ReturnType.resolve(refs)
}
