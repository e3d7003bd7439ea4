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

// Constructor describes a class constructor. It has no name, alias or return type.
type Constructor struct {
	Arguments []*Argument
	Location  ast.Location
}

// NewConstructor extracts a Constructor from a `constructor` method_definition node.
func NewConstructor(node *sitter.Node, file *ast.File) (*Constructor, error) {
	args, err := argumentsFromNode(node.ChildByFieldName("parameters"), file, file.ParamDocs(node))
	if err != nil {
		return nil, err
	}
	return &Constructor{
		Arguments: args,
		Location:  file.Location(node),
	}, nil
}

// References returns the named types of the arguments in order.
func (c *Constructor) References() []string {
	set := NewReferenceSet()
	argumentReferences(set, c.Arguments)
	return set.Names()
}

// PropagateReferences resolves argument types against refs.
func (c *Constructor) PropagateReferences(refs References) error {
	return propagateArguments(c.Arguments, refs)
}

func isConstructor(file *ast.File, node *sitter.Node) bool {
	return node.Type() == ast.NodeMethodDefinition && file.Name(node) == "constructor"
}
