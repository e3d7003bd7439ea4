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
	"github.com/AleutianAI/introspect/services/introspect/ordered"
)

// EnumValue is one member of an exposed enum.
type EnumValue struct {
	Name        string
	Value       string
	Description string

	// Numeric is true when the initializer is a number literal.
	Numeric bool

	Location ast.Location
}

// Enum describes an enum declaration referenced by an exposed member.
type Enum struct {
	Name        string
	Description string
	Values      *ordered.Map[*EnumValue]
	Location    ast.Location
}

// NewEnum builds an Enum from an enum_declaration node.
//
// TypeScript does not allow decorators on enums, so an enum needs no marker:
// it is exposed by being referenced. Members without an initializer take
// their own name as value.
func NewEnum(node *sitter.Node, file *ast.File) (*Enum, error) {
	loc := file.Location(node)
	name := file.Name(node)
	if name == "" {
		return nil, newError(ErrMissingName, "", loc, "could not resolve name of enum")
	}

	e := &Enum{
		Name:        name,
		Description: file.Doc(node),
		Values:      ordered.New[*EnumValue](),
		Location:    loc,
	}

	body := ast.Body(node)
	if body == nil {
		return e, nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		v := &EnumValue{
			Description: file.Doc(member),
			Location:    file.Location(member),
		}
		switch member.Type() {
		case ast.NodePropertyIdentifier:
			v.Name = file.Text(member)
			v.Value = v.Name
		case ast.NodeString:
			v.Name = file.StringContent(member)
			v.Value = v.Name
		case ast.NodeEnumAssignment:
			v.Name = file.Name(member)
			v.Value = v.Name
			if value := member.ChildByFieldName("value"); value != nil {
				if value.Type() == ast.NodeString {
					v.Value = file.StringContent(value)
				} else {
					v.Value = file.Text(value)
					v.Numeric = isNumberLiteral(value)
				}
			}
		default:
			continue
		}
		e.Values.Set(v.Name, v)
	}
	return e, nil
}

func isNumberLiteral(node *sitter.Node) bool {
	switch node.Type() {
	case "number":
		return true
	case "unary_expression":
		arg := node.ChildByFieldName("argument")
		return arg != nil && arg.Type() == "number"
	}
	return false
}
