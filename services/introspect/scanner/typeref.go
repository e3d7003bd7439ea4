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
	"strings"

	gojson "github.com/goccy/go-json"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/introspect/services/introspect/ast"
)

// TypeKind is the kind of a TypeRef.
type TypeKind string

const (
	KindString  TypeKind = "String"
	KindInteger TypeKind = "Integer"
	KindFloat   TypeKind = "Float"
	KindBoolean TypeKind = "Boolean"
	KindVoid    TypeKind = "Void"
	KindList    TypeKind = "List"
	KindObject  TypeKind = "Object"
	KindEnum    TypeKind = "Enum"

	// KindRef is a named reference that has not been resolved yet.
	KindRef TypeKind = "Ref"
)

// IsScalar reports whether the kind is a scalar marker.
func (k TypeKind) IsScalar() bool {
	switch k {
	case KindString, KindInteger, KindFloat, KindBoolean, KindVoid:
		return true
	}
	return false
}

// predefinedScalars maps TypeScript predefined types to scalar kinds.
var predefinedScalars = map[string]TypeKind{
	"string":    KindString,
	"number":    KindInteger,
	"boolean":   KindBoolean,
	"void":      KindVoid,
	"undefined": KindVoid,
}

// TypeRef is a type reference used by a property, argument or return value.
//
// Description:
//
//	A TypeRef is either a scalar, a list of another TypeRef, or a named
//	reference. Named references start as KindRef and are rewritten in place
//	to KindObject, KindEnum or a scalar kind by PropagateReferences. Name
//	keeps the referenced identifier after resolution, and Index is the
//	position of the linked descriptor in the module arena (-1 otherwise).
type TypeRef struct {
	Kind     TypeKind
	Name     string
	Of       *TypeRef
	Optional bool
	Index    int
	Location ast.Location
}

func scalarRef(kind TypeKind, loc ast.Location) *TypeRef {
	return &TypeRef{Kind: kind, Index: -1, Location: loc}
}

func namedRef(name string, loc ast.Location) *TypeRef {
	return &TypeRef{Kind: KindRef, Name: name, Index: -1, Location: loc}
}

// Reference returns the named dependency of the type, if any.
//
// Lists report the reference of their element. Scalars written with a
// predefined keyword have no reference.
func (t *TypeRef) Reference() (string, bool) {
	if t == nil {
		return "", false
	}
	if t.Kind == KindList {
		return t.Of.Reference()
	}
	if t.Name != "" {
		return t.Name, true
	}
	return "", false
}

// IsResolved reports whether no unresolved reference remains in the type.
func (t *TypeRef) IsResolved() bool {
	if t == nil {
		return true
	}
	if t.Kind == KindList {
		return t.Of.IsResolved()
	}
	return t.Kind != KindRef
}

// String renders the type compactly, e.g. "[Foo]?" for an optional list of Foo.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	var s string
	switch {
	case t.Kind == KindList:
		s = "[" + t.Of.String() + "]"
	case t.Kind.IsScalar():
		s = string(t.Kind)
	default:
		s = t.Name
	}
	if t.Optional {
		s += "?"
	}
	return s
}

// resolve rewrites named references using refs. Safe to call repeatedly.
func (t *TypeRef) resolve(refs References) error {
	if t == nil {
		return nil
	}
	if t.Kind == KindList {
		return t.Of.resolve(refs)
	}
	if t.Name == "" {
		return nil
	}
	r, ok := refs[t.Name]
	if !ok {
		return newError(ErrUnresolvableType, t.Name, t.Location, "could not resolve type %q", t.Name)
	}
	t.Kind = r.Kind
	t.Index = r.Index
	return nil
}

// typeFromNode converts a tree-sitter type node into a TypeRef.
//
// Description:
//
//	Handles type annotations, predefined scalars, identifiers (plain and
//	namespaced), arrays, Array<T>/ReadonlyArray<T>, Promise<T> (unwrapped),
//	parenthesized types and nullable unions (`T | null | undefined`).
//	Anything else fails with ErrUnresolvableType since the schema would
//	otherwise be silently incomplete.
func typeFromNode(f *ast.File, node *sitter.Node) (*TypeRef, error) {
	if node == nil {
		return nil, newError(ErrUnresolvableType, "", ast.Location{FilePath: f.Path}, "missing type")
	}
	loc := f.Location(node)

	switch node.Type() {
	case ast.NodeTypeAnnotation, "parenthesized_type", "readonly_type":
		if node.NamedChildCount() == 0 {
			break
		}
		return typeFromNode(f, node.NamedChild(0))

	case "predefined_type":
		if kind, ok := predefinedScalars[f.Text(node)]; ok {
			return scalarRef(kind, loc), nil
		}

	case ast.NodeTypeIdentifier:
		return namedRef(f.Text(node), loc), nil

	case "nested_type_identifier":
		if name := node.ChildByFieldName("name"); name != nil {
			return namedRef(f.Text(name), loc), nil
		}

	case "literal_type":
		if text := f.Text(node); text == "undefined" || text == "null" {
			return scalarRef(KindVoid, loc), nil
		}

	case "array_type":
		if node.NamedChildCount() == 0 {
			break
		}
		elem, err := typeFromNode(f, node.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindList, Of: elem, Index: -1, Location: loc}, nil

	case "generic_type":
		return genericFromNode(f, node)

	case "union_type":
		return unionFromNode(f, node)
	}

	text := f.Text(node)
	return nil, newError(ErrUnresolvableType, text, loc, "unsupported type %q", text)
}

func genericFromNode(f *ast.File, node *sitter.Node) (*TypeRef, error) {
	loc := f.Location(node)
	name := f.Text(node.ChildByFieldName("name"))
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}

	args := node.ChildByFieldName("type_arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return nil, newError(ErrUnresolvableType, name, loc, "unsupported generic type %q", f.Text(node))
	}
	arg, err := typeFromNode(f, args.NamedChild(0))
	if err != nil {
		return nil, err
	}

	switch name {
	case "Promise", "PromiseLike":
		return arg, nil
	case "Array", "ReadonlyArray":
		return &TypeRef{Kind: KindList, Of: arg, Index: -1, Location: loc}, nil
	}
	return nil, newError(ErrUnresolvableType, name, loc, "unsupported generic type %q", f.Text(node))
}

// unionFromNode accepts exactly one non-nullish member and marks it optional.
func unionFromNode(f *ast.File, node *sitter.Node) (*TypeRef, error) {
	loc := f.Location(node)

	var members []*sitter.Node
	var flatten func(n *sitter.Node)
	flatten = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "union_type" {
				flatten(child)
				continue
			}
			members = append(members, child)
		}
	}
	flatten(node)

	var kept *TypeRef
	nullable := false
	for _, m := range members {
		if isNullish(f, m) {
			nullable = true
			continue
		}
		if kept != nil {
			return nil, newError(ErrUnresolvableType, f.Text(node), loc, "unsupported union type %q", f.Text(node))
		}
		t, err := typeFromNode(f, m)
		if err != nil {
			return nil, err
		}
		kept = t
	}

	if kept == nil {
		return scalarRef(KindVoid, loc), nil
	}
	kept.Optional = kept.Optional || nullable
	return kept, nil
}

func isNullish(f *ast.File, node *sitter.Node) bool {
	switch f.Text(node) {
	case "null", "undefined":
		return true
	}
	return false
}

// typeFromLiteral infers a scalar from a literal initializer or default value.
func typeFromLiteral(f *ast.File, node *sitter.Node) (*TypeRef, bool) {
	if node == nil {
		return nil, false
	}
	loc := f.Location(node)
	switch node.Type() {
	case ast.NodeString, "template_string":
		return scalarRef(KindString, loc), true
	case "true", "false":
		return scalarRef(KindBoolean, loc), true
	case "number":
		if strings.ContainsAny(f.Text(node), ".eE") && !strings.HasPrefix(f.Text(node), "0x") {
			return scalarRef(KindFloat, loc), true
		}
		return scalarRef(KindInteger, loc), true
	case "unary_expression":
		if arg := node.ChildByFieldName("argument"); arg != nil && arg.Type() == "number" {
			return typeFromLiteral(f, arg)
		}
	}
	return nil, false
}

// literalDefault renders a default value expression as JSON text when it is a literal.
func literalDefault(f *ast.File, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case ast.NodeString:
		b, err := gojson.Marshal(f.StringContent(node))
		if err == nil {
			return string(b)
		}
	}
	return f.Text(node)
}
