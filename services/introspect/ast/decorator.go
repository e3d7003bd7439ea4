// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Decorators returns the decorator nodes attached to node.
//
// Description:
//
//	tree-sitter places decorators in three spots depending on the
//	declaration: as children of the node itself (fields, parameters,
//	undecorated-export classes), as children of the wrapping export
//	statement (`@object() export class X`), and as preceding siblings inside
//	a class body (methods). All three are collected, in source order.
func (f *File) Decorators(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}

	var decorators []*sitter.Node

	parent := node.Parent()
	if parent != nil && parent.Type() == NodeExportStatement {
		decorators = append(decorators, childDecorators(parent)...)
	}

	if parent != nil && parent.Type() == NodeClassBody {
		var preceding []*sitter.Node
		for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
			if prev.Type() == NodeComment {
				continue
			}
			if prev.Type() != NodeDecorator {
				break
			}
			preceding = append(preceding, prev)
		}
		for i := len(preceding) - 1; i >= 0; i-- {
			decorators = append(decorators, preceding[i])
		}
	}

	return append(decorators, childDecorators(node)...)
}

func childDecorators(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == NodeDecorator {
			out = append(out, child)
		}
	}
	return out
}

// DecoratorName returns the marker name of a decorator node.
//
// `@object`, `@object()` and `@dagger.object()` all yield "object".
func (f *File) DecoratorName(decorator *sitter.Node) string {
	name := ""
	for i := 0; i < int(decorator.ChildCount()); i++ {
		child := decorator.Child(i)
		switch child.Type() {
		case NodeIdentifier, NodeMemberExpression:
			name = f.Text(child)
		case NodeCallExpression:
			if fn := child.ChildByFieldName("function"); fn != nil {
				name = f.Text(fn)
			}
		}
		if name != "" {
			break
		}
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// IsDecoratedWith reports whether node carries the named marker.
//
// This is a pure predicate: a node without decorators yields false.
func (f *File) IsDecoratedWith(node *sitter.Node, marker string) bool {
	return f.FindDecorator(node, marker) != nil
}

// FindDecorator returns the first decorator on node with the given marker name.
func (f *File) FindDecorator(node *sitter.Node, marker string) *sitter.Node {
	if marker == "" {
		return nil
	}
	for _, d := range f.Decorators(node) {
		if f.DecoratorName(d) == marker {
			return d
		}
	}
	return nil
}

// DecoratorArgument returns the first string literal argument of the named marker.
//
// `@func("alias")` yields ("alias", true); `@func()` yields ("", false).
func (f *File) DecoratorArgument(node *sitter.Node, marker string) (string, bool) {
	d := f.FindDecorator(node, marker)
	if d == nil {
		return "", false
	}
	for i := 0; i < int(d.ChildCount()); i++ {
		call := d.Child(i)
		if call.Type() != NodeCallExpression {
			continue
		}
		args := call.ChildByFieldName("arguments")
		if args == nil {
			return "", false
		}
		for j := 0; j < int(args.NamedChildCount()); j++ {
			arg := args.NamedChild(j)
			if arg.Type() == NodeString {
				return f.StringContent(arg), true
			}
		}
	}
	return "", false
}
