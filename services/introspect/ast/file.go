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
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// File is one parsed TypeScript source file.
//
// Description:
//
//	File owns the tree-sitter tree and the content it was parsed from, and
//	provides the symbol/doc accessor used by the extractors. Nodes obtained
//	from a File are only valid until Close is called.
//
// Thread Safety:
//
//	Read-only accessors are safe for concurrent use. Close must not race
//	with any other call.
type File struct {
	// Path is the path the file was parsed from.
	Path string

	// Content is the raw source.
	Content []byte

	// Hash is the hex SHA256 of Content.
	Hash string

	tree      *sitter.Tree
	root      *sitter.Node
	closeOnce sync.Once
}

// Root returns the program node. Nil once the file is closed.
func (f *File) Root() *sitter.Node {
	return f.root
}

// Close releases the tree-sitter tree.
func (f *File) Close() {
	f.closeOnce.Do(func() {
		if f.tree != nil {
			f.tree.Close()
		}
		f.tree = nil
		f.root = nil
	})
}

// Text returns the source text spanned by node.
func (f *File) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(f.Content[node.StartByte():node.EndByte()])
}

// Location returns the 1-indexed position where node starts.
func (f *File) Location(node *sitter.Node) Location {
	if node == nil {
		return Location{FilePath: f.Path}
	}
	p := node.StartPoint()
	return Location{
		FilePath: f.Path,
		Line:     int(p.Row) + 1,
		Column:   int(p.Column) + 1,
	}
}

// Name returns the declared identifier of a declaration, member or parameter.
//
// Returns an empty string for anonymous declarations such as
// `export default class {}`.
func (f *File) Name(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	for _, field := range []string{"name", "pattern"} {
		if child := node.ChildByFieldName(field); child != nil {
			if child.Type() == NodeRestPattern {
				return f.Name(child)
			}
			return f.Text(child)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case NodeTypeIdentifier, NodeIdentifier, NodePropertyIdentifier:
			return f.Text(child)
		}
	}
	return ""
}

// IsExported reports whether a top-level declaration is exported from its module.
func (f *File) IsExported(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	parent := node.Parent()
	return parent != nil && parent.Type() == NodeExportStatement
}

// HasModifier reports whether a member carries a keyword child such as
// "static", "readonly" or "abstract", or the given accessibility modifier.
func (f *File) HasModifier(node *sitter.Node, modifier string) bool {
	if node == nil {
		return false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case modifier:
			return true
		case NodeAccessibilityModifier:
			if f.Text(child) == modifier {
				return true
			}
		}
	}
	return false
}

// Doc returns the JSDoc text attached to node.
//
// Description:
//
//	Looks for a `/** ... */` comment immediately before the node, skipping
//	decorators that sit between the comment and a class member. For
//	declarations wrapped in an export statement, the comment before the
//	export statement is used. The comment markers, leading asterisks and
//	block tags (`@param`, `@returns`, ...) are stripped.
func (f *File) Doc(node *sitter.Node) string {
	if node == nil {
		return ""
	}

	if c := f.precedingDocComment(node); c != nil {
		return cleanDocComment(f.Text(c))
	}

	parent := node.Parent()
	if parent != nil && parent.Type() == NodeExportStatement {
		if c := f.precedingDocComment(parent); c != nil {
			return cleanDocComment(f.Text(c))
		}
	}

	return ""
}

// ParamDocs returns the `@param` descriptions of the JSDoc attached to node, keyed by parameter name.
//
// Both `@param name desc` and `@param {Type} name - desc` are understood.
func (f *File) ParamDocs(node *sitter.Node) map[string]string {
	if node == nil {
		return nil
	}
	c := f.precedingDocComment(node)
	if c == nil {
		if parent := node.Parent(); parent != nil && parent.Type() == NodeExportStatement {
			c = f.precedingDocComment(parent)
		}
	}
	if c == nil {
		return nil
	}

	docs := make(map[string]string)
	raw := strings.TrimSuffix(strings.TrimPrefix(f.Text(c), "/**"), "*/")
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		rest, ok := strings.CutPrefix(line, "@param")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "{") {
			if end := strings.Index(rest, "}"); end >= 0 {
				rest = strings.TrimSpace(rest[end+1:])
			}
		}
		name, desc, _ := strings.Cut(rest, " ")
		name = strings.Trim(name, "[]")
		if name == "" {
			continue
		}
		desc = strings.TrimSpace(desc)
		desc = strings.TrimSpace(strings.TrimPrefix(desc, "-"))
		docs[name] = desc
	}
	return docs
}

// precedingDocComment walks back over decorator siblings to the nearest JSDoc comment.
func (f *File) precedingDocComment(node *sitter.Node) *sitter.Node {
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		switch prev.Type() {
		case NodeDecorator:
			continue
		case NodeComment:
			if strings.HasPrefix(f.Text(prev), "/**") {
				return prev
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// cleanDocComment strips JSDoc markers and block tags.
func cleanDocComment(raw string) string {
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimSuffix(raw, "*/")

	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, " ")
		if strings.HasPrefix(line, "@") {
			break
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Declarations returns every top-level class and enum declaration in source order.
//
// Declarations wrapped in an export statement are unwrapped, so the returned
// nodes are always class_declaration, abstract_class_declaration, class
// (anonymous default export) or enum_declaration nodes.
func (f *File) Declarations() []*sitter.Node {
	root := f.Root()
	if root == nil {
		return nil
	}

	var decls []*sitter.Node
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case NodeExportStatement:
			for j := 0; j < int(child.ChildCount()); j++ {
				if gc := child.Child(j); isDeclaration(gc.Type()) {
					decls = append(decls, gc)
				}
			}
		default:
			if isDeclaration(child.Type()) {
				decls = append(decls, child)
			}
		}
	}
	return decls
}

// Classes returns every top-level class declaration in source order.
func (f *File) Classes() []*sitter.Node {
	var classes []*sitter.Node
	for _, d := range f.Declarations() {
		if IsClass(d) {
			classes = append(classes, d)
		}
	}
	return classes
}

// Enums returns every top-level enum declaration in source order.
func (f *File) Enums() []*sitter.Node {
	var enums []*sitter.Node
	for _, d := range f.Declarations() {
		if IsEnum(d) {
			enums = append(enums, d)
		}
	}
	return enums
}

// FindClass returns the top-level class declared with the given name, or nil.
func (f *File) FindClass(name string) *sitter.Node {
	for _, c := range f.Classes() {
		if f.Name(c) == name {
			return c
		}
	}
	return nil
}

// IsClass reports whether node is a class declaration of any flavour.
func IsClass(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case NodeClassDeclaration, NodeAbstractClassDeclaration, NodeClass:
		return true
	}
	return false
}

// IsEnum reports whether node is an enum declaration.
func IsEnum(node *sitter.Node) bool {
	return node != nil && node.Type() == NodeEnumDeclaration
}

func isDeclaration(nodeType string) bool {
	switch nodeType {
	case NodeClassDeclaration, NodeAbstractClassDeclaration, NodeClass, NodeEnumDeclaration:
		return true
	}
	return false
}

// Body returns the class_body or enum_body of a declaration, or nil.
func Body(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if body := node.ChildByFieldName("body"); body != nil {
		return body
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == NodeClassBody || child.Type() == NodeEnumBody {
			return child
		}
	}
	return nil
}

// StringContent returns the decoded content of a string literal node.
//
// String fragments are kept verbatim and escape sequences are decoded with
// JavaScript semantics, so `"say \"hi\""` yields `say "hi"`.
func (f *File) StringContent(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	parts := 0
	var high rune
	flush := func() {
		if high != 0 {
			b.WriteRune(utf8.RuneError)
			high = 0
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case NodeStringFragment:
			flush()
			b.WriteString(f.Text(child))
			parts++
		case NodeEscapeSequence:
			parts++
			r, s := decodeEscape(f.Text(child))
			if high != 0 && r >= 0xDC00 && r <= 0xDFFF {
				b.WriteRune(utf16.DecodeRune(high, r))
				high = 0
				continue
			}
			flush()
			switch {
			case r >= 0xD800 && r <= 0xDBFF:
				high = r
			case r >= 0:
				b.WriteRune(r)
			default:
				b.WriteString(s)
			}
		}
	}
	flush()
	if parts > 0 {
		return b.String()
	}
	return strings.Trim(f.Text(node), "\"'`")
}

// decodeEscape decodes one JavaScript escape sequence. A single code point
// (possibly a lone surrogate) is returned as r; otherwise r is -1 and s holds
// the replacement text.
func decodeEscape(esc string) (r rune, s string) {
	if len(esc) < 2 || esc[0] != '\\' {
		return -1, esc
	}
	body := esc[1:]
	switch body[0] {
	case '\n', '\r':
		return -1, ""
	case '0':
		if len(body) == 1 {
			return 0, ""
		}
	case 'u':
		hex := body[1:]
		if strings.HasPrefix(hex, "{") && strings.HasSuffix(hex, "}") {
			hex = hex[1 : len(hex)-1]
		}
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil && v <= utf8.MaxRune {
			return rune(v), ""
		}
		return -1, esc
	case '\'', '"', '`':
		return rune(body[0]), ""
	}
	if body == "\u2028" || body == "\u2029" {
		return -1, ""
	}
	if v, err := strconv.Unquote(`"` + esc + `"`); err == nil {
		return -1, v
	}
	return -1, body
}
