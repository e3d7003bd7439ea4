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
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/introspect/services/introspect/ast"
)

// discardLogger swallows warnings logged during tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parse parses src as test.ts and closes it at test end.
func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := ast.NewParser().Parse(context.Background(), []byte(src), "test.ts")
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

// memberOf wraps members in a class body and returns the member with the given name.
func memberOf(t *testing.T, members, name string) (*sitter.Node, *ast.File) {
	t.Helper()
	f := parse(t, "class T {\n"+members+"\n}\n")
	class := f.FindClass("T")
	require.NotNil(t, class)

	body := ast.Body(class)
	require.NotNil(t, body)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case ast.NodeDecorator, ast.NodeComment:
			continue
		}
		if f.Name(child) == name {
			return child, f
		}
	}
	t.Fatalf("member %q not found in %q", name, members)
	return nil, nil
}

// describe renders every type in obj, including resolution state, one per line.
func describe(obj *Object) string {
	var b strings.Builder
	writeType := func(label string, tr *TypeRef) {
		if tr == nil {
			fmt.Fprintf(&b, "%s <none>\n", label)
			return
		}
		fmt.Fprintf(&b, "%s %s kind=%s index=%d\n", label, tr, tr.Kind, tr.Index)
		if tr.Of != nil {
			fmt.Fprintf(&b, "%s.of kind=%s index=%d\n", label, tr.Of.Kind, tr.Of.Index)
		}
	}
	if obj.Constructor != nil {
		for _, a := range obj.Constructor.Arguments {
			writeType("ctor."+a.Name, a.Type)
		}
	}
	for _, key := range obj.Properties.Keys() {
		p, _ := obj.Properties.Get(key)
		writeType("prop."+key, p.Type)
	}
	for _, key := range obj.Methods.Keys() {
		fn, _ := obj.Methods.Get(key)
		for _, a := range fn.Arguments {
			writeType("method."+key+"."+a.Name, a.Type)
		}
		writeType("method."+key+".return", fn.ReturnType)
	}
	return b.String()
}
