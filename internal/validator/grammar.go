// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package validator

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// grammar pairs a tree-sitter language with the optional external checker
// for the same language.
type grammar struct {
	lang *sitter.Language
	tool *tool
}

var grammars = map[types.Language]*grammar{
	types.LangPython:     {lang: python.GetLanguage(), tool: pythonCheck},
	types.LangJavaScript: {lang: javascript.GetLanguage(), tool: nodeCheck},
	types.LangJSX:        {lang: javascript.GetLanguage()},
	types.LangTypeScript: {lang: typescript.GetLanguage(), tool: tscCheck},
	types.LangTSX:        {lang: tsx.GetLanguage(), tool: tscTSXCheck},
}

func grammarFor(lang types.Language) *grammar {
	return grammars[lang]
}

// parseCheck parses content and reports the first ERROR or MISSING node.
func parseCheck(ctx context.Context, content []byte, g *grammar) (Result, error) {
	root, err := sitter.ParseCtx(ctx, content, g.lang)
	if err != nil {
		return Result{}, fmt.Errorf("parsing: %w", err)
	}
	if !root.HasError() {
		return Result{Valid: true, Checker: "tree-sitter"}, nil
	}

	bad := firstError(root)
	if bad == nil {
		return Result{Valid: false, Message: "invalid syntax", Checker: "tree-sitter"}, nil
	}
	pt := bad.StartPoint()
	msg := "invalid syntax"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %q", bad.Type())
	} else if text := bad.Content(content); text != "" {
		msg = fmt.Sprintf("unexpected %q", snippet(text))
	}
	return Result{
		Valid:   false,
		Line:    int(pt.Row) + 1,
		Column:  int(pt.Column) + 1,
		Message: msg,
		Checker: "tree-sitter",
	}, nil
}

// firstError returns the earliest ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// snippet shortens error text to its first line, at most 40 bytes.
func snippet(s string) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}
