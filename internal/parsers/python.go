// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parsers

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/petar-djukic/rootcause/pkg/types"
)

var pythonIndicators = []indicator{
	{regexp.MustCompile(`Traceback \(most recent call last\)`), 0.4},
	{regexp.MustCompile(`File ".*\.py", line \d+`), 0.3},
	{regexp.MustCompile(`(Error|Exception):`), 0.2},
	{regexp.MustCompile(`(raise|def|class|import)\s+`), 0.1},
}

var (
	pyFrameRe     = regexp.MustCompile(`File "([^"]+)", line (\d+)(?:, in (.+))?`)
	pyErrorRe     = regexp.MustCompile(`(\w+(?:Error|Exception|Warning)): (.+?)(?:\n|$)`)
	pyErrorLineRe = regexp.MustCompile(`^\w+(?:Error|Exception|Warning)\b`)
	pyNoModuleRe  = regexp.MustCompile(`No module named '([\w.]+)'`)
	pyImportRe    = regexp.MustCompile(`^\s*(?:from\s+([\w.]+)\s+import\b|import\s+([\w.]+))`)
)

var pythonCategories = map[string]types.Category{
	"SyntaxError":         types.CategorySyntax,
	"IndentationError":    types.CategorySyntax,
	"TabError":            types.CategorySyntax,
	"ImportError":         types.CategoryImport,
	"ModuleNotFoundError": types.CategoryImport,
	"TypeError":           types.CategoryType,
	"AttributeError":      types.CategoryType,
	"NameError":           types.CategoryType,
}

var pythonFrameworks = []frameworkPattern{
	{"django", regexp.MustCompile(`(?i)django[/\\]`)},
	{"flask", regexp.MustCompile(`(?i)flask[/\\]`)},
	{"fastapi", regexp.MustCompile(`(?i)fastapi[/\\]`)},
	{"pytest", regexp.MustCompile(`(?i)pytest|_pytest`)},
	{"sqlalchemy", regexp.MustCompile(`(?i)sqlalchemy[/\\]`)},
}

// importQuery captures module names of Python import statements.
const importQuery = `
	(import_statement name: (dotted_name) @mod)
	(import_statement name: (aliased_import name: (dotted_name) @mod))
	(import_from_statement module_name: (dotted_name) @mod)
`

// Python parses CPython tracebacks.
type Python struct {
	base
}

// NewPython creates a Python traceback parser.
func NewPython(opts ...Option) *Python {
	return &Python{base: newBase(opts)}
}

func (p *Python) Name() string { return "Python" }

func (p *Python) Detect(text string) float64 {
	return score(text, pythonIndicators)
}

func (p *Python) Extract(text string) (*types.ParsedError, error) {
	frames := p.frames(text)
	errType, msg := p.errorInfo(text)

	category, ok := pythonCategories[errType]
	if !ok {
		category = types.CategoryRuntime
	}

	pe := &types.ParsedError{
		Language:    types.LangPython,
		Framework:   detectFramework(text, pythonFrameworks),
		ErrorType:   errType,
		Message:     msg,
		StackFrames: frames,
		Severity:    types.SeverityError,
		Category:    category,
		Confidence:  0.95,
		RawError:    p.raw(text),
	}
	if category == types.CategoryImport {
		pe.Imports = importedModules(frames, msg)
	}
	return pe, nil
}

// frames extracts `File "x", line N, in f` entries in text order. The line
// following each entry is taken as the code snippet when it is source code.
func (p *Python) frames(text string) []types.StackFrame {
	lines := strings.Split(text, "\n")
	frames := []types.StackFrame{}
	for i, line := range lines {
		m := pyFrameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			continue
		}
		frame := types.StackFrame{
			FilePath: m[1],
			Line:     n,
			Function: strings.TrimSpace(m[3]),
		}
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !strings.HasPrefix(next, "File ") && !pyErrorLineRe.MatchString(next) {
				frame.CodeSnippet = next
			}
		}
		frames = append(frames, frame)
	}
	return frames
}

// errorInfo finds the `SomeError: message` line. Without one, the last
// non-empty line is split on its first colon.
func (p *Python) errorInfo(text string) (string, string) {
	if m := pyErrorRe.FindStringSubmatch(text); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}

	var last string
	for _, l := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			last = t
		}
	}
	if typ, msg, ok := strings.Cut(last, ":"); ok {
		return strings.TrimSpace(typ), strings.TrimSpace(msg)
	}
	lines := strings.Split(text, "\n")
	return "UnknownError", truncate(lines[len(lines)-1], 200)
}

// importedModules lists the modules involved in an import failure. Frame
// code lines are parsed with the tree-sitter Python grammar; when that parse
// fails (the subject file is often broken) a line regex is used instead.
func importedModules(frames []types.StackFrame, msg string) []string {
	var src strings.Builder
	for _, f := range frames {
		if f.CodeSnippet != "" {
			src.WriteString(f.CodeSnippet)
			src.WriteByte('\n')
		}
	}

	seen := make(map[string]bool)
	var mods []string
	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			mods = append(mods, m)
		}
	}

	code := src.String()
	if names, ok := parseImports([]byte(code)); ok {
		for _, n := range names {
			add(n)
		}
	} else {
		for _, line := range strings.Split(code, "\n") {
			if m := pyImportRe.FindStringSubmatch(line); m != nil {
				add(m[1] + m[2])
			}
		}
	}

	if m := pyNoModuleRe.FindStringSubmatch(msg); m != nil {
		add(m[1])
	}
	return mods
}

// parseImports runs the import query over src. ok is false when the grammar
// reports a syntax error.
func parseImports(src []byte) ([]string, bool) {
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, true
	}
	lang := python.GetLanguage()
	root, err := sitter.ParseCtx(context.Background(), src, lang)
	if err != nil || root == nil || root.HasError() {
		return nil, false
	}

	q, err := sitter.NewQuery([]byte(importQuery), lang)
	if err != nil {
		return nil, false
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var names []string
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			names = append(names, c.Node.Content(src))
		}
	}
	return names, true
}
