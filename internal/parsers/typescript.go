// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/petar-djukic/rootcause/pkg/types"
)

var typescriptIndicators = []indicator{
	{regexp.MustCompile(`\.ts\(\d+,\d+\):`), 0.4},
	{regexp.MustCompile(`error TS\d+:`), 0.4},
	{regexp.MustCompile(`Type .+ is not assignable to type`), 0.2},
}

// tsDiagRe matches tsc diagnostics: file.ts(line,col): error TS2322: message
var tsDiagRe = regexp.MustCompile(`([^\s]+\.tsx?)\((\d+),(\d+)\): error (TS\d+): (.+)`)

// tsCodeCategories maps specific diagnostic codes to categories. Codes in
// the 1000-1999 range are grammar errors; everything else is a type error.
var tsCodeCategories = map[string]types.Category{
	"TS2307": types.CategoryImport, // Cannot find module
	"TS2792": types.CategoryImport, // Cannot find module, moduleResolution hint
	"TS7016": types.CategoryImport, // Missing declaration file
	"TS5083": types.CategoryBuild,  // Cannot read tsconfig
	"TS6053": types.CategoryBuild,  // File not found
}

// TypeScript parses tsc compiler output.
type TypeScript struct {
	base
}

// NewTypeScript creates a tsc diagnostic parser.
func NewTypeScript(opts ...Option) *TypeScript {
	return &TypeScript{base: newBase(opts)}
}

func (p *TypeScript) Name() string { return "TypeScript" }

func (p *TypeScript) Detect(text string) float64 {
	return score(text, typescriptIndicators)
}

func (p *TypeScript) Extract(text string) (*types.ParsedError, error) {
	frames, codes := tsDiagnostics(text)

	pe := &types.ParsedError{
		Language:    types.LangTypeScript,
		ErrorType:   "TypeScriptError",
		Message:     firstLine(text, 200),
		StackFrames: frames,
		Severity:    types.SeverityError,
		Category:    types.CategoryType,
		Confidence:  0.92,
		RawError:    p.raw(text),
	}
	if len(frames) > 0 {
		pe.Message = frames[0].CodeSnippet
		pe.Category = tsCategory(codes[0])
		if strings.HasSuffix(frames[0].FilePath, ".tsx") {
			pe.Language = types.LangTSX
		}
	}
	return pe, nil
}

// tsDiagnostics returns one frame per diagnostic along with its TS code.
func tsDiagnostics(text string) ([]types.StackFrame, []string) {
	frames := []types.StackFrame{}
	var codes []string
	for _, line := range strings.Split(text, "\n") {
		m := tsDiagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		f, ok := newFrame(m[1], m[2], m[3])
		if !ok {
			continue
		}
		f.CodeSnippet = fmt.Sprintf("%s: %s", m[4], strings.TrimSpace(m[5]))
		frames = append(frames, f)
		codes = append(codes, m[4])
	}
	return frames, codes
}

func tsCategory(code string) types.Category {
	if c, ok := tsCodeCategories[code]; ok {
		return c
	}
	var n int
	if _, err := fmt.Sscanf(code, "TS%d", &n); err == nil && n >= 1000 && n < 2000 {
		return types.CategorySyntax
	}
	return types.CategoryType
}
