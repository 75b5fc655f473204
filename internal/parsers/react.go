// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parsers

import (
	"regexp"
	"strings"

	"github.com/petar-djukic/rootcause/pkg/types"
)

var reactIndicators = []indicator{
	{regexp.MustCompile(`(?i)(jsx|tsx)`), 0.2},
	{regexp.MustCompile(`(?i)(React|Component|Hook)`), 0.2},
	{regexp.MustCompile(`(?i)(webpack|vite).*compiled`), 0.2},
	{regexp.MustCompile(`(?i)Module parse failed`), 0.2},
	{regexp.MustCompile(`(?i)SyntaxError:.*Unexpected token`), 0.2},
}

// reactLocRe matches bundler locations such as ./src/App.jsx:10:5
var reactLocRe = regexp.MustCompile(`(\.?/[^\s:]+\.(?:jsx|tsx|js|ts)):(\d+):(\d+)`)

// reactErrorKinds is checked in order; the first marker found in the text
// decides the error type.
var reactErrorKinds = []struct {
	marker    string
	errorType string
	message   string
	category  types.Category
}{
	{"Module parse failed", "ModuleParseError", "Failed to parse module", types.CategoryImport},
	{"SyntaxError", "SyntaxError", "JSX syntax error", types.CategorySyntax},
	{"Cannot find module", "ModuleNotFoundError", "Module not found", types.CategoryImport},
}

// React parses React build (webpack, vite) and JSX errors.
type React struct {
	base
}

// NewReact creates a React/JSX error parser.
func NewReact(opts ...Option) *React {
	return &React{base: newBase(opts)}
}

func (p *React) Name() string { return "React" }

func (p *React) Detect(text string) float64 {
	return score(text, reactIndicators)
}

func (p *React) Extract(text string) (*types.ParsedError, error) {
	pe := &types.ParsedError{
		Language:    reactLanguage(text),
		Framework:   "react",
		ErrorType:   "BuildError",
		Message:     firstLine(text, 200),
		StackFrames: reactFrames(text),
		Severity:    types.SeverityError,
		Category:    types.CategoryBuild,
		Confidence:  0.88,
		RawError:    p.raw(text),
	}
	for _, k := range reactErrorKinds {
		if strings.Contains(text, k.marker) {
			pe.ErrorType, pe.Message, pe.Category = k.errorType, k.message, k.category
			break
		}
	}
	return pe, nil
}

func reactLanguage(text string) types.Language {
	switch {
	case strings.Contains(text, ".jsx"):
		return types.LangJSX
	case strings.Contains(text, ".tsx"):
		return types.LangTSX
	default:
		return types.LangJavaScript
	}
}

func reactFrames(text string) []types.StackFrame {
	frames := []types.StackFrame{}
	for _, line := range strings.Split(text, "\n") {
		m := reactLocRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if f, ok := newFrame(m[1], m[2], m[3]); ok {
			frames = append(frames, f)
		}
	}
	return frames
}
