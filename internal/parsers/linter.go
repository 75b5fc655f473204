// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parsers

import (
	"regexp"
	"strings"

	"github.com/petar-djukic/rootcause/pkg/types"
)

var linterIndicators = []indicator{
	{regexp.MustCompile(`(?i)eslint`), 0.4},
	{regexp.MustCompile(`(?i)prettier`), 0.4},
	{regexp.MustCompile(`(?i)\d+:\d+\s+(error|warning)`), 0.2},
}

var (
	// Compact format: file.js:10:5: error - message
	lintCompactRe = regexp.MustCompile(`([^\s:]+):(\d+):(\d+):\s+(error|warning)\s+-\s+(.+)`)
	// Stylish format: a file header line followed by indented "10:5  error  message  rule".
	lintStylishRe = regexp.MustCompile(`^\s+(\d+):(\d+)\s+(error|warning)\s+(.+)$`)
	lintHeaderRe  = regexp.MustCompile(`^(\S+\.(?:[cm]?[jt]sx?|vue|py|json|css|md))\s*$`)
)

// Linter parses ESLint and Prettier reports.
type Linter struct {
	base
}

// NewLinter creates a linter report parser.
func NewLinter(opts ...Option) *Linter {
	return &Linter{base: newBase(opts)}
}

func (p *Linter) Name() string { return "Linter" }

func (p *Linter) Detect(text string) float64 {
	return score(text, linterIndicators)
}

func (p *Linter) Extract(text string) (*types.ParsedError, error) {
	return &types.ParsedError{
		Language:    types.LangJavaScript,
		ErrorType:   "LintError",
		Message:     "Linting errors found",
		StackFrames: lintFrames(text),
		Severity:    types.SeverityWarning,
		Category:    types.CategoryLinting,
		Confidence:  0.95,
		RawError:    p.raw(text),
	}, nil
}

// lintFrames returns one frame per reported problem, carrying the lint
// message as the snippet.
func lintFrames(text string) []types.StackFrame {
	frames := []types.StackFrame{}
	var current string
	for _, line := range strings.Split(text, "\n") {
		if m := lintCompactRe.FindStringSubmatch(line); m != nil {
			if f, ok := newFrame(m[1], m[2], m[3]); ok {
				f.CodeSnippet = strings.TrimSpace(m[5])
				frames = append(frames, f)
			}
			continue
		}
		if m := lintHeaderRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if current == "" {
			continue
		}
		if m := lintStylishRe.FindStringSubmatch(line); m != nil {
			if f, ok := newFrame(current, m[1], m[2]); ok {
				f.CodeSnippet = strings.TrimSpace(m[4])
				frames = append(frames, f)
			}
		}
	}
	return frames
}
