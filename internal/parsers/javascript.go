// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/petar-djukic/rootcause/pkg/types"
)

var javascriptIndicators = []indicator{
	{regexp.MustCompile(`(TypeError|ReferenceError|SyntaxError|RangeError):`), 0.3},
	{regexp.MustCompile(`at .+\(.*\.js:\d+:\d+\)`), 0.3},
	{regexp.MustCompile(`at .*\.js:\d+:\d+`), 0.2},
	{regexp.MustCompile(`node:internal|node_modules`), 0.2},
}

// Two V8 frame grammars: `at fn (file:line:col)` and `at file:line:col`.
var (
	jsCallFrameRe = regexp.MustCompile(`at\s+(?:(.+?)\s+)?\(([^)]+):(\d+):(\d+)\)`)
	jsBareFrameRe = regexp.MustCompile(`at\s+([^(]+):(\d+):(\d+)`)
	jsErrorRe     = regexp.MustCompile(`^(\w+Error): (.+?)$`)
	jsModuleRe    = regexp.MustCompile(`Cannot find module|ERR_MODULE_NOT_FOUND`)
)

var javascriptCategories = map[string]types.Category{
	"SyntaxError":    types.CategorySyntax,
	"TypeError":      types.CategoryType,
	"ReferenceError": types.CategoryType,
	"RangeError":     types.CategoryRuntime,
}

var javascriptFrameworks = []frameworkPattern{
	{"express", regexp.MustCompile(`(?i)express[/\\]`)},
	{"react", regexp.MustCompile(`(?i)react-dom|react[/\\]`)},
	{"vue", regexp.MustCompile(`(?i)vue[/\\]`)},
	{"next", regexp.MustCompile(`(?i)next[/\\]`)},
	{"nest", regexp.MustCompile(`(?i)@nestjs`)},
}

// JavaScript parses Node.js and browser runtime errors with V8 stack traces.
type JavaScript struct {
	base
}

// NewJavaScript creates a JavaScript error parser.
func NewJavaScript(opts ...Option) *JavaScript {
	return &JavaScript{base: newBase(opts)}
}

func (p *JavaScript) Name() string { return "JavaScript" }

func (p *JavaScript) Detect(text string) float64 {
	return score(text, javascriptIndicators)
}

func (p *JavaScript) Extract(text string) (*types.ParsedError, error) {
	errType, msg := jsErrorInfo(text)
	return &types.ParsedError{
		Language:    types.LangJavaScript,
		Framework:   detectFramework(text, javascriptFrameworks),
		ErrorType:   errType,
		Message:     msg,
		StackFrames: v8Frames(text),
		Severity:    types.SeverityError,
		Category:    jsCategory(errType, text),
		Confidence:  0.90,
		RawError:    p.raw(text),
	}, nil
}

// v8Frames extracts V8 stack frames in text order.
func v8Frames(text string) []types.StackFrame {
	frames := []types.StackFrame{}
	for _, line := range strings.Split(text, "\n") {
		if m := jsCallFrameRe.FindStringSubmatch(line); m != nil {
			fn := m[1]
			if fn == "" {
				fn = "anonymous"
			}
			if f, ok := newFrame(m[2], m[3], m[4]); ok {
				f.Function = fn
				frames = append(frames, f)
			}
			continue
		}
		if m := jsBareFrameRe.FindStringSubmatch(line); m != nil {
			if f, ok := newFrame(strings.TrimSpace(m[1]), m[2], m[3]); ok {
				frames = append(frames, f)
			}
		}
	}
	return frames
}

func jsErrorInfo(text string) (string, string) {
	for _, line := range strings.Split(text, "\n") {
		if m := jsErrorRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], strings.TrimSpace(m[2])
		}
	}
	return "JavaScriptError", firstLine(text, 200)
}

func jsCategory(errType, text string) types.Category {
	if jsModuleRe.MatchString(text) {
		return types.CategoryImport
	}
	if c, ok := javascriptCategories[errType]; ok {
		return c
	}
	return types.CategoryRuntime
}

// newFrame builds a frame from regex captures. Line must be at least 1;
// a non-positive column is dropped.
func newFrame(path, line, col string) (types.StackFrame, bool) {
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 {
		return types.StackFrame{}, false
	}
	f := types.StackFrame{FilePath: path, Line: n}
	if c, err := strconv.Atoi(col); err == nil && c >= 1 {
		f.Column = c
	}
	return f, true
}
