// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "fmt"

// StackFrame is a single location extracted from a stack trace or a
// compiler/linter report.
type StackFrame struct {
	FilePath    string `json:"file_path"`              // Path as it appears in the report
	Line        int    `json:"line"`                   // Line number (1-based)
	Column      int    `json:"column,omitempty"`       // Column number (1-based, 0 if not available)
	Function    string `json:"function,omitempty"`     // Enclosing function, if reported
	CodeSnippet string `json:"code_snippet,omitempty"` // Source line or diagnostic text
}

func (f StackFrame) String() string {
	loc := fmt.Sprintf("%s:%d", f.FilePath, f.Line)
	if f.Column > 0 {
		loc = fmt.Sprintf("%s:%d", loc, f.Column)
	}
	if f.Function != "" {
		return fmt.Sprintf("%s in %s", loc, f.Function)
	}
	return loc
}

// ParsedError is the structured form of a classified diagnostic. Frames are
// kept in the order they appear in the source text.
type ParsedError struct {
	Language    Language     `json:"language"`
	Framework   string       `json:"framework,omitempty"`
	ErrorType   string       `json:"error_type"`
	Message     string       `json:"message"`
	StackFrames []StackFrame `json:"stack_frames"`
	Severity    Severity     `json:"severity"`
	Category    Category     `json:"category"`
	Confidence  float64      `json:"confidence"`
	RawError    string       `json:"raw_error,omitempty"`
	Imports     []string     `json:"imports,omitempty"` // Modules named by import statements in the trace
}

// Location returns the innermost frame, which is where the error was raised,
// or nil when the report carried no frames.
func (p *ParsedError) Location() *StackFrame {
	if len(p.StackFrames) == 0 {
		return nil
	}
	return &p.StackFrames[len(p.StackFrames)-1]
}
