// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editformat reads fix suggestions produced by an external tool,
// either as JSON or as SEARCH/REPLACE blocks.
package editformat

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/rootcause/pkg/types"
)

const (
	markerSearch  = "<<<<<<< SEARCH"
	markerDivider = "======="
	markerReplace = ">>>>>>> REPLACE"
)

// ParseError reports a SEARCH/REPLACE block that could not become a fix.
type ParseError struct {
	Position int    // 1-based line of the block's SEARCH marker
	RawText  string // Block text from the SEARCH marker to where parsing stopped
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Position, e.Message)
}

// NoFixesFoundError means the input held no SEARCH marker at all.
type NoFixesFoundError struct{}

func (e *NoFixesFoundError) Error() string {
	return "no fix blocks found in input"
}

// ParseResult is everything Parse recovered from one input.
type ParseResult struct {
	Fixes         []types.FixSuggestion
	ParseErrors   []*ParseError
	ReasoningText string // Prose outside the blocks
	BlocksFound   int
	BlocksParsed  int
}

// Parse extracts SEARCH/REPLACE blocks. The line before each block names
// the file; free text since the previous block becomes the fix's
// explanation. Malformed blocks produce ParseErrors. When no blocks are
// found at all, returns a NoFixesFoundError.
func Parse(text string) (*ParseResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &NoFixesFoundError{}
	}

	sc := &blockScanner{lines: strings.Split(text, "\n"), result: &ParseResult{}}
	for !sc.done() {
		line := sc.lines[sc.pos]
		switch {
		case isMarker(line, markerSearch):
			sc.block("")
		case sc.pos+1 < len(sc.lines) && isMarker(sc.lines[sc.pos+1], markerSearch):
			sc.pos++
			sc.block(pathFromLine(line))
		default:
			sc.prose(line)
			sc.pos++
		}
	}

	if sc.result.BlocksFound == 0 {
		return nil, &NoFixesFoundError{}
	}
	sc.result.ReasoningText = strings.TrimSpace(sc.reasoning.String())
	return sc.result, nil
}

// blockScanner walks the input one line at a time. pos always indexes the
// next unread line.
type blockScanner struct {
	lines  []string
	pos    int
	result *ParseResult

	reasoning strings.Builder // all prose
	pending   strings.Builder // prose since the last block, fences dropped
}

func (sc *blockScanner) done() bool { return sc.pos >= len(sc.lines) }

func (sc *blockScanner) prose(line string) {
	appendLine(&sc.reasoning, line)
	if !isMarkdownFence(line) {
		appendLine(&sc.pending, line)
	}
}

// block consumes one block starting at the SEARCH marker under pos.
func (sc *blockScanner) block(path string) {
	start := sc.pos
	sc.pos++
	sc.result.BlocksFound++
	explanation := strings.TrimSpace(sc.pending.String())
	sc.pending.Reset()

	search, ok := sc.section(markerDivider)
	if !ok {
		sc.fail(start, "unclosed block: missing ======= divider")
		return
	}
	replace, ok := sc.section(markerReplace)
	if !ok {
		sc.fail(start, "unclosed block: missing >>>>>>> REPLACE marker")
		return
	}
	if !sc.done() && isMarkdownFence(sc.lines[sc.pos]) {
		sc.pos++
	}

	switch {
	case path == "":
		sc.fail(start, "missing file path before <<<<<<< SEARCH marker")
		return
	case strings.TrimSpace(search) == "":
		sc.fail(start, "empty SEARCH section: a fix must name the code it replaces")
		return
	}

	// Sections end at the line before the marker; snippets are whole lines.
	search += "\n"
	if replace != "" {
		replace += "\n"
	}
	sc.result.Fixes = append(sc.result.Fixes, types.FixSuggestion{
		FilePath:        path,
		OriginalSnippet: search,
		NewSnippet:      replace,
		Explanation:     explanation,
		Confidence:      1.0,
	})
	sc.result.BlocksParsed++
}

// section reads lines up to the closing marker and moves past it. It
// reports false when the input ends first.
func (sc *blockScanner) section(closing string) (string, bool) {
	from := sc.pos
	for ; !sc.done(); sc.pos++ {
		if isMarker(sc.lines[sc.pos], closing) {
			text := strings.Join(sc.lines[from:sc.pos], "\n")
			sc.pos++
			return text, true
		}
	}
	return "", false
}

func (sc *blockScanner) fail(start int, msg string) {
	sc.result.ParseErrors = append(sc.result.ParseErrors, &ParseError{
		Position: start + 1,
		RawText:  strings.Join(sc.lines[start:min(sc.pos, len(sc.lines))], "\n"),
		Message:  msg,
	})
}

// pathFromLine returns the file named by line, or "" when the line is a
// fence or reads like prose.
func pathFromLine(line string) string {
	if isMarkdownFence(line) {
		return ""
	}
	p := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "`"))
	if strings.ContainsAny(p, " \t") && !strings.Contains(p, "/") {
		return ""
	}
	return p
}

func isMarker(line, marker string) bool {
	return strings.TrimSpace(line) == marker
}

func isMarkdownFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

func appendLine(b *strings.Builder, line string) {
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(line)
}
