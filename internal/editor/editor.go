// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"strings"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// Splice replaces the lines [m.StartLine, m.EndLine) with replacement,
// whichever stage produced the match. The region ends before the newline of
// its last line, so one trailing newline of replacement is dropped, and an
// empty replacement removes the lines along with their line break.
func Splice(content string, m *types.Match, replacement string) string {
	start, end := lineSpan(content, m.StartLine, m.EndLine)
	if replacement == "" {
		switch {
		case end < len(content):
			end++ // Consume the newline after the last matched line.
		case start > 0:
			start-- // Last lines of the file: consume the preceding newline.
		}
		return content[:start] + content[end:]
	}
	return content[:start] + strings.TrimSuffix(replacement, "\n") + content[end:]
}

// lineSpan returns the byte offsets of lines [from, to) in content, excluding
// the newline that terminates the last line.
func lineSpan(content string, from, to int) (start, end int) {
	line := 0
	for line < from && start < len(content) {
		i := strings.IndexByte(content[start:], '\n')
		if i < 0 {
			start = len(content)
			break
		}
		start += i + 1
		line++
	}

	end = start
	for line < to && end < len(content) {
		i := strings.IndexByte(content[end:], '\n')
		if i < 0 {
			return start, len(content)
		}
		line++
		if line == to {
			return start, end + i
		}
		end += i + 1
	}
	return start, end
}

// Edit locates original in content and returns content with it replaced.
// When nothing reaches the threshold the error is a *types.MatchDiagnostic
// for path.
func (m *Matcher) Edit(path, content, original, replacement string) (string, *types.Match, error) {
	match := m.Find(content, original)
	if match == nil {
		return "", nil, m.Diagnose(path, content, original)
	}
	return Splice(content, match, replacement), match, nil
}
