// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editor locates code snippets in file content and rewrites files
// atomically.
package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// DefaultFuzzyThreshold is the minimum similarity accepted by the fuzzy
// stage.
const DefaultFuzzyThreshold = 0.8

// Matcher finds the region of a file that best matches a snippet. It tries
// an exact substring match, then a normalized sliding-window comparison.
// The zero value uses DefaultFuzzyThreshold.
type Matcher struct {
	Threshold float64
}

// NewMatcher returns a Matcher with the given fuzzy threshold.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

func (m *Matcher) threshold() float64 {
	if m == nil || m.Threshold <= 0 || m.Threshold > 1 {
		return DefaultFuzzyThreshold
	}
	return m.Threshold
}

// Find returns the location of target in content, or nil when no region
// reaches the threshold. It never fails.
func (m *Matcher) Find(content, target string) *types.Match {
	if strings.TrimSpace(target) == "" {
		return nil
	}
	if match := exactMatch(content, target); match != nil {
		return match
	}
	return fuzzyMatch(content, target, m.threshold())
}

// Diagnose describes the closest region to target for error reporting.
func (m *Matcher) Diagnose(path, content, target string) *types.MatchDiagnostic {
	closest, sim, start, end := findClosestMatch(content, target)
	return &types.MatchDiagnostic{
		FilePath:         path,
		Threshold:        m.threshold(),
		ClosestMatch:     closest,
		Similarity:       sim,
		ClosestLineStart: start,
		ClosestLineEnd:   end,
	}
}

// exactMatch attempts a byte-for-byte substring match. The line span covers
// every line the target touches; a trailing newline in the target does not
// extend it.
func exactMatch(content, target string) *types.Match {
	idx := strings.Index(content, target)
	if idx < 0 {
		return nil
	}
	startLine := strings.Count(content[:idx], "\n")
	return &types.Match{
		StartLine:  startLine,
		EndLine:    startLine + strings.Count(strings.TrimSuffix(target, "\n"), "\n") + 1,
		Similarity: 1.0,
		Stage:      types.StageExact,
		Start:      idx,
		End:        idx + len(target),
	}
}

// fuzzyMatch slides a window the height of the normalized target over the
// file lines. Only strict improvements replace the current best, so the
// earliest window wins a tie.
func fuzzyMatch(content, target string, threshold float64) *types.Match {
	normTarget := normalize(target)
	if normTarget == "" {
		return nil
	}
	window := strings.Count(normTarget, "\n") + 1

	lines := strings.Split(content, "\n")
	if window > len(lines) {
		return nil
	}

	var best *types.Match
	bestSim := 0.0
	for i := 0; i <= len(lines)-window; i++ {
		candidate := strings.Join(lines[i:i+window], "\n")
		sim := similarity(normTarget, normalize(candidate))
		if sim > bestSim && sim >= threshold {
			start := byteOffsetOfLine(lines, i)
			bestSim = sim
			best = &types.Match{
				StartLine:  i,
				EndLine:    i + window,
				Similarity: sim,
				Stage:      types.StageFuzzy,
				Start:      start,
				End:        start + len(candidate),
			}
		}
	}
	return best
}

// findClosestMatch finds the best partial match in content for diagnostics.
// Line numbers are 1-based and inclusive.
func findClosestMatch(content, target string) (closest string, sim float64, lineStart, lineEnd int) {
	normTarget := normalize(target)
	if normTarget == "" || content == "" {
		return "", 0, 0, 0
	}

	lines := strings.Split(content, "\n")
	window := strings.Count(normTarget, "\n") + 1
	if window > len(lines) {
		window = len(lines)
	}

	bestSim := 0.0
	bestStart := 0
	for i := 0; i <= len(lines)-window; i++ {
		s := similarity(normTarget, normalize(strings.Join(lines[i:i+window], "\n")))
		if s > bestSim {
			bestSim = s
			bestStart = i
		}
	}

	if bestSim > 0 {
		closest = strings.Join(lines[bestStart:bestStart+window], "\n")
		return closest, bestSim, bestStart + 1, bestStart + window
	}
	return "", 0, 0, 0
}

// normalize strips trailing whitespace from every line, drops leading and
// trailing blank lines and removes the common indentation.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(dedent(lines), "\n")
}

// dedent removes the longest whitespace prefix shared by all non-blank
// lines. Lines must already be right-trimmed.
func dedent(lines []string) []string {
	margin := ""
	first := true
	for _, line := range lines {
		if line == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin, first = indent, false
			continue
		}
		margin = commonPrefix(margin, indent)
		if margin == "" {
			return lines
		}
	}
	if margin == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimPrefix(line, margin)
	}
	return out
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

// similarity computes the Levenshtein-based similarity ratio between two
// strings using go-diff. Returns a value between 0.0 and 1.0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1.0 - float64(distance)/float64(maxLen)
}

// byteOffsetOfLine returns the byte offset of the start of line idx
// in the content reconstructed from lines.
func byteOffsetOfLine(lines []string, idx int) int {
	offset := 0
	for i := 0; i < idx; i++ {
		offset += len(lines[i]) + 1
	}
	return offset
}
