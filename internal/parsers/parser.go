// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package parsers turns raw diagnostic text into ParsedError records. Each
// parser scores how likely it is to understand a piece of text and extracts
// the structured error when selected by the classifier.
package parsers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// DefaultRawErrorLimit is the number of characters of the input kept in
// ParsedError.RawError.
const DefaultRawErrorLimit = 500

// Parser recognizes and extracts one family of diagnostics.
type Parser interface {
	// Name identifies the parser in score reports.
	Name() string
	// Detect returns a confidence in [0,1] that Extract understands text.
	Detect(text string) float64
	// Extract builds a ParsedError from text.
	Extract(text string) (*types.ParsedError, error)
}

// indicator is a weighted regex. Detect scores are the clamped sum of the
// weights of all indicators that match.
type indicator struct {
	re     *regexp.Regexp
	weight float64
}

func score(text string, indicators []indicator) float64 {
	total := 0.0
	for _, ind := range indicators {
		if ind.re.MatchString(text) {
			total += ind.weight
		}
	}
	if total > 1.0 {
		return 1.0
	}
	// Weights are tenths; round away float drift so 0.1+0.2 scores 0.3.
	return float64(int(total*100+0.5)) / 100
}

// frameworkPattern maps a framework name to the regex that identifies it.
// Tables are ordered; the first match wins.
type frameworkPattern struct {
	name string
	re   *regexp.Regexp
}

func detectFramework(text string, table []frameworkPattern) string {
	for _, fw := range table {
		if fw.re.MatchString(text) {
			return fw.name
		}
	}
	return ""
}

// truncate keeps the first limit runes of s.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// firstLine returns the first line of s, cut to limit runes.
func firstLine(s string, limit int) string {
	line, _, _ := strings.Cut(s, "\n")
	return truncate(strings.TrimSpace(line), limit)
}

// Option configures a parser.
type Option func(*base)

// WithRawErrorLimit sets how many characters of the input are kept in
// ParsedError.RawError.
func WithRawErrorLimit(n int) Option {
	return func(b *base) { b.rawLimit = n }
}

// base holds settings shared by every parser.
type base struct {
	rawLimit int
}

func newBase(opts []Option) base {
	b := base{rawLimit: DefaultRawErrorLimit}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b base) raw(text string) string {
	return truncate(text, b.rawLimit)
}

// Default returns the standard parser set in registration order. Order
// matters: the classifier breaks score ties in favor of the earlier parser,
// so the more specific TypeScript parser precedes JavaScript.
func Default(opts ...Option) []Parser {
	return []Parser{
		NewPython(opts...),
		NewTypeScript(opts...),
		NewReact(opts...),
		NewJavaScript(opts...),
		NewLinter(opts...),
	}
}
