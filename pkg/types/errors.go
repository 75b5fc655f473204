// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// use errors.Is regardless of the detail carried.
var (
	ErrClassification  = errors.New("could not classify error")
	ErrParseExtraction = errors.New("failed to extract error details")
	ErrFileNotFound    = errors.New("file not found")
	ErrMatchNotFound   = errors.New("could not find matching code in file")
	ErrValidation      = errors.New("validation failed")
	ErrBackup          = errors.New("failed to create backup")
	ErrWrite           = errors.New("failed to write file")
	ErrNotFound        = errors.New("fix not found")
	ErrAlreadyReverted = fmt.Errorf("%w: already reverted", ErrNotFound)
)

// ClassificationError is returned when no parser reaches the minimum
// confidence. Scores holds every parser's score, keyed by parser name.
type ClassificationError struct {
	Reason    string
	BestScore float64
	Scores    map[string]float64
	Order     []string // Parser names in registration order
}

func (e *ClassificationError) Error() string {
	if e.Reason != "" && len(e.Scores) == 0 {
		return fmt.Sprintf("%v: %s", ErrClassification, e.Reason)
	}
	names := e.Order
	if len(names) == 0 {
		for name := range e.Scores {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %.2f", name, e.Scores[name]))
	}
	return fmt.Sprintf("%v (best score: %.2f). Parser scores: %s",
		ErrClassification, e.BestScore, strings.Join(parts, ", "))
}

func (e *ClassificationError) Unwrap() error { return ErrClassification }

// ParseExtractionError wraps a failure inside the selected parser.
type ParseExtractionError struct {
	Parser string
	Err    error
}

func (e *ParseExtractionError) Error() string {
	return fmt.Sprintf("failed to parse with %s: %v", e.Parser, e.Err)
}

func (e *ParseExtractionError) Unwrap() []error { return []error{ErrParseExtraction, e.Err} }

// MatchDiagnostic describes why a snippet could not be located, with the
// closest candidate found below the threshold.
type MatchDiagnostic struct {
	FilePath         string  // File where the match was attempted
	Threshold        float64 // Minimum similarity required
	ClosestMatch     string  // Best partial match found (empty if none)
	Similarity       float64 // Similarity score of closest match
	ClosestLineStart int     // Starting line of the closest match (1-based)
	ClosestLineEnd   int     // Ending line of the closest match (1-based)
}

func (d *MatchDiagnostic) Error() string {
	if d.ClosestMatch == "" {
		return fmt.Sprintf("%v (similarity too low): %s", ErrMatchNotFound, d.FilePath)
	}
	return fmt.Sprintf("%v (similarity too low): %s (closest match at lines %d-%d, similarity %.2f < %.2f)",
		ErrMatchNotFound, d.FilePath, d.ClosestLineStart, d.ClosestLineEnd, d.Similarity, d.Threshold)
}

func (d *MatchDiagnostic) Unwrap() error { return ErrMatchNotFound }

// ValidationError reports a syntax problem in proposed file content.
type ValidationError struct {
	Language Language
	Line     int // 1-based, 0 if unknown
	Column   int // 1-based, 0 if unknown
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: syntax error at line %d: %s", ErrValidation, e.Line, e.Message)
	}
	return fmt.Sprintf("%v: %s", ErrValidation, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
