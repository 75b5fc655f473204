// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package classifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/rootcause/internal/parsers"
	"github.com/petar-djukic/rootcause/pkg/types"
)

// stubParser returns a fixed score and optionally fails extraction.
type stubParser struct {
	name  string
	score float64
	err   error
	panic bool
}

func (s *stubParser) Name() string           { return s.name }
func (s *stubParser) Detect(string) float64 { return s.score }
func (s *stubParser) Extract(text string) (*types.ParsedError, error) {
	if s.panic {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &types.ParsedError{ErrorType: s.name, Confidence: 0.99, RawError: text}, nil
}

func TestClassify_PythonTraceback(t *testing.T) {
	text := "Traceback (most recent call last):\n  File \"a.py\", line 2, in f\n    x = 1 + \"a\"\nTypeError: unsupported operand type(s)"

	pe, err := New(nil).Classify(text)
	require.NoError(t, err)
	assert.Equal(t, types.LangPython, pe.Language)
	assert.Equal(t, types.CategoryType, pe.Category)
	require.Len(t, pe.StackFrames, 1)
	assert.Equal(t, "a.py", pe.StackFrames[0].FilePath)
	assert.Equal(t, 2, pe.StackFrames[0].Line)
	assert.InDelta(t, 0.9, pe.Confidence, 1e-9)
}

func TestClassify_PicksHighestScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		lang types.Language
	}{
		{"node", "ReferenceError: x is not defined\n    at main (/srv/app.js:4:9)", types.LangJavaScript},
		{"tsc", "src/a.ts(1,7): error TS2322: Type 'string' is not assignable to type 'number'.", types.LangTypeScript},
		{"eslint", "eslint\nsrc/a.js:1:1: error - no-undef", types.LangJavaScript},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe, err := New(nil).Classify(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.lang, pe.Language)
		})
	}
}

func TestClassify_TieGoesToFirstRegistered(t *testing.T) {
	c := New([]parsers.Parser{
		&stubParser{name: "first", score: 0.6},
		&stubParser{name: "second", score: 0.6},
	})
	pe, err := c.Classify("anything")
	require.NoError(t, err)
	assert.Equal(t, "first", pe.ErrorType)
	assert.Equal(t, 0.6, pe.Confidence)
}

func TestClassify_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n\t"} {
		_, err := New(nil).Classify(text)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrClassification)
	}
}

func TestClassify_BelowThreshold(t *testing.T) {
	c := New([]parsers.Parser{
		&stubParser{name: "A", score: 0.1},
		&stubParser{name: "B", score: 0.2},
	})
	_, err := c.Classify("some text")
	require.Error(t, err)

	var ce *types.ClassificationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 0.2, ce.BestScore)
	assert.Equal(t, []string{"A", "B"}, ce.Order)
	assert.Contains(t, err.Error(), "A: 0.10, B: 0.20")
}

func TestClassify_ThresholdIsInclusive(t *testing.T) {
	c := New([]parsers.Parser{&stubParser{name: "A", score: 0.3}})
	_, err := c.Classify("x")
	assert.NoError(t, err)

	c = New([]parsers.Parser{&stubParser{name: "A", score: 0.5}}, WithMinConfidence(0.6))
	_, err = c.Classify("x")
	assert.ErrorIs(t, err, types.ErrClassification)
}

func TestClassify_UnrecognizedText(t *testing.T) {
	_, err := New(nil).Classify("the weather is nice today")
	assert.ErrorIs(t, err, types.ErrClassification)
}

func TestClassify_ExtractionFailure(t *testing.T) {
	cause := errors.New("bad input")
	tests := []struct {
		name   string
		parser *stubParser
	}{
		{"error", &stubParser{name: "P", score: 0.9, err: cause}},
		{"panic", &stubParser{name: "P", score: 0.9, panic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]parsers.Parser{tt.parser}).Classify("x")
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrParseExtraction)
			assert.Contains(t, err.Error(), "failed to parse with P")
		})
	}
}

func TestScoresAndParsers(t *testing.T) {
	c := New(nil)
	assert.Equal(t, []string{"Python", "TypeScript", "React", "JavaScript", "Linter"}, c.Parsers())

	scores := c.Scores("Traceback (most recent call last):")
	require.Len(t, scores, 5)
	assert.Equal(t, "Python", scores[0].Parser)
	assert.Equal(t, 0.4, scores[0].Score)
}
