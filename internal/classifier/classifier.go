// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package classifier picks the parser that best understands a piece of
// diagnostic text and returns its extraction.
package classifier

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/internal/parsers"
	"github.com/petar-djukic/rootcause/pkg/types"
)

// DefaultMinConfidence is the lowest parser score accepted.
const DefaultMinConfidence = 0.3

// Score is one parser's detection score.
type Score struct {
	Parser string  `json:"parser"`
	Score  float64 `json:"score"`
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMinConfidence sets the lowest accepted score.
func WithMinConfidence(v float64) Option {
	return func(c *Classifier) { c.minConfidence = v }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// Classifier routes text to registered parsers. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	parsers       []parsers.Parser
	minConfidence float64
	logger        *zap.Logger
}

// New creates a Classifier over ps in registration order. A nil ps uses
// parsers.Default().
func New(ps []parsers.Parser, opts ...Option) *Classifier {
	if ps == nil {
		ps = parsers.Default()
	}
	c := &Classifier{
		parsers:       ps,
		minConfidence: DefaultMinConfidence,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parsers returns the names of the registered parsers in order.
func (c *Classifier) Parsers() []string {
	names := make([]string, len(c.parsers))
	for i, p := range c.parsers {
		names[i] = p.Name()
	}
	return names
}

// Scores runs every parser's detection over text, in registration order.
func (c *Classifier) Scores(text string) []Score {
	scores := make([]Score, len(c.parsers))
	for i, p := range c.parsers {
		scores[i] = Score{Parser: p.Name(), Score: p.Detect(text)}
	}
	return scores
}

// Classify returns the extraction of the highest-scoring parser. Ties go to
// the parser registered first. The returned Confidence is the detection
// score, not the parser's own estimate.
func (c *Classifier) Classify(text string) (*types.ParsedError, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &types.ClassificationError{Reason: "error log is empty"}
	}
	if len(c.parsers) == 0 {
		return nil, &types.ClassificationError{Reason: "no parsers registered"}
	}

	scores := c.Scores(text)
	best := -1
	bestScore := 0.0
	for i, s := range scores {
		if s.Score > bestScore {
			best, bestScore = i, s.Score
		}
	}

	if best < 0 || bestScore < c.minConfidence {
		return nil, c.classificationError(scores, bestScore)
	}

	p := c.parsers[best]
	c.logger.Debug("selected parser",
		zap.String("parser", p.Name()),
		zap.Float64("score", bestScore))

	pe, err := extract(p, text)
	if err != nil {
		return nil, &types.ParseExtractionError{Parser: p.Name(), Err: err}
	}
	pe.Confidence = bestScore
	return pe, nil
}

func (c *Classifier) classificationError(scores []Score, best float64) error {
	e := &types.ClassificationError{
		BestScore: best,
		Scores:    make(map[string]float64, len(scores)),
		Order:     make([]string, 0, len(scores)),
	}
	for _, s := range scores {
		e.Scores[s.Parser] = s.Score
		e.Order = append(e.Order, s.Parser)
	}
	return e
}

// extract calls p.Extract, converting a panic into an error.
func extract(p parsers.Parser, text string) (pe *types.ParsedError, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	pe, err = p.Extract(text)
	if err == nil && pe == nil {
		err = fmt.Errorf("parser returned no result")
	}
	return pe, err
}
