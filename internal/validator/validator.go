// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package validator checks that proposed file content is syntactically valid
// before it is written. Every supported language is parsed in-process with
// tree-sitter; JavaScript and TypeScript may additionally be checked by
// node or tsc when those tools are installed.
package validator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os/exec"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/pkg/types"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultCacheSize = 128
)

// Result is the outcome of one validation.
type Result struct {
	Valid bool
	// Unverified is set when a required external checker was not available
	// and the content was accepted on the in-process parse alone.
	Unverified bool
	Line       int // 1-based, 0 if unknown
	Column     int // 1-based, 0 if unknown
	Message    string
	Checker    string // "tree-sitter", "node", "tsc" or "none"
}

// Err converts an invalid result into a *types.ValidationError.
func (r Result) Err(lang types.Language) error {
	if r.Valid {
		return nil
	}
	return &types.ValidationError{Language: lang, Line: r.Line, Column: r.Column, Message: r.Message}
}

// Config controls the validator.
type Config struct {
	ExternalTools bool          // Run python3/node/tsc after the in-process parse
	FailClosed    bool          // Reject content when a required tool is missing
	Timeout       time.Duration // Per external tool invocation
	CacheSize     int           // Cached results; 0 disables the cache
}

// runFunc runs an external command with content on stdin.
type runFunc func(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) (string, error)

// Validator checks proposed content. It is safe for concurrent use.
type Validator struct {
	cfg      Config
	logger   *zap.Logger
	cache    *lru.Cache[string, Result]
	lookPath func(string) (string, error)
	run      runFunc
}

// New creates a Validator. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*Validator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Validator{
		cfg:      cfg,
		logger:   logger,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, Result](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating validation cache: %w", err)
		}
		v.cache = cache
	}
	return v, nil
}

// Validate checks content as a complete file in lang. Unknown languages are
// always valid.
func (v *Validator) Validate(ctx context.Context, content []byte, lang types.Language) Result {
	g := grammarFor(lang)
	if g == nil {
		return Result{Valid: true, Checker: "none"}
	}

	key := cacheKey(lang, content)
	if v.cache != nil {
		if r, ok := v.cache.Get(key); ok {
			return r
		}
	}

	r, cacheable := v.validate(ctx, content, lang, g)
	if cacheable && v.cache != nil {
		v.cache.Add(key, r)
	}
	if !r.Valid {
		v.logger.Debug("validation failed",
			zap.String("language", string(lang)),
			zap.String("checker", r.Checker),
			zap.Int("line", r.Line),
			zap.String("message", r.Message))
	}
	return r
}

func (v *Validator) validate(ctx context.Context, content []byte, lang types.Language, g *grammar) (Result, bool) {
	r, err := parseCheck(ctx, content, g)
	if err != nil {
		return Result{Valid: false, Message: err.Error(), Checker: "tree-sitter"}, false
	}
	if !r.Valid || !v.cfg.ExternalTools || g.tool == nil {
		return r, true
	}
	return v.external(ctx, content, lang, g.tool)
}

// external runs the language's command-line checker. The bool reports
// whether the result may be cached.
func (v *Validator) external(ctx context.Context, content []byte, lang types.Language, t *tool) (Result, bool) {
	if _, err := v.lookPath(t.name); err != nil {
		if v.cfg.FailClosed {
			return Result{Valid: false, Message: t.name + " not available for validation", Checker: t.name}, true
		}
		v.logger.Debug("external checker not found", zap.String("tool", t.name), zap.String("language", string(lang)))
		return Result{Valid: true, Unverified: true, Message: t.name + " not available for validation", Checker: "tree-sitter"}, true
	}

	r, err := t.check(ctx, v.run, v.cfg.Timeout, content)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Result{Valid: false, Message: "validation timeout", Checker: t.name}, false
	case err != nil:
		return Result{Valid: false, Message: err.Error(), Checker: t.name}, false
	}
	return r, true
}

func cacheKey(lang types.Language, content []byte) string {
	sum := sha256.Sum256(content)
	return string(lang) + ":" + hex.EncodeToString(sum[:])
}
