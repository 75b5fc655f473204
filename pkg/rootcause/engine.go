// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package rootcause

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/internal/backup"
	"github.com/petar-djukic/rootcause/internal/classifier"
	"github.com/petar-djukic/rootcause/internal/config"
	"github.com/petar-djukic/rootcause/internal/editformat"
	"github.com/petar-djukic/rootcause/internal/git"
	"github.com/petar-djukic/rootcause/internal/history"
	"github.com/petar-djukic/rootcause/internal/parsers"
	"github.com/petar-djukic/rootcause/internal/patch"
	"github.com/petar-djukic/rootcause/internal/validator"
	"github.com/petar-djukic/rootcause/internal/watch"
	"github.com/petar-djukic/rootcause/pkg/types"
)

// Engine wires the classifier and the patch engine for one project.
type Engine struct {
	cfg        config.Config
	workDir    string
	root       string
	repo       *git.Repo // nil outside git
	classifier *classifier.Classifier
	backups    *backup.Manager
	history    *history.Tracker
	applier    *patch.Applier
	logger     *zap.Logger
}

// New validates cfg and builds an Engine. workDir resolves relative fix
// paths; the project root is cfg.Project.Root, or the git work tree that
// contains workDir, or workDir itself. A nil cfg uses config.Default().
func New(cfg *config.Config, workDir string, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	if info, err := os.Stat(workDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: working directory %q does not exist or is not a directory", ErrInvalidConfig, workDir)
	}

	repo, gitErr := git.Open(workDir)
	if gitErr != nil {
		logger.Debug("Not inside a git repository", zap.String("dir", workDir))
	}

	root := cfg.Project.Root
	switch {
	case root != "" && !filepath.IsAbs(root):
		root = filepath.Join(workDir, root)
	case root == "" && repo != nil:
		root = repo.Root()
	case root == "":
		root = workDir
	}

	historyFile := cfg.Patch.HistoryFile
	if !filepath.IsAbs(historyFile) {
		historyFile = filepath.Join(root, historyFile)
	}

	v, err := validator.New(validator.Config{
		ExternalTools: cfg.Validator.ExternalTools,
		FailClosed:    cfg.Validator.FailClosed,
		Timeout:       cfg.Validator.Timeout,
		CacheSize:     cfg.Validator.CacheSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating validator: %w", err)
	}

	backups := backup.NewManager(cfg.Patch.BackupDir, root, logger)
	tracker := history.NewTracker(historyFile, logger)

	cls := classifier.New(
		parsers.Default(parsers.WithRawErrorLimit(cfg.Classifier.RawErrorLimit)),
		classifier.WithMinConfidence(cfg.Classifier.MinConfidence),
		classifier.WithLogger(logger),
	)
	applier := patch.New(patch.Config{
		FuzzyThreshold: cfg.Patch.FuzzyThreshold,
		Concurrency:    cfg.Patch.Concurrency,
	}, v, backups, tracker, logger)

	e := &Engine{
		cfg:        *cfg,
		workDir:    workDir,
		root:       root,
		repo:       repo,
		classifier: cls,
		backups:    backups,
		history:    tracker,
		applier:    applier,
		logger:     logger.Named("engine"),
	}
	return e, nil
}

// Root returns the absolute project root.
func (e *Engine) Root() string { return e.root }

// WorkDir returns the absolute working directory.
func (e *Engine) WorkDir() string { return e.workDir }

// Classify turns diagnostic text into a ParsedError.
func (e *Engine) Classify(text string) (*types.ParsedError, error) {
	return e.classifier.Classify(text)
}

// Scores reports every parser's detection score for text.
func (e *Engine) Scores(text string) []Score {
	return e.classifier.Scores(text)
}

// Parsers lists the registered parsers in tie-break order.
func (e *Engine) Parsers() []string {
	return e.classifier.Parsers()
}

// LoadFixes reads suggestions from path ("-" for stdin). Relative file
// paths are resolved against the working directory.
func (e *Engine) LoadFixes(path string, format FixFormat) ([]types.FixSuggestion, error) {
	if path != "-" && !filepath.IsAbs(path) {
		path = filepath.Join(e.workDir, path)
	}
	return editformat.LoadFile(path, e.workDir, format)
}

// ParseFixes decodes suggestions from data, resolving relative file paths
// against the working directory.
func (e *Engine) ParseFixes(data []byte, format FixFormat) ([]types.FixSuggestion, error) {
	fixes, err := editformat.Load(data, format)
	if err != nil {
		return nil, err
	}
	return editformat.Resolve(fixes, e.workDir), nil
}

// ApplyPatch applies one fix. A relative fix path is resolved against the
// working directory.
func (e *Engine) ApplyPatch(ctx context.Context, fix types.FixSuggestion, lang types.Language, dryRun bool) types.FixOutcome {
	return e.applier.ApplyPatch(ctx, e.abs(fix.FilePath), fix.OriginalSnippet, fix.NewSnippet, lang, dryRun)
}

// ApplyFixes applies a batch and reports every outcome in input order.
func (e *Engine) ApplyFixes(ctx context.Context, fixes []types.FixSuggestion, opts BatchOptions) types.BatchReport {
	resolved := make([]types.FixSuggestion, len(fixes))
	for i, f := range fixes {
		f.FilePath = e.abs(f.FilePath)
		resolved[i] = f
	}
	return e.applier.ApplyFixes(ctx, resolved, opts)
}

// UndoLastFix reverts the most recent fix that is still active.
func (e *Engine) UndoLastFix(ctx context.Context) types.UndoResult {
	return e.applier.UndoLastFix(ctx)
}

// UndoFix reverts the fix with the given id.
func (e *Engine) UndoFix(ctx context.Context, id string) types.UndoResult {
	return e.applier.UndoFix(ctx, id)
}

// History returns up to n entries, newest first. n <= 0 returns all.
func (e *Engine) History(n int) ([]types.HistoryEntry, error) {
	return e.history.RecentFixes(n)
}

// Stats summarizes the history ledger.
func (e *Engine) Stats() (types.HistoryStats, error) {
	return e.history.Stats()
}

// ClearHistory empties the ledger. Backups are kept.
func (e *Engine) ClearHistory() error {
	return e.history.ClearHistory()
}

// Backups lists the backups of path, or all backups when path is empty.
func (e *Engine) Backups(path string) ([]BackupInfo, error) {
	if path != "" {
		path = e.abs(path)
	}
	return e.backups.ListBackups(path)
}

// PruneBackups removes backups older than days, or older than the
// configured retention when days is negative. It returns the number
// removed.
func (e *Engine) PruneBackups(days int) int {
	if days < 0 {
		days = e.cfg.Backup.RetentionDays
	}
	return e.backups.ClearOldBackups(days)
}

// DirtyFiles returns the fix targets that have uncommitted changes. It
// returns nil outside git.
func (e *Engine) DirtyFiles(fixes []types.FixSuggestion) []string {
	if e.repo == nil {
		return nil
	}
	paths := make([]string, len(fixes))
	for i, f := range fixes {
		paths[i] = e.abs(f.FilePath)
	}
	dirty, err := e.repo.ModifiedFiles(paths)
	if err != nil {
		e.logger.Warn("Could not read git status", zap.Error(err))
		return nil
	}
	return dirty
}

// Watch follows a log file and sends an event for each classified error
// block until ctx is done.
func (e *Engine) Watch(ctx context.Context, path string, out chan<- WatchEvent) error {
	w := watch.New(e.abs(path), e.classifier, watch.Config{
		FlushInterval: e.cfg.Watch.FlushInterval,
		FromStart:     e.cfg.Watch.FromStart,
	}, e.logger)
	return w.Run(ctx, out)
}

func (e *Engine) abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workDir, path)
}
