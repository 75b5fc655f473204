// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package patch applies fix suggestions to files and undoes them. Every
// apply is located, validated, backed up, written atomically and recorded,
// in that order, under a per-file lock.
package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/internal/backup"
	"github.com/petar-djukic/rootcause/internal/editor"
	"github.com/petar-djukic/rootcause/internal/history"
	"github.com/petar-djukic/rootcause/internal/validator"
	"github.com/petar-djukic/rootcause/pkg/types"
)

const defaultConcurrency = 4

// Validator checks proposed file content.
type Validator interface {
	Validate(ctx context.Context, content []byte, lang types.Language) validator.Result
}

// Config holds the applier settings.
type Config struct {
	FuzzyThreshold float64 // Minimum fuzzy similarity; 0 means editor.DefaultFuzzyThreshold
	Concurrency    int     // Files patched in parallel by ApplyFixes
}

// Applier applies and undoes fixes. It is safe for concurrent use; calls on
// the same file are serialized.
type Applier struct {
	matcher     *editor.Matcher
	validator   Validator
	backups     *backup.Manager
	history     *history.Tracker
	locks       *keyedLocks
	logger      *zap.Logger
	concurrency int

	write func(path string, data []byte) error
}

// New wires an Applier from its collaborators.
func New(cfg Config, v Validator, b *backup.Manager, h *history.Tracker, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Applier{
		matcher:     editor.NewMatcher(cfg.FuzzyThreshold),
		validator:   v,
		backups:     b,
		history:     h,
		locks:       newKeyedLocks(),
		logger:      logger,
		concurrency: cfg.Concurrency,
		write:       editor.WriteFileAtomic,
	}
}

// ApplyPatch replaces originalSnippet in path with newSnippet. With dryRun
// set nothing on disk changes. Expected failures are reported in the
// outcome, never as a panic or a separate error.
func (a *Applier) ApplyPatch(ctx context.Context, path, originalSnippet, newSnippet string, lang types.Language, dryRun bool) types.FixOutcome {
	out := types.FixOutcome{FilePath: path}
	if lang == "" || lang == types.LangUnknown {
		lang = types.LanguageForPath(path)
	}

	unlock := a.locks.lock(lockKey(path))
	defer unlock()

	if err := ctx.Err(); err != nil {
		out.Status = types.StatusSkipped
		out.Message = "Canceled"
		out.Err = err
		return out
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return failed(out, fmt.Errorf("%w: %s", types.ErrFileNotFound, path), "File not found: "+path)
		}
		return failed(out, err, fmt.Sprintf("Failed to read file: %v", err))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return failed(out, err, fmt.Sprintf("Failed to read file: %v", err))
	}

	patched, match, err := a.matcher.Edit(path, string(content), originalSnippet, newSnippet)
	if err != nil {
		return failed(out, err, "Could not find matching code in file (similarity too low)")
	}

	vr := a.validator.Validate(ctx, []byte(patched), lang)
	if !vr.Valid {
		msg := vr.Message
		if vr.Line > 0 {
			msg = fmt.Sprintf("syntax error at line %d: %s", vr.Line, vr.Message)
		}
		return failed(out, vr.Err(lang), "Validation failed: "+msg)
	}
	note := ""
	if vr.Unverified {
		note = fmt.Sprintf(" [unverified: %s]", vr.Message)
	}

	if dryRun {
		out.Status = types.StatusApplied
		out.Message = fmt.Sprintf("Dry run successful (would modify lines %d-%d, %.0f%% match)%s",
			match.StartLine, match.EndLine, match.Similarity*100, note)
		return out
	}

	backupPath, err := a.backups.CreateBackup(path)
	if err != nil {
		return failed(out, err, fmt.Sprintf("Failed to create backup: %v", err))
	}

	if err := a.write(path, []byte(patched)); err != nil {
		a.rollback(path, backupPath, err)
		return failed(out, fmt.Errorf("%w: %w", types.ErrWrite, err), fmt.Sprintf("Failed to apply patch: %v", err))
	}

	fixID, err := a.history.AddFix(path, originalSnippet, newSnippet, backupPath)
	if err != nil {
		a.rollback(path, backupPath, err)
		return failed(out, fmt.Errorf("%w: recording fix: %w", types.ErrWrite, err), fmt.Sprintf("Failed to record fix: %v", err))
	}

	a.logger.Info("applied fix",
		zap.String("fix_id", fixID),
		zap.String("file", path),
		zap.String("stage", match.Stage.String()),
		zap.Float64("similarity", match.Similarity))

	out.Status = types.StatusApplied
	out.FixID = fixID
	out.Message = fmt.Sprintf("Successfully applied patch (fix ID: %s)%s", fixID, note)
	return out
}

// rollback restores backupPath over path after a failed write. A restore
// failure is logged; the caller still reports the original failure.
func (a *Applier) rollback(path, backupPath string, cause error) {
	if err := a.backups.RestoreBackup(backupPath, path); err != nil {
		a.logger.Error("rollback failed",
			zap.String("file", path),
			zap.String("backup", backupPath),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	a.logger.Warn("rolled back failed patch", zap.String("file", path), zap.Error(cause))
}

// UndoLastFix reverts the most recent fix that has not been reverted. When a
// concurrent undo reverts the chosen fix first, the next one is tried.
func (a *Applier) UndoLastFix(ctx context.Context) types.UndoResult {
	for {
		entries, err := a.history.RecentFixes(0)
		if err != nil {
			return types.UndoResult{Message: fmt.Sprintf("Failed to read history: %v", err), Err: err}
		}
		var next *types.HistoryEntry
		for i := range entries {
			if !entries[i].Reverted {
				next = &entries[i]
				break
			}
		}
		if next == nil {
			return types.UndoResult{Message: "No fixes to undo", Err: types.ErrNotFound}
		}
		res := a.undo(ctx, next.FixID, next.FilePath)
		if !errors.Is(res.Err, types.ErrAlreadyReverted) {
			return res
		}
	}
}

// UndoFix reverts the fix with id.
func (a *Applier) UndoFix(ctx context.Context, id string) types.UndoResult {
	e, err := a.history.GetFix(id)
	if err != nil {
		return lookupFailed(id, err)
	}
	return a.undo(ctx, id, e.FilePath)
}

// undo restores the backup of fix id under the lock of path. The entry and
// the list of later fixes to the same file are read after the lock is held.
func (a *Applier) undo(ctx context.Context, id, path string) types.UndoResult {
	res := types.UndoResult{FixID: id}

	unlock := a.locks.lock(lockKey(path))
	defer unlock()

	if err := ctx.Err(); err != nil {
		res.Message = "Undo canceled"
		res.Err = err
		return res
	}

	e, err := a.history.GetFix(id)
	if err != nil {
		return lookupFailed(id, err)
	}
	if e.Reverted {
		res.Message = "Fix already reverted"
		res.Err = fmt.Errorf("%w: %s", types.ErrAlreadyReverted, id)
		return res
	}
	entries, err := a.history.RecentFixes(0)
	if err != nil {
		res.Message = fmt.Sprintf("Failed to read history: %v", err)
		res.Err = err
		return res
	}

	if err := a.backups.RestoreBackup(e.BackupPath, e.FilePath); err != nil {
		a.logger.Error("undo failed", zap.String("fix_id", id), zap.Error(err))
		res.Message = "Failed to restore from backup"
		res.Err = fmt.Errorf("%w: %w", types.ErrBackup, err)
		return res
	}
	if err := a.history.MarkReverted(id); err != nil {
		res.Message = fmt.Sprintf("Restored backup but could not mark fix reverted: %v", err)
		res.Err = err
		return res
	}

	res.OK = true
	res.Message = "Successfully undid fix " + id
	if later := laterActiveFixes(e, entries); len(later) > 0 {
		res.Message += fmt.Sprintf(" (warning: also discarded later changes from %v)", later)
		a.logger.Warn("undo discarded later fixes", zap.String("fix_id", id), zap.Strings("later", later))
	}
	a.logger.Info("undid fix", zap.String("fix_id", id), zap.String("file", e.FilePath))
	return res
}

func lookupFailed(id string, err error) types.UndoResult {
	if errors.Is(err, types.ErrNotFound) {
		return types.UndoResult{FixID: id, Message: "Fix not found: " + id, Err: err}
	}
	return types.UndoResult{FixID: id, Message: fmt.Sprintf("Failed to read history: %v", err), Err: err}
}

// laterActiveFixes lists unreverted fixes to e's file recorded after e.
func laterActiveFixes(e types.HistoryEntry, newestFirst []types.HistoryEntry) []string {
	var ids []string
	for _, o := range newestFirst {
		if o.FixID == e.FixID {
			break
		}
		if !o.Reverted && lockKey(o.FilePath) == lockKey(e.FilePath) {
			ids = append(ids, o.FixID)
		}
	}
	return ids
}

func failed(out types.FixOutcome, err error, msg string) types.FixOutcome {
	out.Status = types.StatusFailed
	out.Message = msg
	out.Err = err
	return out
}

func lockKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
