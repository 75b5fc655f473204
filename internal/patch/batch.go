// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package patch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// Decision is a user's answer to a confirmation prompt.
type Decision int

const (
	Accept Decision = iota // Apply this fix
	Reject                 // Skip this fix
	Quit                   // Skip this fix and every remaining one
)

// Confirmer asks whether a fix should be applied. index is 0-based.
type Confirmer interface {
	Confirm(ctx context.Context, index, total int, fix types.FixSuggestion) (Decision, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, index, total int, fix types.FixSuggestion) (Decision, error)

func (f ConfirmFunc) Confirm(ctx context.Context, index, total int, fix types.FixSuggestion) (Decision, error) {
	return f(ctx, index, total, fix)
}

// BatchOptions controls ApplyFixes.
type BatchOptions struct {
	// Language applies to every fix; empty or unknown infers it from each
	// file's extension.
	Language types.Language
	DryRun   bool
	// Interactive asks Confirmer before each fix. Ignored for dry runs.
	// Without a Confirmer every fix is skipped.
	Interactive bool
	Confirmer   Confirmer
}

// ApplyFixes applies fixes and reports every outcome in input order. A
// failed fix does not stop the batch. Interactive batches run one fix at a
// time; otherwise fixes to different files run concurrently while fixes to
// the same file keep their input order.
func (a *Applier) ApplyFixes(ctx context.Context, fixes []types.FixSuggestion, opts BatchOptions) types.BatchReport {
	report := types.BatchReport{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
		Total:  len(fixes),
	}
	log := a.logger.With(zap.String("run_id", report.RunID))
	log.Info("applying fixes", zap.Int("total", len(fixes)), zap.Bool("dry_run", opts.DryRun))

	var outcomes []types.FixOutcome
	switch {
	case opts.Interactive && !opts.DryRun && opts.Confirmer == nil:
		log.Warn("interactive batch has no confirmer, nothing applied")
		for _, fix := range fixes {
			outcomes = append(outcomes, skipped(fix, "Interactive mode requires a confirmer"))
		}
	case opts.Interactive && !opts.DryRun:
		outcomes = a.applyInteractive(ctx, fixes, opts)
	default:
		outcomes = a.applyGrouped(ctx, fixes, opts)
	}
	for _, o := range outcomes {
		report.Record(o)
	}

	log.Info("batch finished",
		zap.Int("applied", report.Applied),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report
}

func (a *Applier) applyOne(ctx context.Context, fix types.FixSuggestion, opts BatchOptions) types.FixOutcome {
	return a.ApplyPatch(ctx, fix.FilePath, fix.OriginalSnippet, fix.NewSnippet, opts.Language, opts.DryRun)
}

func (a *Applier) applyInteractive(ctx context.Context, fixes []types.FixSuggestion, opts BatchOptions) []types.FixOutcome {
	out := make([]types.FixOutcome, 0, len(fixes))
	for i, fix := range fixes {
		d, err := opts.Confirmer.Confirm(ctx, i, len(fixes), fix)
		if err != nil {
			out = append(out, failed(types.FixOutcome{FilePath: fix.FilePath}, err, fmt.Sprintf("Confirmation failed: %v", err)))
			continue
		}
		switch d {
		case Quit:
			for _, rest := range fixes[i:] {
				out = append(out, skipped(rest, "Aborted by user"))
			}
			return out
		case Reject:
			out = append(out, skipped(fix, "User declined"))
			continue
		}
		out = append(out, a.applyOne(ctx, fix, opts))
	}
	return out
}

// applyGrouped runs one goroutine per file, bounded by the configured
// concurrency.
func (a *Applier) applyGrouped(ctx context.Context, fixes []types.FixSuggestion, opts BatchOptions) []types.FixOutcome {
	out := make([]types.FixOutcome, len(fixes))

	var order []string
	groups := make(map[string][]int)
	for i, fix := range fixes {
		key := lockKey(fix.FilePath)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for _, key := range order {
		idxs := groups[key]
		g.Go(func() error {
			for _, i := range idxs {
				if ctx.Err() != nil {
					out[i] = skipped(fixes[i], "Canceled")
					continue
				}
				out[i] = a.applyOne(ctx, fixes[i], opts)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func skipped(fix types.FixSuggestion, msg string) types.FixOutcome {
	return types.FixOutcome{FilePath: fix.FilePath, Status: types.StatusSkipped, Message: msg}
}
