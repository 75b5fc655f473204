// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package patch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/petar-djukic/rootcause/pkg/types"
)

func TestApplyFixes_GroupedKeepsInputOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	a := f.write(t, "a.py", "x = 1\ny = 1\n")
	b := f.write(t, "web/b.js", "const z = 1;\n")

	fixes := []types.FixSuggestion{
		{FilePath: a, OriginalSnippet: "x = 1", NewSnippet: "x = 2"},
		{FilePath: b, OriginalSnippet: "const z = 1;", NewSnippet: "const z = 2;"},
		{FilePath: filepath.Join(f.root, "missing.py"), OriginalSnippet: "q", NewSnippet: "r"},
		{FilePath: a, OriginalSnippet: "y = 1", NewSnippet: "y = 2"},
	}

	report := f.applier.ApplyFixes(context.Background(), fixes, BatchOptions{})
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Applied)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Details, 4)

	for i, fix := range fixes {
		assert.Equal(t, fix.FilePath, report.Details[i].FilePath)
	}
	assert.Equal(t, types.StatusFailed, report.Details[2].Status)
	assert.Equal(t, "x = 2\ny = 2\n", read(t, a))
	assert.Equal(t, "const z = 2;\n", read(t, b))
}

func TestApplyFixes_DryRun(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.py", "x = 1\n")

	report := f.applier.ApplyFixes(context.Background(), []types.FixSuggestion{
		{FilePath: a, OriginalSnippet: "x = 1", NewSnippet: "x = 2"},
	}, BatchOptions{DryRun: true, Interactive: true, Confirmer: ConfirmFunc(func(context.Context, int, int, types.FixSuggestion) (Decision, error) {
		t.Fatal("dry runs never prompt")
		return Quit, nil
	})})

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, "x = 1\n", read(t, a))
	assert.Zero(t, f.stats(t).TotalFixes)
}

func TestApplyFixes_Interactive(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.py", "a = 1\nb = 1\nc = 1\nd = 1\n")

	fixes := []types.FixSuggestion{
		{FilePath: a, OriginalSnippet: "a = 1", NewSnippet: "a = 2"},
		{FilePath: a, OriginalSnippet: "b = 1", NewSnippet: "b = 2"},
		{FilePath: a, OriginalSnippet: "c = 1", NewSnippet: "c = 2"},
		{FilePath: a, OriginalSnippet: "d = 1", NewSnippet: "d = 2"},
	}
	answers := []Decision{Accept, Reject, Quit}
	var asked []int
	confirm := ConfirmFunc(func(_ context.Context, index, total int, _ types.FixSuggestion) (Decision, error) {
		assert.Equal(t, 4, total)
		asked = append(asked, index)
		return answers[index], nil
	})

	report := f.applier.ApplyFixes(context.Background(), fixes, BatchOptions{Interactive: true, Confirmer: confirm})
	assert.Equal(t, []int{0, 1, 2}, asked)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 3, report.Skipped)
	require.Len(t, report.Details, 4)
	assert.Equal(t, "User declined", report.Details[1].Message)
	assert.Equal(t, "Aborted by user", report.Details[3].Message)
	assert.Equal(t, "a = 2\nb = 1\nc = 1\nd = 1\n", read(t, a))
}

func TestApplyFixes_InteractiveWithoutConfirmer(t *testing.T) {
	tests := []struct {
		name        string
		dryRun      bool
		wantApplied int
		wantSkipped int
	}{
		{name: "nothing applied", wantSkipped: 2},
		{name: "dry run still previews", dryRun: true, wantApplied: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.write(t, "a.py", "a = 1\nb = 1\n")

			report := f.applier.ApplyFixes(context.Background(), []types.FixSuggestion{
				{FilePath: a, OriginalSnippet: "a = 1", NewSnippet: "a = 2"},
				{FilePath: a, OriginalSnippet: "b = 1", NewSnippet: "b = 2"},
			}, BatchOptions{Interactive: true, DryRun: tt.dryRun})

			assert.Equal(t, tt.wantApplied, report.Applied)
			assert.Equal(t, tt.wantSkipped, report.Skipped)
			assert.Zero(t, report.Failed)
			if tt.wantSkipped > 0 {
				assert.Equal(t, "Interactive mode requires a confirmer", report.Details[0].Message)
			}
			assert.Equal(t, "a = 1\nb = 1\n", read(t, a))
			assert.Zero(t, f.stats(t).TotalFixes)
		})
	}
}

func TestApplyFixes_ConfirmerError(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.py", "a = 1\n")

	report := f.applier.ApplyFixes(context.Background(), []types.FixSuggestion{
		{FilePath: a, OriginalSnippet: "a = 1", NewSnippet: "a = 2"},
	}, BatchOptions{Interactive: true, Confirmer: ConfirmFunc(func(context.Context, int, int, types.FixSuggestion) (Decision, error) {
		return Reject, errors.New("stdin closed")
	})})

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "a = 1\n", read(t, a))
}

func TestApplyFixes_CanceledSkipsRemaining(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.py", "a = 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.applier.ApplyFixes(ctx, []types.FixSuggestion{
		{FilePath: a, OriginalSnippet: "a = 1", NewSnippet: "a = 2"},
	}, BatchOptions{})
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "a = 1\n", read(t, a))
}

func TestKeyedLocks(t *testing.T) {
	defer goleak.VerifyNone(t)

	k := newKeyedLocks()
	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := k.lock("same")
			mu.Lock()
			active++
			maxActive = max(maxActive, active)
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Equal(t, 0, k.size())
}
