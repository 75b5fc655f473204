// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/rootcause/pkg/types"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr := NewTracker(filepath.Join(t.TempDir(), ".fix-error-history.json"), nil)
	tr.now = func() time.Time { return time.Date(2026, 5, 4, 13, 14, 15, 0, time.UTC) }
	return tr
}

func TestAddFix_IDsAndPersistence(t *testing.T) {
	tr := newTestTracker(t)

	id1, err := tr.AddFix("a.py", "old", "new", "/bk/a.py.1.bak")
	require.NoError(t, err)
	id2, err := tr.AddFix("b.py", "old", "new", "/bk/b.py.1.bak")
	require.NoError(t, err)

	assert.Equal(t, "fix_1_20260504131415", id1)
	assert.Equal(t, "fix_2_20260504131415", id2)

	// A second tracker over the same file sees the same ledger.
	other := NewTracker(tr.Path(), nil)
	e, err := other.GetFix(id1)
	require.NoError(t, err)
	assert.Equal(t, "a.py", e.FilePath)
	assert.Equal(t, "/bk/a.py.1.bak", e.BackupPath)
	assert.False(t, e.Reverted)

	data, err := os.ReadFile(tr.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fix_id"`)
	assert.Contains(t, string(data), `"fix_1_20260504131415"`)
	assert.Contains(t, string(data), `"reverted"`)
}

func TestGetFix_NotFound(t *testing.T) {
	_, err := newTestTracker(t).GetFix("fix_9_x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRecentFixes(t *testing.T) {
	tr := newTestTracker(t)
	for i := 0; i < 5; i++ {
		_, err := tr.AddFix(fmt.Sprintf("f%d.py", i), "", "", "")
		require.NoError(t, err)
	}

	recent, err := tr.RecentFixes(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "f4.py", recent[0].FilePath)
	assert.Equal(t, "f3.py", recent[1].FilePath)

	all, err := tr.RecentFixes(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	empty, err := newTestTracker(t).RecentFixes(3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkRevertedAndStats(t *testing.T) {
	tr := newTestTracker(t)
	id1, _ := tr.AddFix("a.py", "", "", "")
	_, _ = tr.AddFix("a.py", "", "", "")
	_, _ = tr.AddFix("b.py", "", "", "")

	require.NoError(t, tr.MarkReverted(id1))

	err := tr.MarkReverted(id1)
	assert.ErrorIs(t, err, types.ErrAlreadyReverted)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, tr.MarkReverted("missing"), types.ErrNotFound)

	s, err := tr.Stats()
	require.NoError(t, err)
	assert.Equal(t, types.HistoryStats{TotalFixes: 3, ActiveFixes: 2, RevertedCount: 1, FilesModified: 2}, s)
}

func TestClearHistory(t *testing.T) {
	tr := newTestTracker(t)
	_, _ = tr.AddFix("a.py", "", "", "")
	require.NoError(t, tr.ClearHistory())

	s, err := tr.Stats()
	require.NoError(t, err)
	assert.Zero(t, s.TotalFixes)

	// Sequence restarts but ids stay unique within the ledger.
	id, err := tr.AddFix("a.py", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "fix_1_20260504131415", id)
}

func TestNewFixID_Collision(t *testing.T) {
	now := time.Date(2026, 5, 4, 13, 14, 15, 0, time.UTC)
	entries := []types.HistoryEntry{{FixID: "fix_2_20260504131415"}}
	assert.Equal(t, "fix_2_20260504131415_2", newFixID(entries, now))
}

func TestLoad_CorruptLedgerIsAnError(t *testing.T) {
	tr := newTestTracker(t)
	require.NoError(t, os.WriteFile(tr.Path(), []byte("{not json"), 0o644))

	_, err := tr.AddFix("a.py", "", "", "")
	assert.Error(t, err)

	data, _ := os.ReadFile(tr.Path())
	assert.Equal(t, "{not json", string(data), "a corrupt ledger is never overwritten")
}

func TestAddFix_ConcurrentCallersGetDistinctIDs(t *testing.T) {
	tr := NewTracker(filepath.Join(t.TempDir(), "h.json"), nil)

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := tr.AddFix("a.py", "", "", "")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	s, err := tr.Stats()
	require.NoError(t, err)
	assert.Equal(t, 20, s.TotalFixes)
}
