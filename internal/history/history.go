// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history keeps the append-only ledger of applied fixes. The ledger
// is a JSON array rewritten atomically on every change.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/internal/editor"
	"github.com/petar-djukic/rootcause/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tracker reads and writes the ledger file. Calls are serialized by an
// internal mutex; separate processes sharing a ledger are not coordinated.
type Tracker struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewTracker returns a Tracker for the ledger at path. The file is created
// on the first write.
func NewTracker(path string, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{path: path, logger: logger, now: time.Now}
}

// Path returns the ledger file path.
func (t *Tracker) Path() string { return t.path }

// AddFix appends an entry and returns its new fix id.
func (t *Tracker) AddFix(filePath, originalSnippet, newSnippet, backupPath string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.load()
	if err != nil {
		return "", err
	}

	now := t.now()
	entry := types.HistoryEntry{
		FixID:           newFixID(entries, now),
		Timestamp:       now,
		FilePath:        filePath,
		OriginalSnippet: originalSnippet,
		NewSnippet:      newSnippet,
		BackupPath:      backupPath,
	}
	entries = append(entries, entry)
	if err := t.save(entries); err != nil {
		return "", err
	}
	t.logger.Debug("recorded fix", zap.String("fix_id", entry.FixID), zap.String("file", filePath))
	return entry.FixID, nil
}

// newFixID builds fix_<seq>_<YYYYMMDDhhmmss>. A repeated id, possible after
// ClearHistory within the same second, gets a numeric suffix.
func newFixID(entries []types.HistoryEntry, now time.Time) string {
	base := fmt.Sprintf("fix_%d_%s", len(entries)+1, now.Format("20060102150405"))
	id := base
	for n := 2; containsID(entries, id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

func containsID(entries []types.HistoryEntry, id string) bool {
	for _, e := range entries {
		if e.FixID == id {
			return true
		}
	}
	return false
}

// GetFix returns the entry with id, or an error wrapping types.ErrNotFound.
func (t *Tracker) GetFix(id string) (types.HistoryEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.load()
	if err != nil {
		return types.HistoryEntry{}, err
	}
	for _, e := range entries {
		if e.FixID == id {
			return e, nil
		}
	}
	return types.HistoryEntry{}, fmt.Errorf("%w: %s", types.ErrNotFound, id)
}

// RecentFixes returns up to n entries, newest first. n <= 0 returns all.
func (t *Tracker) RecentFixes(n int) ([]types.HistoryEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.load()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]types.HistoryEntry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

// MarkReverted flips the entry's reverted flag. It fails with
// types.ErrNotFound for an unknown id and types.ErrAlreadyReverted when the
// flag is already set.
func (t *Tracker) MarkReverted(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].FixID != id {
			continue
		}
		if entries[i].Reverted {
			return fmt.Errorf("%w: %s", types.ErrAlreadyReverted, id)
		}
		entries[i].Reverted = true
		return t.save(entries)
	}
	return fmt.Errorf("%w: %s", types.ErrNotFound, id)
}

// Stats summarizes the ledger.
func (t *Tracker) Stats() (types.HistoryStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.load()
	if err != nil {
		return types.HistoryStats{}, err
	}
	var s types.HistoryStats
	files := make(map[string]struct{})
	for _, e := range entries {
		s.TotalFixes++
		if e.Reverted {
			s.RevertedCount++
		}
		files[e.FilePath] = struct{}{}
	}
	s.ActiveFixes = s.TotalFixes - s.RevertedCount
	s.FilesModified = len(files)
	return s, nil
}

// ClearHistory empties the ledger. Backups are left in place.
func (t *Tracker) ClearHistory() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.save([]types.HistoryEntry{})
}

func (t *Tracker) load() ([]types.HistoryEntry, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", t.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []types.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding history %s: %w", t.path, err)
	}
	return entries, nil
}

func (t *Tracker) save(entries []types.HistoryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	if err := editor.WriteFileAtomic(t.path, append(data, '\n')); err != nil {
		return fmt.Errorf("writing history %s: %w", t.path, err)
	}
	return nil
}
