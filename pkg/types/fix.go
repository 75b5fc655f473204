// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "time"

// FixSuggestion is a proposed edit produced outside this module. The patch
// engine never modifies it.
type FixSuggestion struct {
	FilePath        string  `json:"file_path"`
	OriginalSnippet string  `json:"original_snippet"`
	NewSnippet      string  `json:"new_snippet"`
	Explanation     string  `json:"explanation,omitempty"`
	Confidence      float64 `json:"confidence"`
	LineNumber      int     `json:"line_number,omitempty"` // Hint only (1-based, 0 if absent)
}

// MatchStage identifies which matching strategy located a snippet.
type MatchStage int

const (
	StageExact MatchStage = iota // Byte-for-byte substring match
	StageFuzzy                   // Normalized sliding-window similarity match
	StageNone                    // No match found
)

func (s MatchStage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageFuzzy:
		return "fuzzy"
	case StageNone:
		return "none"
	default:
		return "unknown"
	}
}

// Match is a located snippet. Lines are 0-indexed and EndLine is exclusive.
// Start and End are the byte offsets of the region to replace.
type Match struct {
	StartLine  int
	EndLine    int
	Similarity float64
	Stage      MatchStage
	Start      int
	End        int
}

// HistoryEntry is one record of the fix ledger. Reverted is the only field
// that changes after the entry is written.
type HistoryEntry struct {
	FixID           string    `json:"fix_id"`
	Timestamp       time.Time `json:"timestamp"`
	FilePath        string    `json:"file_path"`
	OriginalSnippet string    `json:"original_snippet"`
	NewSnippet      string    `json:"new_snippet"`
	BackupPath      string    `json:"backup_path"`
	Reverted        bool      `json:"reverted"`
}

// HistoryStats summarizes the ledger.
type HistoryStats struct {
	TotalFixes    int `json:"total_fixes"`
	ActiveFixes   int `json:"active_fixes"`
	RevertedCount int `json:"reverted_count"`
	FilesModified int `json:"files_modified"`
}

// ApplyStatus is the terminal state of one fix in a batch.
type ApplyStatus string

const (
	StatusApplied ApplyStatus = "applied"
	StatusFailed  ApplyStatus = "failed"
	StatusSkipped ApplyStatus = "skipped"
)

// FixOutcome is the result of applying (or previewing) one fix.
type FixOutcome struct {
	FilePath string      `json:"file"`
	Status   ApplyStatus `json:"status"`
	Message  string      `json:"message"`
	FixID    string      `json:"fix_id,omitempty"`
	Err      error       `json:"-"` // Typed cause for failed outcomes
}

// OK reports whether the fix was applied (or would be, for a dry run).
func (o FixOutcome) OK() bool {
	return o.Status == StatusApplied
}

// BatchReport aggregates the outcomes of a batch apply. Details are in the
// same order as the input fixes.
type BatchReport struct {
	RunID   string       `json:"run_id"`
	DryRun  bool         `json:"dry_run"`
	Total   int          `json:"total"`
	Applied int          `json:"applied"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Details []FixOutcome `json:"details"`
}

// Record adds an outcome to the report and updates the counters.
func (r *BatchReport) Record(o FixOutcome) {
	switch o.Status {
	case StatusApplied:
		r.Applied++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
	r.Details = append(r.Details, o)
}

// UndoResult is the outcome of an undo request. Undo never returns an error
// for a missing or already reverted fix; OK is false and Message says why.
type UndoResult struct {
	OK      bool   `json:"ok"`
	FixID   string `json:"fix_id,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}
