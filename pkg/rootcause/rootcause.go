// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package rootcause is the public entry point. An Engine classifies
// diagnostic text and applies externally generated fixes with backup and
// undo.
package rootcause

import (
	"errors"

	"github.com/petar-djukic/rootcause/internal/backup"
	"github.com/petar-djukic/rootcause/internal/classifier"
	"github.com/petar-djukic/rootcause/internal/editformat"
	"github.com/petar-djukic/rootcause/internal/patch"
	"github.com/petar-djukic/rootcause/internal/watch"
)

// ErrInvalidConfig is returned by New for configurations that fail
// validation.
var ErrInvalidConfig = errors.New("invalid config")

// Re-exported collaborator types.
type (
	Score        = classifier.Score
	BackupInfo   = backup.Info
	BatchOptions = patch.BatchOptions
	Confirmer    = patch.Confirmer
	ConfirmFunc  = patch.ConfirmFunc
	Decision     = patch.Decision
	FixFormat    = editformat.Format
	WatchEvent   = watch.Event
)

// Confirmation decisions.
const (
	Accept = patch.Accept
	Reject = patch.Reject
	Quit   = patch.Quit
)

// Fix input formats.
const (
	FormatAuto   = editformat.FormatAuto
	FormatJSON   = editformat.FormatJSON
	FormatBlocks = editformat.FormatBlocks
)
