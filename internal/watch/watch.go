// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package watch follows a log file and classifies each error block as it
// appears.
package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// DefaultFlushInterval is how long a partial block waits for more lines.
const DefaultFlushInterval = 500 * time.Millisecond

// Classifier turns a block of text into a ParsedError.
type Classifier interface {
	Classify(text string) (*types.ParsedError, error)
}

// Config controls how the file is followed.
type Config struct {
	FlushInterval time.Duration // Idle time that closes a partial block
	FromStart     bool          // Read existing content instead of seeking to the end
	Poll          bool          // Poll for changes instead of using inotify
}

// Event is one classified block.
type Event struct {
	ID    string             `json:"id"`
	Time  time.Time          `json:"time"`
	Block string             `json:"block"`
	Error *types.ParsedError `json:"error"`
}

// Watcher follows one log file.
type Watcher struct {
	path       string
	cfg        Config
	classifier Classifier
	logger     *zap.Logger
}

// New creates a Watcher for path.
func New(path string, c Classifier, cfg Config, logger *zap.Logger) *Watcher {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:       path,
		cfg:        cfg,
		classifier: c,
		logger:     logger.Named("watch"),
	}
}

// Run tails the file and sends an Event for every block that classifies.
// Blocks no parser recognizes are logged at debug level and dropped. Run
// blocks until ctx is done or the tail ends, and never closes out.
func (w *Watcher) Run(ctx context.Context, out chan<- Event) error {
	loc := &tail.SeekInfo{Offset: 0, Whence: 2}
	if w.cfg.FromStart {
		loc = &tail.SeekInfo{Offset: 0, Whence: 0}
	}
	t, err := tail.TailFile(w.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      w.cfg.Poll,
		Location:  loc,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", w.path, err)
	}
	defer func() {
		_ = t.Stop()
		t.Cleanup()
	}()

	w.logger.Info("Watching log file", zap.String("path", w.path), zap.Bool("from_start", w.cfg.FromStart))
	return w.consume(ctx, t.Lines, out)
}

// consume is the read loop. It is separate from Run so it can be driven
// without a file.
func (w *Watcher) consume(ctx context.Context, lines <-chan *tail.Line, out chan<- Event) error {
	var s splitter
	timer := time.NewTimer(w.cfg.FlushInterval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	stopTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}

	emit := func(block []string) error {
		if len(block) == 0 {
			return nil
		}
		ev, ok := w.classify(block)
		if !ok {
			return nil
		}
		select {
		case out <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping log watcher.")
			return nil

		case line, ok := <-lines:
			if !ok {
				if err := emit(s.flush()); err != nil {
					return nil
				}
				w.logger.Info("Log file tailer channel closed.")
				return nil
			}
			if line.Err != nil {
				w.logger.Warn("Error reading from log file", zap.Error(line.Err))
				continue
			}
			if err := emit(s.add(line.Text)); err != nil {
				return nil
			}
			stopTimer()
			if s.pending() {
				timer.Reset(w.cfg.FlushInterval)
			}

		case <-timer.C:
			if err := emit(s.flush()); err != nil {
				return nil
			}
		}
	}
}

func (w *Watcher) classify(block []string) (Event, bool) {
	text := strings.Join(block, "\n")
	parsed, err := w.classifier.Classify(text)
	if err != nil {
		if errors.Is(err, types.ErrClassification) {
			w.logger.Debug("Unrecognized block", zap.Int("lines", len(block)))
		} else {
			w.logger.Warn("Classification failed", zap.Error(err))
		}
		return Event{}, false
	}
	ev := Event{
		ID:    uuid.NewString(),
		Time:  time.Now(),
		Block: text,
		Error: parsed,
	}
	w.logger.Info("Error detected",
		zap.String("id", ev.ID),
		zap.String("language", string(parsed.Language)),
		zap.String("error_type", parsed.ErrorType))
	return ev, true
}
