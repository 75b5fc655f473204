// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package watch

import (
	"regexp"
	"strings"
)

// MaxBlockLines bounds a single block. A longer run of lines is emitted in
// pieces.
const MaxBlockLines = 500

// blockStart matches lines that open a new diagnostic. A pending block is
// closed before such a line is buffered.
var blockStart = regexp.MustCompile(`^(Traceback \(most recent call last\):|Failed to compile\.?|Uncaught |\d{4}[-/]\d{2}[-/]\d{2}[ T])`)

// splitter groups log lines into blocks. It ends a block on a start
// marker, on two consecutive blank lines or at MaxBlockLines.
type splitter struct {
	lines  []string
	blanks int
}

// add buffers line and returns any block it completed.
func (s *splitter) add(line string) []string {
	line = strings.TrimRight(line, "\r")

	if strings.TrimSpace(line) == "" {
		if len(s.lines) == 0 {
			return nil
		}
		s.blanks++
		if s.blanks >= 2 {
			return s.flush()
		}
		s.lines = append(s.lines, line)
		return nil
	}
	s.blanks = 0

	var done []string
	if len(s.lines) > 0 && blockStart.MatchString(line) {
		done = s.flush()
	}
	s.lines = append(s.lines, line)
	if len(s.lines) >= MaxBlockLines {
		done = s.flush()
	}
	return done
}

// flush returns the buffered block with trailing blank lines removed and
// resets the buffer. It returns nil when nothing is buffered.
func (s *splitter) flush() []string {
	block := s.lines
	s.lines = nil
	s.blanks = 0
	for len(block) > 0 && strings.TrimSpace(block[len(block)-1]) == "" {
		block = block[:len(block)-1]
	}
	if len(block) == 0 {
		return nil
	}
	return block
}

func (s *splitter) pending() bool {
	return len(s.lines) > 0
}
