// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/petar-djukic/rootcause/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format names an input encoding for fix suggestions.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatJSON   Format = "json"
	FormatBlocks Format = "blocks"
)

// ErrInvalidFix marks a suggestion that lacks a file path or snippet.
var ErrInvalidFix = errors.New("invalid fix suggestion")

// envelope is the object form of the JSON input.
type envelope struct {
	Fixes []types.FixSuggestion `json:"fixes"`
}

// LoadFile reads suggestions from path ("-" reads stdin) and resolves
// relative file paths against baseDir.
func LoadFile(path, baseDir string, format Format) ([]types.FixSuggestion, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = readAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading fixes from %s: %w", path, err)
	}
	fixes, err := Load(data, format)
	if err != nil {
		return nil, fmt.Errorf("loading fixes from %s: %w", path, err)
	}
	return Resolve(fixes, baseDir), nil
}

// Load decodes suggestions. FormatAuto picks JSON when the first
// non-blank byte opens an array or object and SEARCH/REPLACE blocks
// otherwise.
func Load(data []byte, format Format) ([]types.FixSuggestion, error) {
	if format == "" || format == FormatAuto {
		format = detect(data)
	}

	var fixes []types.FixSuggestion
	switch format {
	case FormatJSON:
		var err error
		if fixes, err = decodeJSON(data); err != nil {
			return nil, err
		}
	case FormatBlocks:
		res, err := Parse(string(data))
		if err != nil {
			return nil, err
		}
		if len(res.ParseErrors) > 0 {
			return nil, errors.Join(toErrors(res.ParseErrors)...)
		}
		fixes = res.Fixes
	default:
		return nil, fmt.Errorf("unknown fix format %q", format)
	}

	for i, f := range fixes {
		if f.FilePath == "" {
			return nil, fmt.Errorf("%w: fix %d has no file_path", ErrInvalidFix, i+1)
		}
		if f.OriginalSnippet == "" {
			return nil, fmt.Errorf("%w: fix %d has no original_snippet", ErrInvalidFix, i+1)
		}
	}
	return fixes, nil
}

// Resolve makes relative file paths absolute against baseDir. The input
// slice is not modified.
func Resolve(fixes []types.FixSuggestion, baseDir string) []types.FixSuggestion {
	out := make([]types.FixSuggestion, len(fixes))
	for i, f := range fixes {
		if baseDir != "" && !filepath.IsAbs(f.FilePath) {
			f.FilePath = filepath.Join(baseDir, f.FilePath)
		}
		out[i] = f
	}
	return out
}

func detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatBlocks
}

func decodeJSON(data []byte) ([]types.FixSuggestion, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &NoFixesFoundError{}
	}
	var fixes []types.FixSuggestion
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decoding fixes: %w", err)
		}
		fixes = env.Fixes
	} else if err := json.Unmarshal(trimmed, &fixes); err != nil {
		return nil, fmt.Errorf("decoding fixes: %w", err)
	}
	if len(fixes) == 0 {
		return nil, &NoFixesFoundError{}
	}
	return fixes, nil
}

func toErrors(perrs []*ParseError) []error {
	errs := make([]error, len(perrs))
	for i, pe := range perrs {
		errs[i] = pe
	}
	return errs
}

func readAll(f *os.File) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(f)
	return buf.Bytes(), err
}
