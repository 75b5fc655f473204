// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/petar-djukic/rootcause/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	appliedColor = color.New(color.FgGreen, color.Bold)
	failedColor  = color.New(color.FgRed, color.Bold)
	skippedColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgCyan, color.Bold)
	addColor     = color.New(color.FgGreen)
	delColor     = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow, color.Bold)
)

func disableColor() {
	color.NoColor = true
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func statusColor(s types.ApplyStatus) *color.Color {
	switch s {
	case types.StatusApplied:
		return appliedColor
	case types.StatusFailed:
		return failedColor
	default:
		return skippedColor
	}
}

func printOutcome(w io.Writer, o types.FixOutcome) {
	fmt.Fprintf(w, "%s %s: %s\n", statusColor(o.Status).Sprintf("[%s]", o.Status), o.FilePath, o.Message)
}

func printReport(w io.Writer, r types.BatchReport) {
	for _, o := range r.Details {
		printOutcome(w, o)
	}
	fmt.Fprintf(w, "\n%s total=%d %s %s %s\n",
		headerColor.Sprint("Summary:"),
		r.Total,
		appliedColor.Sprintf("applied=%d", r.Applied),
		failedColor.Sprintf("failed=%d", r.Failed),
		skippedColor.Sprintf("skipped=%d", r.Skipped))
}

func printParsed(w io.Writer, p *types.ParsedError) {
	if p.Framework != "" {
		fmt.Fprintf(w, "%s %s (%s)\n", headerColor.Sprint("Language:"), p.Language, p.Framework)
	} else {
		fmt.Fprintf(w, "%s %s\n", headerColor.Sprint("Language:"), p.Language)
	}
	fmt.Fprintf(w, "%s %s\n", headerColor.Sprint("Type:"), p.ErrorType)
	fmt.Fprintf(w, "%s %s\n", headerColor.Sprint("Category:"), p.Category)
	fmt.Fprintf(w, "%s %s\n", headerColor.Sprint("Severity:"), p.Severity)
	fmt.Fprintf(w, "%s %.2f\n", headerColor.Sprint("Confidence:"), p.Confidence)
	fmt.Fprintf(w, "%s %s\n", headerColor.Sprint("Message:"), p.Message)
	if len(p.Imports) > 0 {
		fmt.Fprintf(w, "%s %s\n", headerColor.Sprint("Imports:"), strings.Join(p.Imports, ", "))
	}
	if len(p.StackFrames) > 0 {
		fmt.Fprintln(w, headerColor.Sprint("Stack:"))
		for _, f := range p.StackFrames {
			fmt.Fprintf(w, "  %s\n", f)
			if f.CodeSnippet != "" {
				fmt.Fprintf(w, "      %s\n", f.CodeSnippet)
			}
		}
	}
}

// printDiff writes a line diff of oldText against newText.
func printDiff(w io.Writer, oldText, newText string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				delColor.Fprintf(w, "- %s\n", line)
			case diffmatchpatch.DiffInsert:
				addColor.Fprintf(w, "+ %s\n", line)
			default:
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
}

func warn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "warning: "+format+"\n", args...)
}
