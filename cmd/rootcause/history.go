// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newHistoryCmd creates the "history" command.
func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit    int
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List applied fixes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if clearAll {
				if err := a.engine.ClearHistory(); err != nil {
					return fmt.Errorf("clearing history: %w", err)
				}
				fmt.Fprintln(out, "History cleared. Backups were kept.")
				return nil
			}

			entries, err := a.engine.History(limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if a.jsonOut {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No fixes recorded.")
				return nil
			}
			for _, e := range entries {
				state := appliedColor.Sprint("active")
				if e.Reverted {
					state = skippedColor.Sprint("reverted")
				}
				fmt.Fprintf(out, "%s  %s  %-8s  %s\n",
					headerColor.Sprint(e.FixID),
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					state,
					e.FilePath)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all history entries")
	return cmd
}

// newStatsCmd creates the "stats" command.
func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the fix history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.engine.Stats()
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return printJSON(out, stats)
			}
			fmt.Fprintf(out, "Total fixes:    %d\n", stats.TotalFixes)
			fmt.Fprintf(out, "Active fixes:   %d\n", stats.ActiveFixes)
			fmt.Fprintf(out, "Reverted:       %d\n", stats.RevertedCount)
			fmt.Fprintf(out, "Files modified: %d\n", stats.FilesModified)
			return nil
		},
	}
}
