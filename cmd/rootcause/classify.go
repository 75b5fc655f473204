// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// newClassifyCmd creates the "classify" command.
func newClassifyCmd(a *app) *cobra.Command {
	var showScores bool
	cmd := &cobra.Command{
		Use:     "classify [file]",
		Aliases: []string{"explain"},
		Short:   "Classify an error log",
		Long:    "Classify reads error output from a file or stdin and prints the structured error record.",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			text := string(data)
			out := cmd.OutOrStdout()

			// A classification failure already carries every score.
			parsed, err := a.engine.Classify(text)
			if err != nil {
				return err
			}

			if a.jsonOut {
				if showScores {
					return printJSON(out, struct {
						Error  *types.ParsedError `json:"error"`
						Scores any                `json:"scores"`
					}{parsed, a.engine.Scores(text)})
				}
				return printJSON(out, parsed)
			}
			printParsed(out, parsed)
			if showScores {
				fmt.Fprintln(out, headerColor.Sprint("Scores:"))
				for _, s := range a.engine.Scores(text) {
					fmt.Fprintf(out, "  %-12s %.2f\n", s.Parser, s.Score)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showScores, "scores", false, "Also print every parser's detection score")
	return cmd
}
