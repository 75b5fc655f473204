// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/rootcause/pkg/rootcause"
	"github.com/petar-djukic/rootcause/pkg/types"
)

// newApplyCmd creates the "apply" command.
func newApplyCmd(a *app) *cobra.Command {
	var (
		dryRun      bool
		interactive bool
		lang        string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "apply [fixes-file]",
		Short: "Apply fix suggestions",
		Long: `Apply reads fix suggestions from a file or stdin and applies them.

Suggestions are JSON (a list, or an object with a "fixes" list, of
{file_path, original_snippet, new_snippet}) or SEARCH/REPLACE blocks, each
preceded by a line naming the file. Every applied fix is backed up and
recorded, and can be reverted with "rootcause undo".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return fmt.Errorf("reading fixes: %w", err)
			}
			fixes, err := a.engine.ParseFixes(data, rootcause.FixFormat(format))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			if !dryRun {
				for _, p := range a.engine.DirtyFiles(fixes) {
					warn(errOut, "%s has uncommitted changes", p)
				}
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			opts := rootcause.BatchOptions{
				Language:    types.ParseLanguage(lang),
				DryRun:      dryRun,
				Interactive: interactive,
			}
			if interactive && !dryRun {
				opts.Confirmer = newPromptConfirmer(cmd.InOrStdin(), out)
			}

			report := a.engine.ApplyFixes(ctx, fixes, opts)
			if a.jsonOut {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				if dryRun {
					for _, f := range fixes {
						fmt.Fprintln(out, headerColor.Sprint(f.FilePath))
						printDiff(out, f.OriginalSnippet, f.NewSnippet)
					}
					fmt.Fprintln(out)
				}
				printReport(out, report)
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d fixes failed", report.Failed, report.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview fixes without changing files")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Confirm each fix before applying it")
	cmd.Flags().StringVar(&lang, "lang", "", "Language of the target files (default: from extension)")
	cmd.Flags().StringVar(&format, "format", string(rootcause.FormatAuto), "Input format: auto, json or blocks")
	cmd.Flags().Float64("fuzzy-threshold", 0, "Minimum similarity for fuzzy matching (default from config)")
	_ = a.v.BindPFlag("patch.fuzzy_threshold", cmd.Flags().Lookup("fuzzy-threshold"))
	return cmd
}

// promptConfirmer asks on the terminal before each fix.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm shows the fix and reads y/n/q. End of input quits.
func (p *promptConfirmer) Confirm(ctx context.Context, index, total int, fix types.FixSuggestion) (rootcause.Decision, error) {
	fmt.Fprintf(p.out, "\n%s %s\n", headerColor.Sprintf("Fix %d/%d:", index+1, total), fix.FilePath)
	if fix.Explanation != "" {
		fmt.Fprintln(p.out, fix.Explanation)
	}
	printDiff(p.out, fix.OriginalSnippet, fix.NewSnippet)

	for {
		if err := ctx.Err(); err != nil {
			return rootcause.Quit, err
		}
		fmt.Fprint(p.out, "Apply this fix? [y]es/[n]o/[q]uit: ")
		line, err := p.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return rootcause.Accept, nil
		case "n", "no":
			return rootcause.Reject, nil
		case "q", "quit":
			return rootcause.Quit, nil
		}
		if err == io.EOF {
			return rootcause.Quit, nil
		}
		if err != nil {
			return rootcause.Quit, fmt.Errorf("reading answer: %w", err)
		}
	}
}
