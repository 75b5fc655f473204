// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/rootcause/pkg/types"
)

// newUndoCmd creates the "undo" command.
func newUndoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undo [fix-id]",
		Short: "Revert an applied fix",
		Long:  "Undo restores the file from the fix's backup. Without an id it reverts the most recent fix that is still applied.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res types.UndoResult
			if len(args) == 1 {
				res = a.engine.UndoFix(cmd.Context(), args[0])
			} else {
				res = a.engine.UndoLastFix(cmd.Context())
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else if res.OK {
				fmt.Fprintln(out, appliedColor.Sprint(res.Message))
			} else {
				fmt.Fprintln(out, failedColor.Sprint(res.Message))
			}
			if !res.OK {
				return fmt.Errorf("undo failed: %s", res.Message)
			}
			return nil
		},
	}
}
