// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newBackupsCmd creates the "backups" command group.
func newBackupsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Inspect and prune pre-patch backups",
	}

	list := &cobra.Command{
		Use:   "list [file]",
		Short: "List backups, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			infos, err := a.engine.Backups(path)
			if err != nil {
				return fmt.Errorf("listing backups: %w", err)
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return printJSON(out, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, "No backups found.")
				return nil
			}
			for _, b := range infos {
				fmt.Fprintf(out, "%s  %8d  %s  %s\n",
					b.Modified.Local().Format("2006-01-02 15:04:05"),
					b.Size,
					headerColor.Sprint(b.OriginalName),
					b.Path)
			}
			return nil
		},
	}

	var days int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete backups older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed := a.engine.PruneBackups(days)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backup(s).\n", removed)
			return nil
		},
	}
	prune.Flags().IntVar(&days, "days", -1, "Age in days (default: backup.retention_days)")

	cmd.AddCommand(list, prune)
	return cmd
}
