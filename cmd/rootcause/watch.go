// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/rootcause/pkg/rootcause"
)

// newWatchCmd creates the "watch" command.
func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <log-file>",
		Short: "Follow a log file and classify errors as they appear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			events := make(chan rootcause.WatchEvent)
			done := make(chan error, 1)
			go func() {
				done <- a.engine.Watch(ctx, args[0], events)
			}()

			out := cmd.OutOrStdout()
			for {
				select {
				case ev := <-events:
					if a.jsonOut {
						if err := printJSON(out, ev); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintf(out, "%s %s\n", warnColor.Sprint("==>"), ev.Time.Local().Format("15:04:05"))
					printParsed(out, ev.Error)
					fmt.Fprintln(out)
				case err := <-done:
					return err
				}
			}
		},
	}
	cmd.Flags().Bool("from-start", false, "Read the whole file instead of only new lines")
	cmd.Flags().Duration("flush-interval", 0, "Idle time that closes a partial error block (default from config)")
	_ = a.v.BindPFlag("watch.from_start", cmd.Flags().Lookup("from-start"))
	_ = a.v.BindPFlag("watch.flush_interval", cmd.Flags().Lookup("flush-interval"))
	return cmd
}

