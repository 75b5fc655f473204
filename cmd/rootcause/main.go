// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command rootcause classifies error logs and applies fix suggestions with
// backup and undo.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/petar-djukic/rootcause/internal/config"
	"github.com/petar-djukic/rootcause/internal/observability"
	"github.com/petar-djukic/rootcause/pkg/rootcause"
)

const version = "0.1.0"

// app carries state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	workDir string
	jsonOut bool
	engine  *rootcause.Engine
	logger  *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "rootcause",
		Short:        "Classify error logs and apply fixes safely",
		Long:         "rootcause turns raw error output into a structured record and applies externally generated fixes with validation, backups and undo.",
		SilenceUsage: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "Config file (default is ./.rootcause.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.workDir, "workdir", ".", "Working directory")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Bind flags to viper.
	_ = a.v.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			disableColor()
		}
		return a.setup()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		observability.Sync()
	}

	// Add commands.
	rootCmd.AddCommand(newClassifyCmd(a))
	rootCmd.AddCommand(newApplyCmd(a))
	rootCmd.AddCommand(newUndoCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newBackupsCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads configuration, starts logging and builds the engine.
func (a *app) setup() error {
	if err := config.Setup(a.v, a.workDir); err != nil {
		return err
	}
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		observability.InitializeLogger(config.Default().Logger)
		return err
	}

	observability.InitializeLogger(cfg.Logger)
	a.logger = observability.GetLogger()
	a.logger.Debug("Starting rootcause", zap.String("version", version), zap.String("config", a.v.ConfigFileUsed()))

	engine, err := rootcause.New(cfg, a.workDir, a.logger)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	a.engine = engine
	return nil
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print rootcause version",
		// Version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rootcause %s\n", version)
		},
	}
}

// readInput reads a named file, or stdin for "-" or no name.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}
