// Package main implements the codeindex CLI: the collaborator surface over
// the Incremental Code Index, Semantic Retrieval, and Task Graph Engine
// cores.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codeindex/internal/logging"
)

var (
	verbose   bool
	workspace string
	storePath string
	timeout   time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codeindex",
	Short: "codeindex - incremental code index, semantic search, and task graph engine",
	Long: `codeindex maintains a symbol index of a codebase, answers natural-language
search queries over it, and tracks a dependency graph of development tasks.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		if verbose {
			if err := logging.EnableDebug(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to enable debug logging: %v\n", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Path to the codeindex database (default: store_path from config, else codeindex.db in ./.codeindex or ~/.codeindex)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(analyzeCmd, indexCmd, searchCmd, tasksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
