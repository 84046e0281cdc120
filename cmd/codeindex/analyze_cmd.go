package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codeindex/internal/indexer"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Scan the workspace and update the symbol index",
	Long: `analyze opens (or registers) the project at --workspace, walks its
files, and incrementally updates the symbol index: new and changed files are
re-extracted, unchanged files are skipped, and files removed from disk are
dropped from the index.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	logger.Info("Analyzing project", zap.String("root", root))

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ix := indexer.New(st)
	project, err := ix.OpenProject(root)
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	logger.Debug("Project opened", zap.String("id", project.ID), zap.String("language", string(project.Language)))

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithTimeout(baseCtx, timeout)
	defer cancel()

	report, err := ix.Analyze(ctx, project.ID, root)
	if err != nil {
		logger.Error("Analysis failed", zap.Error(err))
		return fmt.Errorf("analyze: %w", err)
	}
	logger.Info("Analysis complete",
		zap.Int("new", report.New),
		zap.Int("changed", report.Changed),
		zap.Int("deleted", report.Deleted),
		zap.Int("symbols", report.SymbolsFound),
		zap.Int("errors", report.Errors))

	fmt.Printf("project: %s (%s)\n", project.Name, project.ID)
	fmt.Printf("new=%d changed=%d unchanged=%d deleted=%d\n", report.New, report.Changed, report.Unchanged, report.Deleted)
	fmt.Printf("files_analyzed=%d symbols_found=%d errors=%d\n", report.FilesAnalyzed, report.SymbolsFound, report.Errors)
	return nil
}
