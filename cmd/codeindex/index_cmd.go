package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codeindex/internal/indexer"
	"codeindex/internal/retrieval"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build search embeddings over the current symbol index",
	Long: `index reads every symbol already recorded for the workspace project
(run analyze first) and builds the keyword-frequency description and vector
for it, upserting into the embedding table.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	logger.Info("Building embeddings", zap.String("root", root))

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

	retriever := retrieval.New(st)
	count, err := retriever.IndexProject(project.ID)
	if err != nil {
		logger.Error("Embedding failed", zap.Error(err))
		return fmt.Errorf("index_embeddings: %w", err)
	}
	logger.Info("Embedding complete", zap.Int("symbols", count))

	fmt.Printf("embedded %d symbols for %s\n", count, project.Name)
	return nil
}
