package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codeindex/internal/retrieval"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the embedded symbol index for a natural-language query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	query := strings.Join(args, " ")
	logger.Info("Searching index", zap.String("query", query), zap.Int("limit", searchLimit))

	retriever := retrieval.New(st)
	hits, err := retriever.Search(query, searchLimit)
	if err != nil {
		logger.Error("Search failed", zap.Error(err))
		return fmt.Errorf("search: %w", err)
	}
	logger.Debug("Search returned", zap.Int("hits", len(hits)))

	if len(hits) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%d. [%.3f] %s %s — %s:%s\n", i+1, h.Similarity, h.SymbolKind, h.SymbolName, h.FilePath, h.Description)
	}
	return nil
}
