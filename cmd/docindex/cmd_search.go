package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoindq/docindex/internal/retrieval"
	"github.com/khoindq/docindex/internal/store"
)

var searchTopK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Tier 1 semantic search over indexed sources",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 5, "number of results to return")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	l := store.NewLayout(storeRoot)
	cfg, err := store.LoadConfig(l)
	if err != nil {
		return err
	}
	em := buildEmbedder(cfg.LLM)
	if em == nil {
		return fmt.Errorf("search requires an embedding model configured in config.json")
	}

	svc := retrieval.New(l)
	results, err := svc.Search(context.Background(), em, query, searchTopK)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results found. Is the index built?")
		return nil
	}

	fmt.Printf("Search: %q — %d results\n\n", query, len(results))
	for _, r := range results {
		fmt.Printf("  #%d  [%.3f]  %s\n", r.Rank, r.Score, r.Filename)
		fmt.Printf("       ID: %s\n", r.ID)
		if r.Summary != "" {
			fmt.Printf("       %s\n", r.Summary)
		}
		fmt.Println()
	}
	return nil
}
