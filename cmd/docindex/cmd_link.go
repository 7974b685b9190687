package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoindq/docindex/internal/ingest"
	"github.com/khoindq/docindex/internal/store"
)

var (
	linkMinSimilarity float64
	linkMaxLinks      int
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Compute cross-source related-document links across the catalog",
	Args:  cobra.NoArgs,
	RunE:  runLink,
}

func init() {
	linkCmd.Flags().Float64Var(&linkMinSimilarity, "min-similarity", 0.1, "minimum combined similarity score to record a link")
	linkCmd.Flags().IntVar(&linkMaxLinks, "max-links", 5, "maximum related sources recorded per source")
}

func runLink(cmd *cobra.Command, args []string) error {
	l := store.NewLayout(storeRoot)
	cfg, err := store.LoadConfig(l)
	if err != nil {
		return err
	}

	pipeline := ingest.New(l, nil, nil)
	em := buildEmbedder(cfg.LLM)
	if err := pipeline.LinkSources(context.Background(), em, linkMinSimilarity, linkMaxLinks); err != nil {
		return err
	}
	fmt.Println("Updated catalog.json with cross-source links")
	return nil
}
