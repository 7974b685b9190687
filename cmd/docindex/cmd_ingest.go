package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoindq/docindex/internal/ingest"
	"github.com/khoindq/docindex/internal/store"
)

var (
	ingestSkipVectors bool
	ingestIncremental bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Index a file or a directory of files",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestSkipVectors, "no-vectors", false, "skip rebuilding the vector index")
	ingestCmd.Flags().BoolVar(&ingestIncremental, "incremental", false, "only process new or changed files (directory input only)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	input := args[0]

	l, err := store.Bootstrap(storeRoot)
	if err != nil {
		return err
	}
	cfg, err := store.LoadConfig(l)
	if err != nil {
		return err
	}

	pipeline := ingest.New(l, buildLLM(cfg.LLM), nil)
	em := buildEmbedder(cfg.LLM)

	ctx := context.Background()
	var report ingest.Report
	if ingestIncremental {
		report, err = pipeline.IngestIncremental(ctx, input, em, ingestSkipVectors)
	} else {
		report, err = pipeline.IngestPath(ctx, input, em, ingestSkipVectors)
	}
	if err != nil {
		return err
	}

	fmt.Printf("processed %d, skipped %d, failed %d, vectors %d\n",
		report.Processed, report.Skipped, report.Failed, report.Vectors)
	return nil
}
