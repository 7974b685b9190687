// Command docindex is the CLI front end for the document indexing
// store: ingest files, search the catalog, and walk a source's tree.
//
// Grounded on _examples/original_source/skills/metadatahub-search/scripts/mhub.py
// for the subcommand set (ingest/search/retrieve/read); the command
// wiring uses cobra with one file per subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var storeRoot string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "docindex — index and retrieve local documents by structure, not chunks",
	Long: `docindex detects, converts, and indexes local files into a store that
supports two retrieval tiers: fast source-level semantic search, and
structural navigation of a single document's tree.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeRoot, "store", ".", "path to the docindex store root")
	rootCmd.AddCommand(ingestCmd, searchCmd, retrieveCmd, readCmd, linkCmd)
}
