package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoindq/docindex/internal/retrieval"
	"github.com/khoindq/docindex/internal/store"
)

var (
	readFile string
	readAll  bool
)

var readCmd = &cobra.Command{
	Use:   "read <source_id> [node_id]",
	Short: "Read converted content for a source, a node, or a specific file",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRead,
}

func init() {
	readCmd.Flags().StringVar(&readFile, "file", "", "read a specific file by path relative to the store root")
	readCmd.Flags().BoolVar(&readAll, "all", false, "read every converted file for this source")
}

func runRead(cmd *cobra.Command, args []string) error {
	sourceID := args[0]
	l := store.NewLayout(storeRoot)
	svc := retrieval.New(l)

	switch {
	case readFile != "":
		content, err := svc.ReadFile(readFile)
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil

	case readAll:
		files, err := svc.ReadAll(sourceID)
		if err != nil {
			return err
		}
		fmt.Printf("Source: %s — %d files\n\n", sourceID, len(files))
		for _, f := range files {
			fmt.Printf("--- %s ---\n%s\n\n", f.Name, f.Content)
		}
		return nil

	case len(args) == 2:
		result, err := svc.ReadNode(sourceID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("[%s] %s\n", result.NodeID, result.Title)
		if result.Summary != "" {
			fmt.Printf("Summary: %s\n", result.Summary)
		}
		if result.ContentRef != "" {
			fmt.Printf("File: %s\n", result.ContentRef)
		}
		fmt.Printf("\n%s\n", result.Content)
		return nil

	default:
		return cmd.Help()
	}
}
