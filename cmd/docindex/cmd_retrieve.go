package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoindq/docindex/internal/retrieval"
	"github.com/khoindq/docindex/internal/store"
)

var (
	retrieveNode string
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <source_id>",
	Short: "Tier 2 structural retrieval — tree summary or a single node",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVar(&retrieveNode, "node", "", "return a specific node by ID")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	sourceID := args[0]
	l := store.NewLayout(storeRoot)
	svc := retrieval.New(l)

	if retrieveNode != "" {
		n, err := svc.GetNode(sourceID, retrieveNode)
		if err != nil {
			return err
		}
		data, _ := json.MarshalIndent(n, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	t, err := svc.GetTree(sourceID)
	if err != nil {
		return err
	}
	if retrieveJSON {
		data, _ := json.MarshalIndent(t, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(retrieval.TreeSummary(t))
	return nil
}
