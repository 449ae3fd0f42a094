package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ragstore/internal/rag"
	"ragstore/internal/vectorstore"
)

var (
	searchCollection string
	searchTopK       int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a collection for semantically similar chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "documents@v1", "collection to search")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", rag.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	hits, err := app.service.Query(ctx, args[0], searchCollection, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printHits(cmd, hits)
	return nil
}

func printHits(cmd *cobra.Command, hits []vectorstore.SearchHit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range hits {
		cmd.Printf("  [%d] %.1f%% similar\n", i+1, hit.Similarity()*100)
		if source, ok := hit.Metadata["source"]; ok {
			cmd.Printf("      Source: %s\n", source)
		}
		cmd.Printf("      %s\n", snippet(hit.Text, 200))
		cmd.Println()
	}
}

// snippet truncates text to at most n runes for single-line display.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
