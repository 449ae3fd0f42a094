package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragstore/internal/rag"
)

var (
	verifyCollection string
	verifyTopK       int
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Interactively query a collection to check ingestion quality",
	Long: `Reads queries from stdin in a loop and prints the ranked chunks with an
executive summary for each one. Type "exit" or "quit" to stop.

A failing summarizer is reported as a warning and the retrieved chunks are
still shown, so retrieval can be verified while the summary model is down.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyCollection, "collection", "c", "documents@v1", "collection to query")
	verifyCmd.Flags().IntVarP(&verifyTopK, "top-k", "k", rag.DefaultTopK, "maximum number of results per query")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	cmd.Printf("Querying %s. Type a question, or \"exit\" to stop.\n", verifyCollection)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		answer, err := app.service.Answer(ctx, query, verifyCollection, verifyTopK)
		if err != nil && !errors.Is(err, rag.ErrSummarizer) {
			cmd.Printf("Query failed: %v\n\n", err)
			continue
		}

		printHits(cmd, answer.Hits)
		if errors.Is(err, rag.ErrSummarizer) {
			cmd.Printf("Warning: summary unavailable: %v\n\n", err)
			continue
		}
		if answer.Summary != "" {
			cmd.Println("--- EXECUTIVE SUMMARY ---")
			cmd.Println(answer.Summary)
			cmd.Println()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
