package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List stored collections and their chunk counts",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	collections, err := app.store.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if len(collections) == 0 {
		cmd.Println("No collections found.")
		return nil
	}

	for _, c := range collections {
		cmd.Printf("  %s (%d chunks)\n", c.Name, c.Chunks)
	}
	return nil
}
