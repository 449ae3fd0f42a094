package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragstore/internal/indexer"
)

var (
	ingestFolder     string
	ingestCollection string
	ingestTag        string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a folder of documents into a collection",
	Long: `Walks a folder, chunks and embeds every .txt and .md file, and writes
the resulting rows to the vector store in one atomic batch.

The collection name and version tag are combined as name@tag, so re-ingesting
under a new tag never disturbs rows written under the old one. Re-ingesting
the same content under the same tag is a no-op (rows are content addressed).`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFolder, "folder", "f", "", "folder to ingest (required)")
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "collection name (required)")
	ingestCmd.Flags().StringVarP(&ingestTag, "tag", "t", "v1", "collection version tag")
	_ = ingestCmd.MarkFlagRequired("folder")
	_ = ingestCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	pipeline, err := indexer.NewPipeline(app.embedder, app.store, indexer.Options{
		ChunkSize:    app.cfg.ChunkSize,
		ChunkOverlap: app.cfg.ChunkOverlap,
		Workers:      app.cfg.IngestWorkers,
	})
	if err != nil {
		return err
	}

	collection := fmt.Sprintf("%s@%s", ingestCollection, ingestTag)
	report, ingestErr := pipeline.IngestFolder(ctx, ingestFolder, collection)
	if report != nil {
		printReport(cmd, report)
	}
	if ingestErr != nil {
		return ingestErr
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d files failed", report.FilesFailed, report.FilesSeen)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *indexer.IngestReport) {
	cmd.Printf("Run %s into %s\n", report.RunID, report.Collection)
	cmd.Printf("  Files:  %d seen, %d succeeded, %d failed\n",
		report.FilesSeen, report.FilesSucceeded, report.FilesFailed)
	cmd.Printf("  Chunks: %d produced, %d written, %d already present\n",
		report.RowsProduced, report.RowsWritten, report.RowsSkipped)
	if !report.Committed {
		cmd.Println("  Commit: FAILED, no rows were written")
	}
	for _, failure := range report.Failures {
		cmd.Printf("  Failed: %s: %s\n", failure.Path, failure.Err)
	}
}
