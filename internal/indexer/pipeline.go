package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ragstore/internal/contextutil"
	"ragstore/internal/llm"
	"ragstore/internal/vectorstore"
)

// Options holds the chunking and concurrency knobs for a pipeline.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Workers      int
}

// Pipeline orchestrates the ingestion of a document folder: enumerate files,
// chunk and embed them concurrently, then commit all produced rows to the
// vector store in one idempotent batch.
type Pipeline struct {
	embedder  llm.Embedder
	store     vectorstore.ChunkStore
	opts      Options
	extractor *MarkdownExtractor
	logger    *slog.Logger
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(embedder llm.Embedder, store vectorstore.ChunkStore, opts Options) (*Pipeline, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0, got %d", opts.ChunkSize)
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be in [0, %d)", opts.ChunkOverlap, opts.ChunkSize)
	}
	if opts.Workers <= 0 {
		return nil, fmt.Errorf("worker count must be greater than 0, got %d", opts.Workers)
	}

	return &Pipeline{
		embedder:  embedder,
		store:     store,
		opts:      opts,
		extractor: NewMarkdownExtractor(),
		logger:    slog.Default(),
	}, nil
}

// fileResult is one worker's outcome for a single file.
type fileResult struct {
	path string
	rows []vectorstore.DocumentChunk
	err  error
}

// IngestFolder walks root, embeds every .txt and .md file under it with a
// bounded worker pool, and commits all produced rows to the store in a single
// batch. A failure in one file is recorded in the report and does not cancel
// sibling workers. The returned report is non-nil even when the final commit
// fails, so produced-but-uncommitted work stays visible.
func (p *Pipeline) IngestFolder(ctx context.Context, root, collection string) (*IngestReport, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := collectFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate files: %w", err)
	}

	report := &IngestReport{
		RunID:      uuid.New().String(),
		Collection: collection,
		FilesSeen:  len(files),
	}

	if len(files) == 0 {
		report.Committed = true
		logger.WarnContext(ctx, "no ingestible files found", "root", root)
		return report, nil
	}

	workers := p.opts.Workers
	if n := runtime.GOMAXPROCS(0); n < workers {
		workers = n
	}
	logger.InfoContext(ctx, "starting ingestion",
		"run_id", report.RunID, "collection", collection, "files", len(files), "workers", workers)

	jobs := make(chan string)
	results := make(chan fileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				// A cancelled context skips remaining work without
				// abandoning the result accounting.
				if err := ctx.Err(); err != nil {
					results <- fileResult{path: path, err: err}
					continue
				}
				rows, err := p.processFile(ctx, root, collection, path)
				results <- fileResult{path: path, rows: rows, err: err}
			}
		}()
	}

	go func() {
		for _, path := range files {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var rows []vectorstore.DocumentChunk
	for res := range results {
		if res.err != nil {
			report.FilesFailed++
			report.Failures = append(report.Failures, FileFailure{Path: res.path, Err: res.err.Error()})
			logger.ErrorContext(ctx, "failed to process file", "path", res.path, "error", res.err)
			continue
		}
		report.FilesSucceeded++
		rows = append(rows, res.rows...)
	}
	report.RowsProduced = len(rows)

	if len(rows) == 0 {
		report.Committed = true
		return report, nil
	}

	stats, err := p.store.InsertChunks(ctx, rows)
	if err != nil {
		// The embeddings exist but were not committed; the report carries the
		// produced count so the caller can see what was lost.
		logger.ErrorContext(ctx, "failed to commit ingestion batch",
			"run_id", report.RunID, "rows_produced", report.RowsProduced, "error", err)
		return report, fmt.Errorf("failed to commit %d rows: %w", len(rows), err)
	}

	report.RowsWritten = stats.Written
	report.RowsSkipped = stats.Skipped
	report.Committed = true

	logger.InfoContext(ctx, "ingestion completed",
		"run_id", report.RunID,
		"files_succeeded", report.FilesSucceeded,
		"files_failed", report.FilesFailed,
		"rows_written", report.RowsWritten,
		"rows_skipped", report.RowsSkipped)
	return report, nil
}

// processFile reads, chunks and embeds one file, returning its rows in chunk
// order.
func (p *Pipeline) processFile(ctx context.Context, root, collection, path string) ([]vectorstore.DocumentChunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := string(content)
	if strings.EqualFold(filepath.Ext(path), ".md") {
		text = p.extractor.ExtractText(content)
	}

	chunks, err := ChunkText(text, p.opts.ChunkSize, p.opts.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk text: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(vectors))
	}

	source := filepath.Base(path)
	product := productFor(root, path)

	rows := make([]vectorstore.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		rows[i] = vectorstore.DocumentChunk{
			ID:         ChunkID(collection, chunk),
			Embedding:  vectors[i],
			Collection: collection,
			Text:       chunk,
			// Each row gets its own map so a caller mutating one row's
			// metadata cannot alias its siblings.
			Metadata: map[string]string{
				"source":  source,
				"product": product,
			},
		}
	}
	return rows, nil
}

// collectFiles walks root and returns all .txt and .md files, case
// insensitive on the extension.
func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// productFor derives the metadata grouping label: the top-level folder of the
// file relative to the ingestion root, or the file name itself for files
// directly under root.
func productFor(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return parts[0]
}
