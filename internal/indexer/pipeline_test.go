package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	llm_mocks "ragstore/internal/llm/mocks"
	"ragstore/internal/vectorstore"
	vectorstore_mocks "ragstore/internal/vectorstore/mocks"
)

// fakeEmbed returns a fixed-dimension vector per text so tests do not depend
// on a live embedding endpoint.
func fakeEmbed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}

// writeFile creates a file under dir, creating parent folders as needed.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func defaultOptions() Options {
	return Options{ChunkSize: 800, ChunkOverlap: 120, Workers: 4}
}

func TestNewPipeline_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "valid", opts: Options{ChunkSize: 800, ChunkOverlap: 120, Workers: 8}, wantErr: false},
		{name: "zero chunk size", opts: Options{ChunkSize: 0, ChunkOverlap: 0, Workers: 8}, wantErr: true},
		{name: "overlap equals size", opts: Options{ChunkSize: 100, ChunkOverlap: 100, Workers: 8}, wantErr: true},
		{name: "negative overlap", opts: Options{ChunkSize: 100, ChunkOverlap: -1, Workers: 8}, wantErr: true},
		{name: "zero workers", opts: Options{ChunkSize: 800, ChunkOverlap: 120, Workers: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(nil, nil, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPipeline() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline_IngestFolder_DuplicateFilesCollapse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	content := wordSequence(30)
	writeFile(t, dir, "a.txt", content)
	writeFile(t, dir, "b.txt", content)

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbed).Times(2)

	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
	mockStore.EXPECT().InsertChunks(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []vectorstore.DocumentChunk) (vectorstore.InsertStats, error) {
			// Identical content in the same collection yields identical ids;
			// the store collapses them on insert.
			distinct := make(map[string]struct{})
			for _, row := range rows {
				distinct[row.ID] = struct{}{}
				if row.Collection != "docs@v1" {
					t.Errorf("row collection = %s, want docs@v1", row.Collection)
				}
			}
			if len(rows) != 2 {
				t.Errorf("InsertChunks() received %d rows, want 2", len(rows))
			}
			if len(distinct) != 1 {
				t.Errorf("distinct ids = %d, want 1", len(distinct))
			}
			return vectorstore.InsertStats{Written: len(distinct), Skipped: len(rows) - len(distinct)}, nil
		})

	pipeline, err := NewPipeline(mockEmbedder, mockStore, defaultOptions())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	report, err := pipeline.IngestFolder(context.Background(), dir, "docs@v1")
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}
	if !report.OK() {
		t.Errorf("report not OK: %+v", report)
	}
	if report.FilesSucceeded != 2 || report.FilesFailed != 0 {
		t.Errorf("report files = %d/%d, want 2/0", report.FilesSucceeded, report.FilesFailed)
	}
	if report.RowsWritten != 1 || report.RowsSkipped != 1 {
		t.Errorf("report rows = written %d skipped %d, want 1/1", report.RowsWritten, report.RowsSkipped)
	}
}

func TestPipeline_IngestFolder_ReingestSameIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	writeFile(t, dir, "notes/a.txt", wordSequence(40))

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbed).Times(2)

	var firstIDs, secondIDs []string
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
	mockStore.EXPECT().InsertChunks(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []vectorstore.DocumentChunk) (vectorstore.InsertStats, error) {
			for _, row := range rows {
				firstIDs = append(firstIDs, row.ID)
			}
			return vectorstore.InsertStats{Written: len(rows)}, nil
		})
	mockStore.EXPECT().InsertChunks(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []vectorstore.DocumentChunk) (vectorstore.InsertStats, error) {
			for _, row := range rows {
				secondIDs = append(secondIDs, row.ID)
			}
			return vectorstore.InsertStats{Written: 0, Skipped: len(rows)}, nil
		})

	pipeline, err := NewPipeline(mockEmbedder, mockStore, defaultOptions())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	ctx := context.Background()
	if _, err := pipeline.IngestFolder(ctx, dir, "docs@v1"); err != nil {
		t.Fatalf("first IngestFolder() error = %v", err)
	}
	report, err := pipeline.IngestFolder(ctx, dir, "docs@v1")
	if err != nil {
		t.Fatalf("second IngestFolder() error = %v", err)
	}

	if fmt.Sprint(firstIDs) != fmt.Sprint(secondIDs) {
		t.Errorf("re-ingestion produced different ids:\nfirst:  %v\nsecond: %v", firstIDs, secondIDs)
	}
	if report.RowsWritten != 0 {
		t.Errorf("re-ingestion wrote %d rows, want 0", report.RowsWritten)
	}
}

func TestPipeline_IngestFolder_PartialFailureIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	for i := 0; i < 9; i++ {
		writeFile(t, dir, fmt.Sprintf("good/doc%d.txt", i), fmt.Sprintf("document number %d %s", i, wordSequence(20)))
	}
	writeFile(t, dir, "bad/poison.txt", "poison "+wordSequence(20))

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, texts []string) ([][]float32, error) {
			if strings.Contains(texts[0], "poison") {
				return nil, fmt.Errorf("bad status 502")
			}
			return fakeEmbed(ctx, texts)
		}).Times(10)

	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
	mockStore.EXPECT().InsertChunks(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []vectorstore.DocumentChunk) (vectorstore.InsertStats, error) {
			if len(rows) != 9 {
				t.Errorf("InsertChunks() received %d rows, want 9", len(rows))
			}
			return vectorstore.InsertStats{Written: len(rows)}, nil
		})

	pipeline, err := NewPipeline(mockEmbedder, mockStore, defaultOptions())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	report, err := pipeline.IngestFolder(context.Background(), dir, "docs@v1")
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}
	if report.FilesSucceeded != 9 || report.FilesFailed != 1 {
		t.Errorf("report files = %d/%d, want 9 succeeded / 1 failed", report.FilesSucceeded, report.FilesFailed)
	}
	if len(report.Failures) != 1 || !strings.Contains(report.Failures[0].Path, "poison") {
		t.Errorf("report failures = %+v, want the poison file", report.Failures)
	}
	if report.OK() {
		t.Error("report.OK() = true, want false when a file failed")
	}
	if !report.Committed {
		t.Error("report.Committed = false, want true: the other 9 files must not be lost")
	}
}

func TestPipeline_IngestFolder_CommitFailureKeepsReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", wordSequence(30))

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbed)

	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
	mockStore.EXPECT().InsertChunks(gomock.Any(), gomock.Any()).Return(
		vectorstore.InsertStats{}, fmt.Errorf("connection refused"))

	pipeline, err := NewPipeline(mockEmbedder, mockStore, defaultOptions())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	report, err := pipeline.IngestFolder(context.Background(), dir, "docs@v1")
	if err == nil {
		t.Fatal("IngestFolder() expected commit error")
	}
	if report == nil {
		t.Fatal("IngestFolder() report is nil on commit failure")
	}
	if report.Committed {
		t.Error("report.Committed = true, want false")
	}
	if report.RowsProduced == 0 {
		t.Error("report.RowsProduced = 0, want produced rows surfaced")
	}
}

func TestPipeline_IngestFolder_NoFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	writeFile(t, dir, "image.png", "binary")
	writeFile(t, dir, "data.json", "{}")

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)

	pipeline, err := NewPipeline(mockEmbedder, mockStore, defaultOptions())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	report, err := pipeline.IngestFolder(context.Background(), dir, "docs@v1")
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}
	if report.FilesSeen != 0 || !report.Committed {
		t.Errorf("report = %+v, want zero files and committed", report)
	}
}

func TestPipeline_IngestFolder_Metadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	writeFile(t, dir, "widgets/manual.txt", wordSequence(25))

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbed)

	mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
	mockStore.EXPECT().InsertChunks(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []vectorstore.DocumentChunk) (vectorstore.InsertStats, error) {
			for _, row := range rows {
				if row.Metadata["source"] != "manual.txt" {
					t.Errorf("metadata source = %s, want manual.txt", row.Metadata["source"])
				}
				if row.Metadata["product"] != "widgets" {
					t.Errorf("metadata product = %s, want widgets", row.Metadata["product"])
				}
			}
			return vectorstore.InsertStats{Written: len(rows)}, nil
		})

	pipeline, err := NewPipeline(mockEmbedder, mockStore, defaultOptions())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if _, err := pipeline.IngestFolder(context.Background(), dir, "docs@v1"); err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}
}

func TestProcessFile_RowMetadataIndependent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	path := writeFile(t, dir, "widgets/manual.txt", wordSequence(150))

	mockEmbedder := llm_mocks.NewMockEmbedder(ctrl)
	mockEmbedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbed)

	pipeline, err := NewPipeline(mockEmbedder, vectorstore_mocks.NewMockChunkStore(ctrl),
		Options{ChunkSize: 60, ChunkOverlap: 10, Workers: 1})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	rows, err := pipeline.processFile(context.Background(), dir, "docs@v1", path)
	if err != nil {
		t.Fatalf("processFile() error = %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("processFile() = %d rows, want several", len(rows))
	}

	rows[0].Metadata["source"] = "mutated"
	if rows[1].Metadata["source"] != "manual.txt" {
		t.Errorf("row 1 metadata source = %s, want manual.txt; rows share one map", rows[1].Metadata["source"])
	}
}

func TestProductFor(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{name: "nested file", root: "/data", path: "/data/widgets/manual.txt", want: "widgets"},
		{name: "deeply nested file", root: "/data", path: "/data/widgets/v2/manual.txt", want: "widgets"},
		{name: "file at root", root: "/data", path: "/data/readme.txt", want: "readme.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := productFor(tt.root, tt.path); got != tt.want {
				t.Errorf("productFor(%s, %s) = %s, want %s", tt.root, tt.path, got, tt.want)
			}
		})
	}
}
