package vectorstore

// DocumentChunk is the unit of storage: one embedded chunk of a source
// document. The ID is content-addressed, so re-inserting identical text into
// the same collection is a no-op.
type DocumentChunk struct {
	ID         string            // sha256 of "collection:text"
	Embedding  []float32         // fixed-dimension vector
	Collection string            // "<name>@<version>"
	Text       string            // raw chunk text, kept for display and summarization
	Metadata   map[string]string // provenance: source file name, product folder
}

// SearchHit is a single ranked result from a similarity search.
// Distance is cosine distance; smaller means more similar.
type SearchHit struct {
	Text     string
	Metadata map[string]string
	Distance float64
}

// Similarity converts the hit's cosine distance into a human-facing
// similarity score in [0, 1].
func (h SearchHit) Similarity() float64 {
	return 1 - h.Distance
}

// CollectionInfo reports a collection name and its chunk count.
type CollectionInfo struct {
	Name   string
	Chunks int
}

// InsertStats reports the outcome of a batched insert.
type InsertStats struct {
	Written int // rows newly inserted
	Skipped int // rows dropped as duplicates of an existing id
}
