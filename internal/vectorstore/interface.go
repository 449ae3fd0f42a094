package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks ragstore/internal/vectorstore ChunkStore

import "context"

// ChunkStore defines the interface for vector storage operations.
type ChunkStore interface {
	// InitSchema ensures the pgvector extension, schema version table, chunk
	// table and indexes exist, applying any pending migrations. Idempotent.
	InitSchema(ctx context.Context) error

	// InsertChunks performs an idempotent batched insert. Rows whose id
	// already exists are silently skipped (first-write-wins); the whole batch
	// is committed atomically.
	InsertChunks(ctx context.Context, rows []DocumentChunk) (InsertStats, error)

	// Search returns the limit chunks in the collection closest to the query
	// vector, ordered by ascending cosine distance.
	Search(ctx context.Context, queryVec []float32, collection string, limit int) ([]SearchHit, error)

	// ListCollections returns distinct collection names with chunk counts,
	// ordered by name.
	ListCollections(ctx context.Context) ([]CollectionInfo, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error
}
