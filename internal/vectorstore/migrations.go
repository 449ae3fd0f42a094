package vectorstore

import "fmt"

// migration is one forward schema step. Versions are applied strictly in
// increasing order and recorded in rag_schema_version; an applied version is
// never re-run and never rolled back.
type migration struct {
	version    int
	statements []string
}

// migrations returns the ordered migration list for the given embedding
// dimension. The dimension is part of the DDL because pgvector column types
// are sized; changing it means ingesting into a new collection version, not
// migrating in place.
func migrations(dim int) []migration {
	return []migration{
		{
			version: 1,
			statements: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
					id TEXT PRIMARY KEY,
					embedding vector(%d),
					collection_name TEXT NOT NULL,
					chunk_text TEXT NOT NULL,
					metadata JSONB
				)`, dim),
				`CREATE INDEX IF NOT EXISTS idx_document_chunks_collection_name
					ON document_chunks (collection_name)`,
				`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding_ivfflat
					ON document_chunks
					USING ivfflat (embedding vector_cosine_ops)
					WITH (lists = 100)`,
				`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding_hnsw
					ON document_chunks
					USING hnsw (embedding vector_cosine_ops)`,
			},
		},
	}
}

// pendingMigrations returns the migrations with a version above current, in
// ascending order.
func pendingMigrations(all []migration, current int) []migration {
	var pending []migration
	for _, m := range all {
		if m.version > current {
			pending = append(pending, m)
		}
	}
	return pending
}
