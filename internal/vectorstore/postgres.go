package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"ragstore/internal/contextutil"
)

// insertPageSize bounds the number of rows per INSERT statement. All pages of
// one InsertChunks call still share a single transaction.
const insertPageSize = 100

// ErrDimensionMismatch is returned when a vector's length does not match the
// store's configured embedding dimension. This is a configuration error, not
// a per-row condition: nothing is written or searched.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// New opens a Postgres connection pool for the given DSN and verifies
// connectivity.
func New(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// PostgresStore implements ChunkStore over Postgres with the pgvector
// extension. Cosine distance (<=>) is the canonical metric: both ANN indexes
// are built with vector_cosine_ops and every query ranks by the same
// operator.
type PostgresStore struct {
	db  *sql.DB
	dim int
}

// NewPostgresStore creates a store bound to the given embedding dimension.
func NewPostgresStore(db *sql.DB, dim int) (*PostgresStore, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be greater than 0, got %d", dim)
	}
	return &PostgresStore{db: db, dim: dim}, nil
}

// InitSchema ensures the extension, version table and chunk schema exist,
// applying pending migrations strictly in increasing version order. Each
// migration and its version row commit in one transaction.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to ensure vector extension: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS rag_schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to ensure schema version table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM rag_schema_version",
	).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range pendingMigrations(migrations(s.dim), current) {
		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}
		logger.InfoContext(ctx, "applied schema migration", "version", m.version)
	}

	return nil
}

// applyMigration runs one migration's statements plus its version record in a
// single transaction.
func (s *PostgresStore) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO rag_schema_version (version) VALUES ($1)", m.version,
	); err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}

	return tx.Commit()
}

// InsertChunks inserts rows in pages of insertPageSize inside one
// transaction. Duplicate ids are silently skipped via ON CONFLICT DO NOTHING;
// the returned stats separate written from skipped rows.
func (s *PostgresStore) InsertChunks(ctx context.Context, rows []DocumentChunk) (InsertStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(rows) == 0 {
		return InsertStats{}, nil
	}

	// Validate every dimension up front so a bad batch writes nothing.
	for i, row := range rows {
		if len(row.Embedding) != s.dim {
			return InsertStats{}, fmt.Errorf("row %d (%s): %w: got %d, want %d",
				i, row.ID, ErrDimensionMismatch, len(row.Embedding), s.dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return InsertStats{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var written int64
	for start := 0; start < len(rows); start += insertPageSize {
		end := start + insertPageSize
		if end > len(rows) {
			end = len(rows)
		}

		query, args, err := buildInsertPage(rows[start:end])
		if err != nil {
			return InsertStats{}, err
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return InsertStats{}, fmt.Errorf("failed to insert chunk page: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return InsertStats{}, fmt.Errorf("failed to read rows affected: %w", err)
		}
		written += n
	}

	if err := tx.Commit(); err != nil {
		return InsertStats{}, fmt.Errorf("failed to commit insert: %w", err)
	}

	stats := InsertStats{
		Written: int(written),
		Skipped: len(rows) - int(written),
	}
	logger.InfoContext(ctx, "inserted chunks", "written", stats.Written, "skipped", stats.Skipped)
	return stats, nil
}

// buildInsertPage builds a multi-row insert with the vector values bound as
// parameters, never interpolated into the SQL text.
func buildInsertPage(rows []DocumentChunk) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO document_chunks (id, embedding, collection_name, chunk_text, metadata) VALUES ")

	args := make([]any, 0, len(rows)*5)
	for i, row := range rows {
		meta, err := json.Marshal(row.Metadata)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal metadata for %s: %w", row.ID, err)
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, row.ID, pgvector.NewVector(row.Embedding), row.Collection, row.Text, meta)
	}

	sb.WriteString(" ON CONFLICT (id) DO NOTHING")
	return sb.String(), args, nil
}

// Search returns the limit closest chunks in the collection, ranked by
// cosine distance ascending.
func (s *PostgresStore) Search(ctx context.Context, queryVec []float32, collection string, limit int) ([]SearchHit, error) {
	if len(queryVec) != s.dim {
		return nil, fmt.Errorf("query vector: %w: got %d, want %d",
			ErrDimensionMismatch, len(queryVec), s.dim)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_text, metadata, embedding <=> $1 AS distance
		 FROM document_chunks
		 WHERE collection_name = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(queryVec), collection, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		var meta []byte
		if err := rows.Scan(&hit.Text, &meta, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &hit.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return hits, nil
}

// ListCollections returns collection names and chunk counts ordered by name.
func (s *PostgresStore) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT collection_name, COUNT(*)
		 FROM document_chunks
		 GROUP BY collection_name
		 ORDER BY collection_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var collections []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Chunks); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return collections, nil
}

// Ping verifies store connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
