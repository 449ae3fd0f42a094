package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ragstore/internal/config"
	"ragstore/internal/llm"
	"ragstore/internal/rag"
	"ragstore/internal/vectorstore"
)

var rootCmd = &cobra.Command{
	Use:   "ragstore",
	Short: "Document ingestion and vector retrieval over Postgres",
	Long: `ragstore ingests plain-text and markdown documents into a pgvector-backed
Postgres store and answers semantic queries against the indexed collections.

Embeddings and summaries are produced by a local Ollama instance.`,
	SilenceUsage: true,
}

// app bundles the collaborators a command needs for one invocation.
type app struct {
	cfg        *config.Config
	db         *sql.DB
	store      *vectorstore.PostgresStore
	embedder   *llm.EmbeddingsClient
	summarizer *llm.SummaryClient
	service    *rag.Service
}

// newApp loads configuration, configures logging, and connects the
// database and model clients. Callers must Close the returned app.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging(cfg)

	db, err := vectorstore.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := vectorstore.NewPostgresStore(db, cfg.EmbeddingDim)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	embedder := llm.NewEmbeddingsClient(cfg.OllamaBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDim, cfg.EmbedTimeout)
	summarizer := llm.NewSummaryClient(cfg.OllamaBaseURL, cfg.SummaryModel, cfg.SummaryTimeout)
	service := rag.NewService(embedder, store, summarizer)

	slog.Debug("Application initialized",
		"embedding_model", cfg.EmbeddingModel,
		"embedding_dim", cfg.EmbeddingDim,
		"summary_model", cfg.SummaryModel)

	return &app{
		cfg:        cfg,
		db:         db,
		store:      store,
		embedder:   embedder,
		summarizer: summarizer,
		service:    service,
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

// setupLogging configures the default slog logger from LOG_LEVEL and
// LOG_FORMAT. Logs go to stderr so stdout stays clean for command output
// and for the MCP stdio transport.
func setupLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", level.String(), "format", cfg.LogFormat)
}
