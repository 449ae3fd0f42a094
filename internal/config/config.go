package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL    string
	OllamaBaseURL  string
	EmbeddingModel string
	EmbeddingDim   int
	SummaryModel   string
	ChunkSize      int
	ChunkOverlap   int
	IngestWorkers  int
	EmbedTimeout   time.Duration
	SummaryTimeout time.Duration
	HTTPPort       string
	LogLevel       string
	LogFormat      string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		SummaryModel:   getEnv("SUMMARY_MODEL", "llama3.1-rag"),
		HTTPPort:       getEnv("HTTP_PORT", "9000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Note: EMBEDDING_DIM must match the output vector size of the embeddings model.
	// For nomic-embed-text this is 768. Chunks already stored under a collection were
	// written at that dimension; changing it requires re-ingesting into a new version tag.
	dim, err := getIntEnv("EMBEDDING_DIM", 768)
	if err != nil {
		return nil, err
	}
	if dim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be greater than 0")
	}
	cfg.EmbeddingDim = dim

	chunkSize, err := getIntEnv("CHUNK_SIZE", 800)
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	cfg.ChunkSize = chunkSize

	chunkOverlap, err := getIntEnv("CHUNK_OVERLAP", 120)
	if err != nil {
		return nil, err
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("CHUNK_OVERLAP must not be negative")
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", chunkOverlap, chunkSize)
	}
	cfg.ChunkOverlap = chunkOverlap

	workers, err := getIntEnv("INGEST_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		return nil, fmt.Errorf("INGEST_WORKERS must be greater than 0")
	}
	cfg.IngestWorkers = workers

	embedTimeout, err := getIntEnv("EMBED_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	if embedTimeout <= 0 {
		return nil, fmt.Errorf("EMBED_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.EmbedTimeout = time.Duration(embedTimeout) * time.Second

	summaryTimeout, err := getIntEnv("SUMMARY_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	if summaryTimeout <= 0 {
		return nil, fmt.Errorf("SUMMARY_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.SummaryTimeout = time.Duration(summaryTimeout) * time.Second

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value.
func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
