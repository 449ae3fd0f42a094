package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks ragstore/internal/llm Embedder,Summarizer

import (
	"context"
	"fmt"
)

// Embedder converts texts into fixed-dimension vectors.
// Implementations must be safe for concurrent use by pool workers.
type Embedder interface {
	// EmbedTexts generates one vector per input text, preserving input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Summarizer generates a completion for a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// EmbeddingError reports a failed embedding request for a single text,
// identified by its position in the input slice.
type EmbeddingError struct {
	Index int
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding text %d: %v", e.Index, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
