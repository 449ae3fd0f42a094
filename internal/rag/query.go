package rag

import (
	"context"
	"fmt"
	"strings"

	"ragstore/internal/contextutil"
	"ragstore/internal/llm"
	"ragstore/internal/vectorstore"
)

// Service answers queries against a collection: it embeds the query string,
// runs a nearest-neighbor search, and optionally summarizes the hits. It
// holds no state of its own beyond its collaborators.
type Service struct {
	embedder   llm.Embedder
	store      vectorstore.ChunkStore
	summarizer llm.Summarizer
}

// NewService creates a new query service. summarizer may be nil when the
// deployment has no summary model; Answer then returns hits without a
// summary.
func NewService(embedder llm.Embedder, store vectorstore.ChunkStore, summarizer llm.Summarizer) *Service {
	return &Service{
		embedder:   embedder,
		store:      store,
		summarizer: summarizer,
	}
}

// Query embeds text and returns the topK closest chunks in the collection,
// ascending by distance. An empty result is a valid outcome, distinct from an
// embedding or store failure.
func (s *Service) Query(ctx context.Context, text, collection string, topK int) ([]vectorstore.SearchHit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text is empty")
	}
	topK = clampTopK(topK)

	vectors, err := s.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, vectors[0], collection, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection: %w: %w", ErrStore, err)
	}

	logger.InfoContext(ctx, "query completed", "collection", collection, "top_k", topK, "hits", len(hits))
	return hits, nil
}

// Answer runs Query, then asks the summary model for an executive summary of
// the retrieved chunks. A summarization failure is reported via an error
// wrapping ErrSummarizer, but the hits are still returned; stored data is
// never at stake.
func (s *Service) Answer(ctx context.Context, question, collection string, topK int) (*Answer, error) {
	hits, err := s.Query(ctx, question, collection, topK)
	if err != nil {
		return nil, err
	}

	answer := &Answer{Hits: hits}
	if len(hits) == 0 || s.summarizer == nil {
		return answer, nil
	}

	summary, err := s.summarizer.Summarize(ctx, summaryPrompt(hits))
	if err != nil {
		return answer, fmt.Errorf("%w: %v", ErrSummarizer, err)
	}
	answer.Summary = summary
	return answer, nil
}

// summaryPrompt builds the summarization prompt from the retrieved chunks.
func summaryPrompt(hits []vectorstore.SearchHit) string {
	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Text
	}
	return fmt.Sprintf(
		"Provide a concise, readable executive summary of the following documents "+
			"(retain key details, ignore links and headers):\n\n%s",
		strings.Join(texts, "\n\n"),
	)
}

// clampTopK applies the default and upper bound for result counts.
func clampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}
