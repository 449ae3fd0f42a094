package rag

import (
	"errors"

	"ragstore/internal/vectorstore"
)

// ErrSummarizer marks a summarization failure. Retrieval already succeeded
// when this is returned, so callers still receive the ranked hits.
var ErrSummarizer = errors.New("summarizer error")

// ErrStore marks a vector store failure during retrieval. The store's own
// error stays in the chain for callers that need the cause.
var ErrStore = errors.New("store error")

// Answer is the result of retrieval plus summarization. Summary is empty when
// summarization failed or was skipped.
type Answer struct {
	Hits    []vectorstore.SearchHit
	Summary string
}

const (
	// DefaultTopK is the result count used when a caller passes topK <= 0.
	DefaultTopK = 5
	// MaxTopK bounds caller-supplied result counts.
	MaxTopK = 20
)
