package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ragstore/internal/contextutil"
	"ragstore/internal/llm"
	"ragstore/internal/rag"
	"ragstore/internal/vectorstore"
)

// DefaultCollection is used when a request does not name a collection.
const DefaultCollection = "documents@v1"

// SearchHandler handles HTTP requests for similarity search.
type SearchHandler struct {
	service *rag.Service
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(service *rag.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchRequest represents the HTTP request payload for search.
type SearchRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

// HitResponse represents a single ranked chunk in the HTTP response.
type HitResponse struct {
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Distance   float64           `json:"distance"`
	Similarity float64           `json:"similarity"`
}

// SearchResponse represents the HTTP response payload for search.
type SearchResponse struct {
	Collection string        `json:"collection"`
	Hits       []HitResponse `json:"hits"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles POST /api/search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.Collection == "" {
		req.Collection = DefaultCollection
	}

	hits, err := h.service.Query(ctx, req.Query, req.Collection, req.TopK)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "collection", req.Collection, "error", err)
		writeError(w, searchStatus(err), "Search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Collection: req.Collection,
		Hits:       toHitResponses(hits),
	})
}

// AnswerHandler handles HTTP requests for search plus summarization.
type AnswerHandler struct {
	service *rag.Service
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(service *rag.Service) *AnswerHandler {
	return &AnswerHandler{service: service}
}

// AnswerRequest represents the HTTP request payload for answers.
type AnswerRequest struct {
	Question   string `json:"question"`
	Collection string `json:"collection,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

// AnswerResponse represents the HTTP response payload for answers. When the
// summary model fails, SummaryError is set and Hits still carries the ranked
// chunks.
type AnswerResponse struct {
	Collection   string        `json:"collection"`
	Hits         []HitResponse `json:"hits"`
	Summary      string        `json:"summary,omitempty"`
	SummaryError string        `json:"summary_error,omitempty"`
}

// ServeHTTP handles POST /api/answer.
func (h *AnswerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	if req.Collection == "" {
		req.Collection = DefaultCollection
	}

	answer, err := h.service.Answer(ctx, req.Question, req.Collection, req.TopK)
	if err != nil && !errors.Is(err, rag.ErrSummarizer) {
		logger.ErrorContext(ctx, "answer failed", "collection", req.Collection, "error", err)
		writeError(w, searchStatus(err), "Query failed")
		return
	}

	resp := AnswerResponse{
		Collection: req.Collection,
		Hits:       toHitResponses(answer.Hits),
		Summary:    answer.Summary,
	}
	if err != nil {
		logger.WarnContext(ctx, "summarization failed", "error", err)
		resp.SummaryError = "Summary generation failed"
	}

	writeJSON(w, http.StatusOK, resp)
}

// toHitResponses converts store hits into the HTTP representation.
func toHitResponses(hits []vectorstore.SearchHit) []HitResponse {
	out := make([]HitResponse, len(hits))
	for i, hit := range hits {
		out[i] = HitResponse{
			Text:       hit.Text,
			Metadata:   hit.Metadata,
			Distance:   hit.Distance,
			Similarity: hit.Similarity(),
		}
	}
	return out
}

// searchStatus maps a query failure to an HTTP status: embedding problems are
// an upstream (502) condition, store problems mean the search capability is
// unavailable (503).
func searchStatus(err error) int {
	var embedErr *llm.EmbeddingError
	if errors.As(err, &embedErr) {
		return http.StatusBadGateway
	}
	if errors.Is(err, rag.ErrStore) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
