package handlers

import (
	"net/http"

	"ragstore/internal/contextutil"
	"ragstore/internal/vectorstore"
)

// CollectionsHandler handles HTTP requests for listing collections.
type CollectionsHandler struct {
	store vectorstore.ChunkStore
}

// NewCollectionsHandler creates a new CollectionsHandler.
func NewCollectionsHandler(store vectorstore.ChunkStore) *CollectionsHandler {
	return &CollectionsHandler{store: store}
}

// CollectionResponse represents one collection in the HTTP response.
type CollectionResponse struct {
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
}

// ServeHTTP handles GET /api/collections.
func (h *CollectionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	collections, err := h.store.ListCollections(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list collections", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	resp := make([]CollectionResponse, len(collections))
	for i, c := range collections {
		resp[i] = CollectionResponse{Collection: c.Name, Chunks: c.Chunks}
	}
	writeJSON(w, http.StatusOK, resp)
}
