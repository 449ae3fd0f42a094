package handlers

import (
	"context"
	"net/http"
	"time"

	"ragstore/internal/contextutil"
	"ragstore/internal/vectorstore"
)

// Pinger checks connectivity to an external capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store    vectorstore.ChunkStore
	embedder Pinger
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store vectorstore.ChunkStore, embedder Pinger) *HealthHandler {
	return &HealthHandler{
		store:    store,
		embedder: embedder,
		timeout:  5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP handles GET /health. Returns 200 when both the store and the
// embedding endpoint respond, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.store.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "store health check failed", "error", err)
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
	} else {
		checks["vector_store"] = "ok"
	}

	if err := h.embedder.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "embedder health check failed", "error", err)
		checks["embedder"] = "error"
		issues = append(issues, "embedder_unavailable")
	} else {
		checks["embedder"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
