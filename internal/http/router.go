package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ragstore/internal/handlers"
	"ragstore/internal/rag"
	"ragstore/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QueryService *rag.Service
	Store        vectorstore.ChunkStore
	Embedder     handlers.Pinger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.QueryService)
	answerHandler := handlers.NewAnswerHandler(deps.QueryService)
	collectionsHandler := handlers.NewCollectionsHandler(deps.Store)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Embedder)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/answer", answerHandler)
		r.Method(http.MethodGet, "/collections", collectionsHandler)
	})
	r.Method(http.MethodGet, "/health", healthHandler)

	return r
}
