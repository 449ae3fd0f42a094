// Package mcpserver exposes the knowledge store to MCP clients as a pair of
// search tools, over stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ragstore/internal/rag"
	"ragstore/internal/vectorstore"
)

// Version is the MCP server version.
const Version = "1.0.0"

// Server is the MCP server for the knowledge store.
type Server struct {
	service *rag.Service
	store   vectorstore.ChunkStore
	server  *mcp.Server
}

// NewServer creates a new MCP server wired to the query service and store.
func NewServer(service *rag.Service, store vectorstore.ChunkStore) *Server {
	impl := &mcp.Implementation{
		Name:    "ragstore",
		Version: Version,
	}

	s := &Server{
		service: service,
		store:   store,
		server:  mcp.NewServer(impl, nil),
	}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
