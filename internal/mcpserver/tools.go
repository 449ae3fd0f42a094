package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ragstore/internal/rag"
)

// DefaultCollection is searched when a tool call does not name one.
const DefaultCollection = "documents@v1"

// SearchDocumentsInput is the input schema for the search_documents tool.
type SearchDocumentsInput struct {
	Query      string `json:"query" jsonschema:"the search query or question to find relevant documents for"`
	Collection string `json:"collection,omitempty" jsonschema:"the document collection to search in (default: documents@v1)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5, max 20)"`
}

// ListCollectionsInput is the (empty) input schema for the list_collections
// tool.
type ListCollectionsInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search for relevant documents in the knowledge base using semantic search",
	}, s.handleSearchDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List all available document collections in the knowledge base",
	}, s.handleListCollections)
}

// handleSearchDocuments handles the search_documents tool invocation.
func (s *Server) handleSearchDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchDocumentsInput,
) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Query) == "" {
		return textResult("Error: No query provided"), nil, nil
	}

	collection := input.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	limit := input.Limit
	if limit <= 0 {
		limit = rag.DefaultTopK
	}
	if limit > rag.MaxTopK {
		limit = rag.MaxTopK
	}

	hits, err := s.service.Query(ctx, input.Query, collection, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("searching documents: %w", err)
	}

	if len(hits) == 0 {
		return textResult(fmt.Sprintf("No documents found matching: %s", input.Query)), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d relevant documents for '%s':\n\n", len(hits), input.Query)
	for i, hit := range hits {
		source := hit.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&sb, "**Document %d** (Source: %s, Similarity: %.2f%%)\n", i+1, source, hit.Similarity()*100)
		sb.WriteString(hit.Text)
		sb.WriteString("\n\n---\n\n")
	}

	return textResult(sb.String()), nil, nil
}

// handleListCollections handles the list_collections tool invocation.
func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCollectionsInput,
) (*mcp.CallToolResult, any, error) {
	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing collections: %w", err)
	}

	if len(collections) == 0 {
		return textResult("No collections found in the knowledge base"), nil, nil
	}

	var sb strings.Builder
	sb.WriteString("Available document collections:\n\n")
	for _, c := range collections {
		fmt.Fprintf(&sb, "- **%s**: %d chunks\n", c.Name, c.Chunks)
	}

	return textResult(sb.String()), nil, nil
}

// textResult wraps a formatted string as a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
