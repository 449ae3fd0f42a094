package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmbeddingsClient is a client for the Ollama embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	Model        string
	ExpectedSize int // Expected vector size for validation
	client       *http.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the vector dimension of the model output (from EMBEDDING_DIM
// config). Every vector returned by EmbedTexts is validated against this size.
func NewEmbeddingsClient(baseURL, model string, expectedSize int, timeout time.Duration) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:      baseURL,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       &http.Client{Timeout: timeout},
	}
}

// EmbeddingRequest represents the request payload for the embeddings API.
type EmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// EmbeddingResponse represents the response from the embeddings API.
type EmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedTexts generates embeddings for the given texts, one request per text.
// Returns a slice of float32 vectors in input order. Any request failure is
// returned as an *EmbeddingError carrying the failing text's index; callers
// decide whether to abort or retry the batch.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.embedOne(ctx, text)
		if err != nil {
			return nil, &EmbeddingError{Index: i, Err: err}
		}
		if len(vec) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(vec), c.ExpectedSize)
		}
		result[i] = vec
	}

	return result, nil
}

// embedOne issues a single embedding request.
func (c *EmbeddingsClient) embedOne(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/api/embeddings", c.BaseURL)

	body, err := json.Marshal(EmbeddingRequest{Model: c.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embResp EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Convert []float64 to []float32
	vec := make([]float32, len(embResp.Embedding))
	for j, v := range embResp.Embedding {
		vec[j] = float32(v)
	}
	return vec, nil
}

// Ping checks connectivity to the Ollama endpoint via the tags API.
func (c *EmbeddingsClient) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/tags", c.BaseURL)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status %d", resp.StatusCode)
	}
	return nil
}
