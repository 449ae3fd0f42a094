package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// summaryTemperature keeps summaries factual rather than creative.
	summaryTemperature = 0.3
	// summaryMaxTokens bounds the length of a generated summary.
	summaryMaxTokens = 500
)

// SummaryClient is a client for the Ollama generate API, used to summarize
// retrieved chunks.
type SummaryClient struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewSummaryClient creates a new summary client.
func NewSummaryClient(baseURL, model string, timeout time.Duration) *SummaryClient {
	return &SummaryClient{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// GenerateRequest represents the request payload for the generate API.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateOptions holds sampling parameters for the generate API.
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// GenerateResponse represents the response from the generate API.
type GenerateResponse struct {
	Response string `json:"response"`
}

// Summarize sends the prompt to the summary model and returns the completion.
func (c *SummaryClient) Summarize(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/api/generate", c.BaseURL)

	payload := GenerateRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
		Options: GenerateOptions{
			Temperature: summaryTemperature,
			NumPredict:  summaryMaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return strings.TrimSpace(genResp.Response), nil
}
