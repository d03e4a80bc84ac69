package mapper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// CompletionClient talks to a completion-style inference backend (an
// Ollama-compatible generate endpoint). No authentication is used.
type CompletionClient struct {
	endpoint string
	model    string
	client   *http.Client
}

// CompletionOption configures a CompletionClient.
type CompletionOption func(*CompletionClient)

// WithCompletionHTTPClient overrides the HTTP client used for requests.
func WithCompletionHTTPClient(client *http.Client) CompletionOption {
	return func(c *CompletionClient) {
		c.client = client
	}
}

// NewCompletionClient creates a completion client for the given endpoint and
// model.
func NewCompletionClient(endpoint, model string, options ...CompletionOption) *CompletionClient {
	c := &CompletionClient{
		endpoint: endpoint,
		model:    model,
		client:   http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type completionRequest struct {
	Model   string            `json:"model"`
	Prompt  string            `json:"prompt"`
	Stream  bool              `json:"stream"`
	Options completionOptions `json:"options"`
}

type completionOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type completionResponse struct {
	Response string `json:"response"`
}

// Complete sends the prompt and returns the raw generated text.
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: completionOptions{
			Temperature: 0.1,
			NumPredict:  1024,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion provider returned status %d: %s", resp.StatusCode, payload)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	return parsed.Response, nil
}
