package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// CompletionClient calls an OpenAI-compatible chat completions endpoint
// in JSON mode. All semantic work lives in the provider; this client
// only shapes requests and validates that a parseable body came back.
type CompletionClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewCompletionClient creates a client for the given endpoint and model.
func NewCompletionClient(baseURL, apiKey, model string, timeout time.Duration) *CompletionClient {
	return &CompletionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateJSON asks the model for a JSON object and unmarshals it into out.
func (c *CompletionClient) GenerateJSON(ctx context.Context, systemPrompt, userContent string, out interface{}) error {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature:    0.7,
		MaxTokens:      4096,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return &pipeline.ProviderError{Op: "text-completion", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return &pipeline.ProviderError{Op: "text-completion", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &pipeline.ProviderError{Op: "text-completion", Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &pipeline.ProviderError{Op: "text-completion", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &pipeline.ProviderError{
			Op:  "text-completion",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBytes), 200)),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return &pipeline.ProviderError{Op: "text-completion", Err: err}
	}
	if chatResp.Error != nil {
		return &pipeline.ProviderError{
			Op:  "text-completion",
			Err: fmt.Errorf("%s", chatResp.Error.Message),
		}
	}
	if len(chatResp.Choices) == 0 {
		return &pipeline.ProviderError{
			Op:  "text-completion",
			Err: fmt.Errorf("no choices in response"),
		}
	}

	content := cleanJSON(chatResp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return &pipeline.ProviderError{
			Op:  "text-completion",
			Err: fmt.Errorf("unparseable model output: %w", err),
		}
	}
	return nil
}

// cleanJSON strips markdown fences when the model wraps output in ```json ... ```.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
