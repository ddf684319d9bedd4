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

// AnthropicConfig configures the messages-API gateway client.
type AnthropicConfig struct {
	GatewayURL string
	APIKey     string
	Model      string
	MaxTokens  int
}

// AnthropicClient speaks the messages wire format:
// POST {messages, system, model, max_tokens} -> {content: [{text}]}.
type AnthropicClient struct {
	cfg        AnthropicConfig
	httpClient *http.Client
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	return &AnthropicClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type anthropicRequest struct {
	Messages  []Message `json:"messages"`
	System    string    `json:"system"`
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Messages:  messages,
		System:    system,
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	var parsed anthropicResponse
	if resp.StatusCode != http.StatusOK {
		// The gateway reports failures as {error: {message}}; fall back to
		// the status code when the body is not parseable.
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("completion gateway: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("completion gateway: HTTP %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", fmt.Errorf("completion gateway returned no content")
	}

	return parsed.Content[0].Text, nil
}
