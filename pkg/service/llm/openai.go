package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the chat-completions fallback provider.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// OpenAIClient generates completions through the OpenAI chat API. Used
// when the deployment is configured with LLM_PROVIDER=openai.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIClient{
		client:    openai.NewClient(cfg.APIKey),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	const maxRetries = 3

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     c.model,
			Messages:  chatMessages,
			MaxTokens: c.maxTokens,
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) > 0 {
			return resp.Choices[0].Message.Content, nil
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("completion failed after %d attempts: %w", maxRetries, lastErr)
	}
	return "", fmt.Errorf("completion returned no choices after %d attempts", maxRetries)
}
