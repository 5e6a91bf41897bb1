// Package ai produces contract analyses, negotiation emails and grounded
// answers using an OpenAI-compatible chat completion API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/contractai/backend/pkg/ledger"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ai: api key not configured")

// completer is the slice of the OpenAI client the package needs. Tests
// substitute a fake.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the AI client.
type Config struct {
	APIKey string

	// BaseURL overrides the API endpoint, for OpenAI-compatible gateways.
	BaseURL string

	// Model defaults to gpt-4o-mini.
	Model string

	// Temperature defaults to 0.2. Low temperature keeps the JSON outputs
	// parseable.
	Temperature float32

	// MaxTokens defaults to 2000.
	MaxTokens int

	// Logger receives structured request logs. Defaults to no-op.
	Logger ledger.Logger
}

// Client calls the chat completion API with contract-analysis prompts.
type Client struct {
	api         completer
	model       string
	temperature float32
	maxTokens   int
	logger      ledger.Logger
}

// NewClient creates a client from config. It fails when no API key is
// configured so misconfiguration surfaces at startup, not first request.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Logger == nil {
		config.Logger = &ledger.NoopLogger{}
	}

	var api *openai.Client
	if config.BaseURL != "" {
		clientConfig := openai.DefaultConfig(config.APIKey)
		clientConfig.BaseURL = config.BaseURL
		api = openai.NewClientWithConfig(clientConfig)
	} else {
		api = openai.NewClient(config.APIKey)
	}

	return &Client{
		api:         api,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      config.Logger,
	}, nil
}

// complete sends a single-prompt chat completion and returns the text.
func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("chat completion finished",
		ledger.Field{Key: "model", Value: c.model},
		ledger.Field{Key: "tokens", Value: resp.Usage.TotalTokens},
		ledger.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})

	return resp.Choices[0].Message.Content, nil
}

// truncate limits text to at most n runes.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
