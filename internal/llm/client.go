package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultMaxAttempts = 2
	defaultRetryDelay  = time.Second
)

// Client wraps an OpenAI-compatible chat completion endpoint with
// bounded retries. Attempts are capped; a persistently failing prompt
// is surfaced to the caller, never retried indefinitely.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxAttempts int
	retryDelay  time.Duration
}

// Options configures a Client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewClient creates a chat completion client. BaseURL may be empty to
// use the default OpenAI endpoint.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxTokens,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single prompt and returns the completion text.
// Transport failures are retried up to the attempt cap with a linear
// delay between attempts.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt-1)):
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("completion returned no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxAttempts, lastErr)
}
