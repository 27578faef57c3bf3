// Package openai is the REST client for an OpenAI-compatible chat
// completion API. The service treats it as an opaque collaborator: prompt
// in, text out, maybe unavailable.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fablestreet/marketsim/internal/domain"
)

const systemPrompt = "You are the market engine for a fictional stock-trading game. Follow the output format instructions exactly."

// Options configures the completion client.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.openai.com".
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Client calls the chat completion endpoint.
type Client struct {
	client      *resty.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// NewClient creates a completion client with auth and timeout baked into
// the underlying HTTP client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	rc := resty.New()
	rc.SetBaseURL(opts.BaseURL)
	rc.SetTimeout(opts.Timeout)
	rc.SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		rc.SetAuthToken(opts.APIKey)
	}

	return &Client{
		client:      rc,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger:      logger,
	}
}

// Complete sends one user prompt and returns the first choice's content.
// Transport failures, non-2xx statuses, and empty replies all surface as
// domain.ErrUpstream.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var out chatResponse
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai: complete: %v: %w", err, domain.ErrUpstream)
	}

	if resp.IsError() {
		msg := "no error body"
		if out.Error != nil {
			msg = out.Error.Message
		}
		c.logger.WarnContext(ctx, "openai: completion request rejected",
			slog.Int("status", resp.StatusCode()),
			slog.String("api_error", msg),
		)
		return "", fmt.Errorf("openai: status %d: %w", resp.StatusCode(), domain.ErrUpstream)
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: empty completion: %w", domain.ErrUpstream)
	}

	c.logger.DebugContext(ctx, "openai: completion ok",
		slog.String("model", c.model),
		slog.Duration("elapsed", time.Since(start)),
		slog.String("finish_reason", out.Choices[0].FinishReason),
	)
	return out.Choices[0].Message.Content, nil
}

var _ domain.Completer = (*Client)(nil)
