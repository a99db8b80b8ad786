// Package anthropic provides a completer backed by the Anthropic Messages
// API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = string(sdk.ModelClaudeSonnet4_5_20250929)

// Sentinel errors.
var (
	ErrRateLimited   = errors.New("anthropic: rate limited")
	ErrEmptyResponse = errors.New("anthropic: empty response")
	ErrNoAPIKey      = errors.New("anthropic: api key is required")
)

// MessagesClient captures the subset of the Anthropic SDK the completer
// uses. It is satisfied by *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Config configures the completer.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client completes prompts with Claude.
type Client struct {
	msg         MessagesClient
	model       string
	maxTokens   int
	temperature float64
}

// New constructs a Client using the default Anthropic HTTP client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	ac := sdk.NewClient(option.WithAPIKey(cfg.APIKey))
	return NewWithMessages(&ac.Messages, cfg)
}

// NewWithMessages builds a Client over an existing Messages client.
func NewWithMessages(msg MessagesClient, cfg Config) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Client{msg: msg, model: model, maxTokens: maxTokens, temperature: cfg.Temperature}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyResponse
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
