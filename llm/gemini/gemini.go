// Package gemini provides a completer backed by the Google Gemini API. It
// rotates across several API keys and models, moving on whenever a key is
// out of quota or a model is not served, and remembers the last key that
// worked.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// DefaultModels is the model rotation used when Config.Models is empty.
var DefaultModels = []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-2.5-flash"}

// Sentinel errors.
var (
	ErrExhausted     = errors.New("gemini: all keys and models exhausted")
	ErrEmptyResponse = errors.New("gemini: empty response")
	ErrNoKeys        = errors.New("gemini: at least one api key is required")
)

// Generator is the subset of the genai Models service the completer uses.
// It is satisfied by (*genai.Client).Models.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the rotation inputs.
type Config struct {
	APIKeys     []string
	Models      []string
	Temperature float32
}

// Client completes prompts against Gemini.
type Client struct {
	gens        []Generator
	models      []string
	temperature float32

	mu      sync.Mutex
	current int
}

// New creates one genai client per API key.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, ErrNoKeys
	}
	gens := make([]Generator, 0, len(cfg.APIKeys))
	for i, key := range cfg.APIKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: create client for key %d: %w", i+1, err)
		}
		gens = append(gens, client.Models)
	}
	return NewWithGenerators(gens, cfg)
}

// NewWithGenerators builds a Client over existing generators, one per key.
func NewWithGenerators(gens []Generator, cfg Config) (*Client, error) {
	if len(gens) == 0 {
		return nil, ErrNoKeys
	}
	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModels
	}
	return &Client{gens: gens, models: models, temperature: cfg.Temperature}, nil
}

// Complete tries every key, starting from the last one that worked, and
// every model per key. Quota and not-found errors move on to the next
// candidate; any other error is returned immediately.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	start := c.current
	c.mu.Unlock()

	config := &genai.GenerateContentConfig{}
	if c.temperature > 0 {
		config.Temperature = genai.Ptr(c.temperature)
	}

	var lastErr error
	for k := range c.gens {
		idx := (start + k) % len(c.gens)
		for _, model := range c.models {
			resp, err := c.gens[idx].GenerateContent(ctx, model, genai.Text(prompt), config)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				if !Retryable(err) {
					return "", fmt.Errorf("gemini %s: %w", model, err)
				}
				lastErr = err
				continue
			}
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				lastErr = ErrEmptyResponse
				continue
			}
			c.mu.Lock()
			c.current = idx
			c.mu.Unlock()
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

// Retryable reports whether err means the current key or model cannot
// serve the request and another candidate should be tried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"429", "RESOURCE_EXHAUSTED", "404"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
