package llm

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/tailored-agentic-units/rxdesk/llm/anthropic"
	"github.com/tailored-agentic-units/rxdesk/llm/gemini"
)

// Provider names accepted by Config.Provider.
const (
	ProviderNone      = "none"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config selects and tunes the completion backend. API keys are normally
// discovered from the environment rather than stored in files.
type Config struct {
	Provider          string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	APIKeys           []string `json:"-" yaml:"-"`
	Models            []string `json:"models,omitempty" yaml:"models,omitempty"`
	Temperature       float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens         int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	RequestsPerMinute int      `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
}

// DefaultConfig returns the default llm configuration.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderGemini,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if len(source.APIKeys) > 0 {
		c.APIKeys = source.APIKeys
	}
	if len(source.Models) > 0 {
		c.Models = source.Models
	}
	if source.Temperature > 0 {
		c.Temperature = source.Temperature
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
	if source.RequestsPerMinute > 0 {
		c.RequestsPerMinute = source.RequestsPerMinute
	}
}

// KeysFromEnv returns the API keys the provider reads from the environment.
// Gemini rotates across GEMINI_API_KEY and GEMINI_API_KEY_2 through
// GEMINI_API_KEY_9; Anthropic reads ANTHROPIC_API_KEY.
func KeysFromEnv(provider string) []string {
	var names []string
	switch provider {
	case ProviderGemini:
		names = append(names, "GEMINI_API_KEY")
		for i := 2; i <= 9; i++ {
			names = append(names, "GEMINI_API_KEY_"+strconv.Itoa(i))
		}
	case ProviderAnthropic:
		names = append(names, "ANTHROPIC_API_KEY")
	}

	var keys []string
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			keys = append(keys, v)
		}
	}
	return keys
}

// New builds the configured Completer, wrapped in a rate limiter when
// RequestsPerMinute is set. ProviderNone yields a nil Completer and no error;
// callers then run their deterministic fallbacks only.
func New(ctx context.Context, cfg Config) (Completer, error) {
	keys := cfg.APIKeys
	if len(keys) == 0 {
		keys = KeysFromEnv(cfg.Provider)
	}

	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderGemini:
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoAPIKey, cfg.Provider)
		}
		c, err = gemini.New(ctx, gemini.Config{
			APIKeys:     keys,
			Models:      cfg.Models,
			Temperature: float32(cfg.Temperature),
		})
	case ProviderAnthropic:
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoAPIKey, cfg.Provider)
		}
		var model string
		if len(cfg.Models) > 0 {
			model = cfg.Models[0]
		}
		c, err = anthropic.New(anthropic.Config{
			APIKey:      keys[0],
			Model:       model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRateLimit(c, cfg.RequestsPerMinute), nil
}
