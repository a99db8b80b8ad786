package session

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds Context Store parameters.
type Config struct {
	Window      int           `json:"window,omitempty" yaml:"window,omitempty"`
	MaxSessions int           `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
	IdleTTL     time.Duration `json:"idle_ttl,omitempty" yaml:"idle_ttl,omitempty"`
	Backend     string        `json:"backend,omitempty" yaml:"backend,omitempty"`
	RedisURL    string        `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	KeyPrefix   string        `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Window:      DefaultWindow,
		MaxSessions: 4096,
		IdleTTL:     24 * time.Hour,
		Backend:     BackendMemory,
		RedisURL:    "redis://localhost:6379/0",
		KeyPrefix:   "rxdesk:session:",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Window > 0 {
		c.Window = source.Window
	}
	if source.MaxSessions > 0 {
		c.MaxSessions = source.MaxSessions
	}
	if source.IdleTTL > 0 {
		c.IdleTTL = source.IdleTTL
	}
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.RedisURL != "" {
		c.RedisURL = source.RedisURL
	}
	if source.KeyPrefix != "" {
		c.KeyPrefix = source.KeyPrefix
	}
}

// New creates a Store for the configured backend.
func New(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(*cfg), nil
	case BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return NewRedisStore(redis.NewClient(opts), *cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
