package dispatch

import "time"

// Config holds dispatcher time budgets. Values are durations in YAML/JSON
// form ("5s", "1m30s").
type Config struct {
	// SingleBudget bounds a dispatch that consults one capability.
	SingleBudget time.Duration `json:"single_budget,omitempty" yaml:"single_budget,omitempty"`
	// MultiBudget bounds a dispatch that consults several capabilities.
	MultiBudget time.Duration `json:"multi_budget,omitempty" yaml:"multi_budget,omitempty"`
	// HandlerTimeout caps each handler individually. Zero gives every
	// handler the full remaining budget.
	HandlerTimeout time.Duration `json:"handler_timeout,omitempty" yaml:"handler_timeout,omitempty"`
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		SingleBudget: 5 * time.Second,
		MultiBudget:  10 * time.Second,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.SingleBudget > 0 {
		c.SingleBudget = source.SingleBudget
	}
	if source.MultiBudget > 0 {
		c.MultiBudget = source.MultiBudget
	}
	if source.HandlerTimeout > 0 {
		c.HandlerTimeout = source.HandlerTimeout
	}
}

// Budget returns the overall deadline for a dispatch naming count
// capabilities.
func (c Config) Budget(count int) time.Duration {
	if count > 1 {
		return c.MultiBudget
	}
	return c.SingleBudget
}
