package orchestrator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/dispatch"
	"github.com/tailored-agentic-units/rxdesk/handlers/remote"
	"github.com/tailored-agentic-units/rxdesk/intent"
	"github.com/tailored-agentic-units/rxdesk/llm"
	"github.com/tailored-agentic-units/rxdesk/session"
	"github.com/tailored-agentic-units/rxdesk/synth"
)

// Config holds initialization parameters for every pipeline stage.
// Each section delegates to that subsystem's own Config.
type Config struct {
	Session  session.Config                          `json:"session" yaml:"session"`
	Intent   intent.Config                           `json:"intent" yaml:"intent"`
	Dispatch dispatch.Config                         `json:"dispatch" yaml:"dispatch"`
	Synth    synth.Config                            `json:"synth" yaml:"synth"`
	LLM      llm.Config                              `json:"llm" yaml:"llm"`
	Handlers map[protocol.Capability]remote.Endpoint `json:"handlers,omitempty" yaml:"handlers,omitempty"`

	// Archive is the directory of the full-transcript archive. Empty
	// disables archiving.
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`

	// Observer names the event sink: "slog", "noop" or "trace".
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Session:  session.DefaultConfig(),
		Intent:   intent.DefaultConfig(),
		Dispatch: dispatch.DefaultConfig(),
		Synth:    synth.DefaultConfig(),
		LLM:      llm.DefaultConfig(),
		Observer: "slog",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Session.Merge(&source.Session)
	c.Intent.Merge(&source.Intent)
	c.Dispatch.Merge(&source.Dispatch)
	c.Synth.Merge(&source.Synth)
	c.LLM.Merge(&source.LLM)

	if len(source.Handlers) > 0 {
		c.Handlers = source.Handlers
	}
	if source.Archive != "" {
		c.Archive = source.Archive
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a YAML (or JSON) config file, merges it over defaults,
// and returns the resulting Config. Durations are written as "5s".
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
