// Package synth turns the results of a dispatch into the answer shown to
// the user.
//
// A Synthesizer always produces text. When an optional Summarizer is wired
// in, its output becomes the body of the answer; otherwise, or when it
// fails, the body is a templated concatenation of the successful payloads.
// Every merged answer ends with a coverage footer naming what was consulted
// and what was degraded.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/observability"
)

const source = "synth.Synthesize"

// Defaults.
const (
	SectionLength     = 500
	SummarizerTimeout = 30 * time.Second
)

// ErrSummarizerFailed marks a summarizer that errored, panicked, timed out
// or returned nothing.
var ErrSummarizerFailed = errors.New("summarizer failed")

// Finding is one successful handler payload, rendered as text.
type Finding struct {
	Capability protocol.Capability
	Content    string
}

// Summarizer writes a single answer from a set of findings.
type Summarizer interface {
	Summarize(ctx context.Context, question string, findings []Finding) (string, error)
}

// SummarizerFunc adapts a function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, question string, findings []Finding) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, question string, findings []Finding) (string, error) {
	return f(ctx, question, findings)
}

// Config holds synthesizer parameters.
type Config struct {
	SectionLength     int           `json:"section_length,omitempty" yaml:"section_length,omitempty"`
	SummarizerTimeout time.Duration `json:"summarizer_timeout,omitempty" yaml:"summarizer_timeout,omitempty"`
}

// DefaultConfig returns the default synthesizer configuration.
func DefaultConfig() Config {
	return Config{
		SectionLength:     SectionLength,
		SummarizerTimeout: SummarizerTimeout,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.SectionLength > 0 {
		c.SectionLength = source.SectionLength
	}
	if source.SummarizerTimeout > 0 {
		c.SummarizerTimeout = source.SummarizerTimeout
	}
}

// Synthesizer builds answers from result sets.
type Synthesizer struct {
	summarizer Summarizer
	cfg        Config
	observer   observability.Observer
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithObserver sets the observer that receives synthesis events.
func WithObserver(o observability.Observer) Option {
	return func(s *Synthesizer) {
		s.observer = o
	}
}

// New creates a Synthesizer. summarizer may be nil.
func New(summarizer Summarizer, cfg Config, opts ...Option) *Synthesizer {
	def := DefaultConfig()
	def.Merge(&cfg)

	s := &Synthesizer{
		summarizer: summarizer,
		cfg:        def,
		observer:   observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns the answer for question. An empty result set yields a
// clarification prompt and a set without any ok result yields an explicit
// failure message.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, intent protocol.Intent, results protocol.ResultSet) string {
	if results.Empty() {
		observability.Emit(ctx, s.observer, EventClarification, observability.LevelInfo, source, map[string]any{
			"rationale": intent.Rationale,
		})
		return Clarification()
	}

	if results.AllFailed() {
		observability.Emit(ctx, s.observer, EventTotalFailure, observability.LevelWarning, source, map[string]any{
			"capabilities": protocol.JoinCapabilities(results.Capabilities()),
		})
		return Failure(results)
	}

	findings := s.findings(results)
	body, err := s.summarize(ctx, question, findings)
	if err != nil {
		if s.summarizer != nil {
			observability.Emit(ctx, s.observer, EventSummaryFallback, observability.LevelWarning, source, map[string]any{
				"error": err.Error(),
			})
		}
		body = Concatenate(results.Capabilities(), findings)
	} else {
		observability.Emit(ctx, s.observer, EventSummarized, observability.LevelVerbose, source, map[string]any{
			"findings": len(findings),
			"length":   len(body),
		})
	}

	return body + "\n\n" + Coverage(results)
}

func (s *Synthesizer) findings(results protocol.ResultSet) []Finding {
	ok := results.OK()
	out := make([]Finding, len(ok))
	for i, r := range ok {
		out[i] = Finding{
			Capability: r.Capability,
			Content:    protocol.Truncate(protocol.RenderPayload(r.Payload), s.cfg.SectionLength),
		}
	}
	return out
}

func (s *Synthesizer) summarize(ctx context.Context, question string, findings []Finding) (string, error) {
	if s.summarizer == nil {
		return "", ErrSummarizerFailed
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.SummarizerTimeout)
	defer cancel()

	type reply struct {
		body string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		body, err := s.safeSummarize(sctx, question, findings)
		ch <- reply{body, err}
	}()

	var body string
	var err error
	select {
	case rep := <-ch:
		body, err = rep.body, rep.err
	case <-sctx.Done():
		err = sctx.Err()
	}
	if err != nil {
		if errors.Is(err, ErrSummarizerFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrSummarizerFailed, err)
	}
	if body = strings.TrimSpace(body); body == "" {
		return "", fmt.Errorf("%w: empty summary", ErrSummarizerFailed)
	}
	return body, nil
}

func (s *Synthesizer) safeSummarize(ctx context.Context, question string, findings []Finding) (body string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: summarizer panicked: %v", ErrSummarizerFailed, p)
		}
	}()
	return s.summarizer.Summarize(ctx, question, findings)
}
