package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/observability"
)

const source = "intent.Resolve"

// Config holds resolver parameters.
type Config struct {
	ContextTurns      int           `json:"context_turns,omitempty" yaml:"context_turns,omitempty"`
	SummaryLength     int           `json:"summary_length,omitempty" yaml:"summary_length,omitempty"`
	ClassifierTimeout time.Duration `json:"classifier_timeout,omitempty" yaml:"classifier_timeout,omitempty"`
	// KeywordsFile overrides the built-in keyword table.
	KeywordsFile string `json:"keywords_file,omitempty" yaml:"keywords_file,omitempty"`
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		ContextTurns:      ContextTurns,
		SummaryLength:     SummaryLength,
		ClassifierTimeout: ClassifierTimeout,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.ContextTurns > 0 {
		c.ContextTurns = source.ContextTurns
	}
	if source.SummaryLength > 0 {
		c.SummaryLength = source.SummaryLength
	}
	if source.ClassifierTimeout > 0 {
		c.ClassifierTimeout = source.ClassifierTimeout
	}
	if source.KeywordsFile != "" {
		c.KeywordsFile = source.KeywordsFile
	}
}

// Resolver turns questions into intents.
type Resolver struct {
	classifier Classifier
	table      KeywordTable
	cfg        Config
	observer   observability.Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObserver sets the observer that receives resolution events.
func WithObserver(o observability.Observer) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// WithKeywordTable replaces the fallback keyword table.
func WithKeywordTable(t KeywordTable) Option {
	return func(r *Resolver) {
		r.table = t
	}
}

// NewResolver creates a Resolver. A nil classifier is allowed; every
// question then goes through the keyword fallback.
func NewResolver(classifier Classifier, cfg Config, opts ...Option) (*Resolver, error) {
	def := DefaultConfig()
	def.Merge(&cfg)

	r := &Resolver{
		classifier: classifier,
		table:      DefaultKeywordTable(),
		cfg:        def,
		observer:   observability.NoOpObserver{},
	}
	if def.KeywordsFile != "" {
		t, err := LoadKeywordTable(def.KeywordsFile)
		if err != nil {
			return nil, err
		}
		r.table = t
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the routing decision for question. recent holds prior
// exchanges of the session in chronological order. Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, question string, recent []protocol.Exchange) protocol.Intent {
	req := r.Request(question, recent)

	observability.Emit(ctx, r.observer, EventResolveStart, observability.LevelVerbose, source, map[string]any{
		"history_turns": len(req.History),
	})

	intent, err := r.classify(ctx, req)
	if err != nil {
		intent = Fallback(r.table, question)
		observability.Emit(ctx, r.observer, EventFallback, observability.LevelWarning, source, map[string]any{
			"reason":       err.Error(),
			"capabilities": protocol.JoinCapabilities(intent.Capabilities),
		})
	} else {
		observability.Emit(ctx, r.observer, EventClassified, observability.LevelInfo, source, map[string]any{
			"capabilities": protocol.JoinCapabilities(intent.Capabilities),
			"shape":        string(intent.Shape),
		})
	}

	if intent.NeedsClarification() {
		observability.Emit(ctx, r.observer, EventClarify, observability.LevelInfo, source, map[string]any{
			"resolved_by": string(intent.Source),
		})
	}
	return intent
}

// Request builds the classifier input from the last ContextTurns exchanges.
func (r *Resolver) Request(question string, recent []protocol.Exchange) ClassifyRequest {
	start := max(0, len(recent)-r.cfg.ContextTurns)
	history := make([]Turn, 0, len(recent)-start)
	for _, ex := range recent[start:] {
		history = append(history, Turn{
			Question:      ex.Question,
			AnswerSummary: protocol.Truncate(ex.Answer, r.cfg.SummaryLength),
		})
	}
	return ClassifyRequest{Question: question, History: history}
}

func (r *Resolver) classify(ctx context.Context, req ClassifyRequest) (protocol.Intent, error) {
	if r.classifier == nil {
		return protocol.Intent{}, ErrClassifierUnavailable
	}

	cctx, cancel := context.WithTimeout(ctx, r.cfg.ClassifierTimeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	// Buffered so a classifier that ignores its context never blocks.
	ch := make(chan reply, 1)
	go func() {
		text, err := r.safeClassify(cctx, req)
		ch <- reply{text, err}
	}()

	var text string
	var err error
	select {
	case rep := <-ch:
		text, err = rep.text, rep.err
	case <-cctx.Done():
		err = cctx.Err()
	}
	if err != nil {
		if errors.Is(err, ErrClassifierUnavailable) {
			return protocol.Intent{}, err
		}
		return protocol.Intent{}, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}
	return Parse(text)
}

func (r *Resolver) safeClassify(ctx context.Context, req ClassifyRequest) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: classifier panicked: %v", ErrClassifierUnavailable, p)
		}
	}()
	return r.classifier.Classify(ctx, req)
}
