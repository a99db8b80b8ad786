// Package orchestrator implements the question pipeline that composes the
// Context Store, intent resolution, dispatch and synthesis.
//
// The orchestrator initializes from configuration via New, creating every
// subsystem internally. Functional options replace any subsystem for tests
// or embedding.
//
//	o, err := orchestrator.New(ctx, cfg)
//	answer, err := o.Ask(ctx, sessionID, "Should I order 1000 units of MED009?")
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/rxdesk/archive"
	"github.com/tailored-agentic-units/rxdesk/capability"
	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/dispatch"
	"github.com/tailored-agentic-units/rxdesk/handlers/remote"
	"github.com/tailored-agentic-units/rxdesk/intent"
	"github.com/tailored-agentic-units/rxdesk/llm"
	"github.com/tailored-agentic-units/rxdesk/observability"
	"github.com/tailored-agentic-units/rxdesk/session"
	"github.com/tailored-agentic-units/rxdesk/synth"
)

const source = "orchestrator.Ask"

// Answer is the outcome of one question.
type Answer struct {
	RequestID string
	Text      string
	Intent    protocol.Intent
	Results   protocol.ResultSet
	Exchange  protocol.Exchange
	Elapsed   time.Duration
}

type options struct {
	store        session.Store
	registry     *capability.Registry
	archive      archive.Archive
	observer     observability.Observer
	tracer       trace.Tracer
	completer    llm.Completer
	completerSet bool
	classifier   intent.Classifier
	summarizer   synth.Summarizer
}

// Option overrides a config-created subsystem.
type Option func(*options)

// WithStore overrides the config-created Context Store.
func WithStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

// WithRegistry overrides the handler registry built from Config.Handlers.
func WithRegistry(r *capability.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithArchive overrides the config-created archive.
func WithArchive(a archive.Archive) Option {
	return func(o *options) { o.archive = a }
}

// WithObserver overrides the observer named by Config.Observer.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithCompleter overrides the config-created LLM completer. A nil completer
// disables the model and leaves only the deterministic paths.
func WithCompleter(c llm.Completer) Option {
	return func(o *options) {
		o.completer = c
		o.completerSet = true
	}
}

// WithClassifier overrides the completer-backed intent classifier.
func WithClassifier(c intent.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithSummarizer overrides the completer-backed summarizer.
func WithSummarizer(s synth.Summarizer) Option {
	return func(o *options) { o.summarizer = s }
}

// Orchestrator answers questions within sessions.
type Orchestrator struct {
	store        session.Store
	registry     *capability.Registry
	archive      archive.Archive
	resolver     *intent.Resolver
	dispatcher   *dispatch.Dispatcher
	synthesizer  *synth.Synthesizer
	observer     observability.Observer
	tracer       trace.Tracer
	contextTurns int
	window       int
}

// New creates an Orchestrator from configuration. A missing LLM API key is
// not fatal: the orchestrator then routes with the keyword fallback and
// answers with templated synthesis.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Orchestrator, error) {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.observer == nil {
		obs, err := observability.New(c.Observer, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to create observer: %w", err)
		}
		o.observer = obs
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("github.com/tailored-agentic-units/rxdesk/orchestrator")
	}

	if o.store == nil {
		store, err := session.New(&c.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to create context store: %w", err)
		}
		o.store = store
	}

	if o.registry == nil {
		bindings, err := remote.Bindings(c.Handlers)
		if err != nil {
			return nil, fmt.Errorf("failed to bind handlers: %w", err)
		}
		reg, err := capability.NewRegistry(bindings)
		if err != nil {
			return nil, fmt.Errorf("failed to create registry: %w", err)
		}
		o.registry = reg
	}

	if o.archive == nil && c.Archive != "" {
		o.archive = archive.NewFileArchive(c.Archive)
	}

	if !o.completerSet && (o.classifier == nil || o.summarizer == nil) {
		completer, err := llm.New(ctx, c.LLM)
		switch {
		case errors.Is(err, llm.ErrNoAPIKey):
			observability.Emit(ctx, o.observer, EventLLMDegraded, observability.LevelWarning, "orchestrator.New", map[string]any{
				"provider": c.LLM.Provider,
				"error":    err.Error(),
			})
		case err != nil:
			return nil, fmt.Errorf("failed to create completer: %w", err)
		}
		o.completer = completer
	}
	if o.classifier == nil && o.completer != nil {
		o.classifier = intent.NewLLMClassifier(o.completer)
	}
	if o.summarizer == nil && o.completer != nil {
		o.summarizer = synth.NewLLMSummarizer(o.completer)
	}

	resolver, err := intent.NewResolver(o.classifier, c.Intent, intent.WithObserver(o.observer))
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	return &Orchestrator{
		store:        o.store,
		registry:     o.registry,
		archive:      o.archive,
		resolver:     resolver,
		dispatcher:   dispatch.New(o.registry, c.Dispatch, dispatch.WithObserver(o.observer), dispatch.WithTracer(o.tracer)),
		synthesizer:  synth.New(o.summarizer, c.Synth, synth.WithObserver(o.observer)),
		observer:     o.observer,
		tracer:       o.tracer,
		contextTurns: c.Intent.ContextTurns,
		window:       c.Session.Window,
	}, nil
}

// Registry returns the handler registry.
func (o *Orchestrator) Registry() *capability.Registry {
	return o.registry
}

// Ask answers question within session sessionID and appends the exchange
// to the session's history.
//
// Ask fails only for an empty question or session id. A Context Store
// failure is returned wrapped in ErrContextStore together with the answer.
// Handler failures and classifier failures never surface as errors.
func (o *Orchestrator) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if sessionID == "" {
		return nil, ErrEmptySession
	}

	requestID := uuid.Must(uuid.NewV7()).String()
	ctx = observability.WithAttrs(ctx, map[string]any{
		"request_id": requestID,
		"session_id": sessionID,
	})
	ctx, span := o.tracer.Start(ctx, "rxdesk.ask", trace.WithAttributes(
		attribute.String("rxdesk.request_id", requestID),
		attribute.String("rxdesk.session_id", sessionID),
	))
	defer span.End()

	start := time.Now()
	observability.Emit(ctx, o.observer, EventAskStart, observability.LevelInfo, source, map[string]any{
		"question_length": len(question),
	})

	var storeErr error
	recent, err := o.store.Recent(ctx, sessionID, o.contextTurns)
	if err != nil {
		storeErr = err
		o.emitStoreError(ctx, "recent", err)
		recent = nil
	}

	in := o.resolver.Resolve(ctx, question, recent)
	results := o.dispatcher.Dispatch(ctx, in)
	text := o.synthesizer.Synthesize(ctx, question, in, results)
	ex := protocol.NewExchange(sessionID, question, in, results, text)

	// A finished turn is persisted even when the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)
	if err := o.store.Append(persistCtx, sessionID, ex); err != nil {
		storeErr = errors.Join(storeErr, err)
		o.emitStoreError(ctx, "append", err)
	}
	if o.archive != nil {
		if err := o.archive.Record(persistCtx, sessionID, ex); err != nil {
			observability.Emit(ctx, o.observer, EventArchiveError, observability.LevelWarning, source, map[string]any{
				"error": err.Error(),
			})
		}
	}

	answer := &Answer{
		RequestID: requestID,
		Text:      text,
		Intent:    in,
		Results:   results,
		Exchange:  ex,
		Elapsed:   time.Since(start),
	}

	span.SetAttributes(
		attribute.String("rxdesk.shape", string(in.Shape)),
		attribute.String("rxdesk.source", string(in.Source)),
		attribute.Int("rxdesk.ok", len(results.OK())),
	)
	observability.Emit(ctx, o.observer, EventAskComplete, observability.LevelInfo, source, map[string]any{
		"capabilities": protocol.JoinCapabilities(in.Capabilities),
		"resolved_by":  string(in.Source),
		"ok":           len(results.OK()),
		"failed":       len(results.Failed()),
		"elapsed_ms":   answer.Elapsed.Milliseconds(),
	})

	if storeErr != nil {
		return answer, fmt.Errorf("%w: %w", ErrContextStore, storeErr)
	}
	return answer, nil
}

// History returns the bounded conversation window for sessionID.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]protocol.Exchange, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}
	return o.store.Recent(ctx, sessionID, o.window)
}

// Transcript returns the full archived transcript for sessionID, or the
// bounded window when no archive is configured.
func (o *Orchestrator) Transcript(ctx context.Context, sessionID string) ([]protocol.Exchange, error) {
	if o.archive == nil {
		return o.History(ctx, sessionID)
	}
	return o.archive.Load(ctx, sessionID)
}

// Clear drops the conversation window for sessionID. The archive, if any,
// keeps its transcript.
func (o *Orchestrator) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySession
	}
	if err := o.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %w", ErrContextStore, err)
	}
	observability.Emit(ctx, o.observer, EventSessionClear, observability.LevelInfo, "orchestrator.Clear", map[string]any{
		"session_id": sessionID,
	})
	return nil
}

// Close releases the Context Store's resources.
func (o *Orchestrator) Close() error {
	if c, ok := o.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (o *Orchestrator) emitStoreError(ctx context.Context, op string, err error) {
	observability.Emit(ctx, o.observer, EventStoreError, observability.LevelError, source, map[string]any{
		"op":    op,
		"error": err.Error(),
	})
}
