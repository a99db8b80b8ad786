// Package dispatch consults the capability handlers named by an Intent
// concurrently and joins their results in Intent order.
//
// Every handler is isolated: an error, a panic or an exceeded deadline is
// recorded on that handler's result and never affects its siblings. The join
// is bounded by an overall budget; handlers still running when it expires are
// recorded as timed out and abandoned.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/rxdesk/capability"
	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/observability"
)

const source = "dispatch.Dispatch"

// Dispatcher runs capability handlers for resolved intents.
type Dispatcher struct {
	registry *capability.Registry
	cfg      Config
	observer observability.Observer
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver sets the observer that receives dispatch events.
func WithObserver(o observability.Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithTracer sets the tracer used for per-handler spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// New creates a Dispatcher over registry. Zero values in cfg fall back to
// DefaultConfig.
func New(registry *capability.Registry, cfg Config, opts ...Option) *Dispatcher {
	def := DefaultConfig()
	def.Merge(&cfg)

	d := &Dispatcher{
		registry: registry,
		cfg:      def,
		observer: observability.NoOpObserver{},
		tracer:   otel.Tracer("github.com/tailored-agentic-units/rxdesk/dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type indexedResult struct {
	index  int
	result protocol.HandlerResult
}

// Dispatch consults every capability the intent names and returns one result
// per capability in intent order. A clarify intent yields an empty ResultSet
// without invoking anything. Dispatch never fails; total failure shows up as
// ResultSet.AllFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, intent protocol.Intent) protocol.ResultSet {
	if intent.NeedsClarification() || len(intent.Capabilities) == 0 {
		return protocol.ResultSet{}
	}

	ids := intent.Capabilities
	budget := d.cfg.Budget(len(ids))
	start := time.Now()

	observability.Emit(ctx, d.observer, EventDispatchStart, observability.LevelInfo, source, map[string]any{
		"capabilities": protocol.JoinCapabilities(ids),
		"count":        len(ids),
		"budget":       budget.String(),
	})

	dctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	results := make(protocol.ResultSet, len(ids))
	filled := make([]bool, len(ids))
	// Buffered so abandoned handlers never block on send.
	resultChannel := make(chan indexedResult, len(ids))
	pending := 0

	for i, id := range ids {
		h, ok := d.registry.Lookup(id)
		if !ok {
			results[i] = protocol.HandlerResult{
				Capability: id,
				Status:     protocol.StatusUnavailable,
				Detail:     "no handler registered",
				Err:        fmt.Errorf("%w: %s", capability.ErrUnavailable, id),
			}
			filled[i] = true
			d.emitComplete(ctx, results[i])
			continue
		}

		pending++
		go d.invoke(dctx, i, id, h, intent.Params.Clone(), start, resultChannel)
	}

	d.join(ctx, dctx, ids, results, filled, pending, resultChannel, start)

	ok := len(results.OK())
	observability.Emit(ctx, d.observer, EventDispatchComplete, observability.LevelInfo, source, map[string]any{
		"count":      len(results),
		"ok":         ok,
		"failed":     len(results) - ok,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	return results
}

// join collects handler results until every pending handler has reported or
// the dispatch context ends. Unreported handlers are then recorded as timed
// out, or as errors when the caller cancelled.
func (d *Dispatcher) join(
	ctx, dctx context.Context,
	ids []protocol.Capability,
	results protocol.ResultSet,
	filled []bool,
	pending int,
	resultChannel <-chan indexedResult,
	start time.Time,
) {
	record := func(r indexedResult) {
		results[r.index] = r.result
		filled[r.index] = true
		d.emitComplete(ctx, r.result)
	}

wait:
	for received := 0; received < pending; received++ {
		select {
		case r := <-resultChannel:
			record(r)
		case <-dctx.Done():
			break wait
		}
	}

	// Keep results that landed alongside the deadline.
drain:
	for {
		select {
		case r := <-resultChannel:
			record(r)
		default:
			break drain
		}
	}

	for i, done := range filled {
		if done {
			continue
		}
		results[i] = straggler(ctx, ids[i], time.Since(start))
		d.emitComplete(ctx, results[i])
	}
}

func (d *Dispatcher) invoke(
	ctx context.Context,
	index int,
	id protocol.Capability,
	h capability.Handler,
	params protocol.Params,
	start time.Time,
	out chan<- indexedResult,
) {
	hctx := ctx
	if d.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.cfg.HandlerTimeout)
		defer cancel()
	}

	hctx, span := d.tracer.Start(hctx, "capability."+string(id),
		trace.WithAttributes(attribute.String("capability", string(id))),
	)
	defer span.End()

	observability.Emit(hctx, d.observer, EventHandlerStart, observability.LevelVerbose, source, map[string]any{
		"capability": string(id),
	})

	payload, err := safeInvoke(hctx, h, params)
	result := classify(hctx, id, payload, err, time.Since(start))

	if !result.OK() {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Detail)
	}
	span.SetAttributes(attribute.String("status", string(result.Status)))

	out <- indexedResult{index: index, result: result}
}

func safeInvoke(ctx context.Context, h capability.Handler, params protocol.Params) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Invoke(ctx, params)
}

func classify(ctx context.Context, id protocol.Capability, payload any, err error, elapsed time.Duration) protocol.HandlerResult {
	result := protocol.HandlerResult{Capability: id, Elapsed: elapsed}
	switch {
	case err == nil:
		result.Status = protocol.StatusOK
		result.Payload = payload
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Status = protocol.StatusTimeout
		result.Err = fmt.Errorf("%w: %w", ErrHandlerTimeout, err)
		result.Detail = err.Error()
	default:
		result.Status = protocol.StatusError
		result.Err = err
		result.Detail = err.Error()
	}
	return result
}

// straggler records a handler abandoned at the join deadline.
func straggler(ctx context.Context, id protocol.Capability, elapsed time.Duration) protocol.HandlerResult {
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return protocol.HandlerResult{
			Capability: id,
			Status:     protocol.StatusError,
			Detail:     "request cancelled",
			Elapsed:    elapsed,
			Err:        fmt.Errorf("%w: %w", ErrCancelled, err),
		}
	}
	return protocol.HandlerResult{
		Capability: id,
		Status:     protocol.StatusTimeout,
		Detail:     "no result within the time budget",
		Elapsed:    elapsed,
		Err:        fmt.Errorf("%w: %s", ErrHandlerTimeout, id),
	}
}

func (d *Dispatcher) emitComplete(ctx context.Context, r protocol.HandlerResult) {
	level := observability.LevelVerbose
	if !r.OK() {
		level = observability.LevelWarning
	}
	data := map[string]any{
		"capability": string(r.Capability),
		"status":     string(r.Status),
		"elapsed_ms": r.Elapsed.Milliseconds(),
	}
	if r.Detail != "" {
		data["detail"] = r.Detail
	}
	observability.Emit(ctx, d.observer, EventHandlerComplete, level, source, data)
}
