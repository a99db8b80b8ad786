package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tailored-agentic-units/rxdesk/capability"
	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/dispatch"
	"github.com/tailored-agentic-units/rxdesk/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func reply(payload string) capability.Handler {
	return capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
		return payload, nil
	})
}

func fail(msg string) capability.Handler {
	return capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
		return nil, errors.New(msg)
	})
}

func blockUntilDone() capability.Handler {
	return capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func registry(t *testing.T, bindings map[protocol.Capability]capability.Handler) *capability.Registry {
	t.Helper()
	reg, err := capability.NewRegistry(bindings)
	require.NoError(t, err)
	return reg
}

func intentFor(ids ...protocol.Capability) protocol.Intent {
	return protocol.NewIntent(protocol.SourceAI, ids, protocol.Params{"sku": "MED001"}, "")
}

type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (c *captureObserver) OnEvent(_ context.Context, e observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureObserver) count(typ observability.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestConfig_Budget(t *testing.T) {
	cfg := dispatch.DefaultConfig()
	assert.Equal(t, 5*time.Second, cfg.Budget(1))
	assert.Equal(t, 10*time.Second, cfg.Budget(3))

	cfg.Merge(&dispatch.Config{SingleBudget: time.Second})
	assert.Equal(t, time.Second, cfg.SingleBudget)
	assert.Equal(t, 10*time.Second, cfg.MultiBudget)
}

func TestDispatch_ClarifyInvokesNothing(t *testing.T) {
	var calls atomic.Int32
	counting := capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
		calls.Add(1)
		return "x", nil
	})
	d := dispatch.New(registry(t, map[protocol.Capability]capability.Handler{protocol.CapabilityDemand: counting}), dispatch.Config{})

	tests := []struct {
		name   string
		intent protocol.Intent
	}{
		{name: "clarify intent", intent: protocol.ClarifyIntent(protocol.SourceFallback, "")},
		{name: "empty capabilities", intent: protocol.Intent{Shape: protocol.ShapeSingle}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := d.Dispatch(context.Background(), tt.intent)
			assert.NotNil(t, rs)
			assert.True(t, rs.Empty())
		})
	}
	assert.Zero(t, calls.Load())
}

func TestDispatch_FaultIsolation(t *testing.T) {
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilitySupplier: reply("supplier ok"),
		protocol.CapabilityCapital:  fail("ledger offline"),
		protocol.CapabilityPricing: capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
			panic("boom")
		}),
		protocol.CapabilityDemand: reply("demand ok"),
	})
	d := dispatch.New(reg, dispatch.Config{})

	rs := d.Dispatch(context.Background(), intentFor(
		protocol.CapabilitySupplier, protocol.CapabilityCapital, protocol.CapabilityPricing, protocol.CapabilityDemand,
	))

	require.Len(t, rs, 4)
	assert.Equal(t, protocol.StatusOK, rs[0].Status)
	assert.Equal(t, "supplier ok", rs[0].Payload)

	assert.Equal(t, protocol.StatusError, rs[1].Status)
	assert.Equal(t, "ledger offline", rs[1].Detail)

	assert.Equal(t, protocol.StatusError, rs[2].Status)
	assert.ErrorIs(t, rs[2].Err, dispatch.ErrHandlerPanic)

	assert.Equal(t, protocol.StatusOK, rs[3].Status)
	assert.False(t, rs.AllFailed())
}

func TestDispatch_UnknownAndUnboundAreUnavailable(t *testing.T) {
	var calls atomic.Int32
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilityDemand: capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
			calls.Add(1)
			return "ok", nil
		}),
	})
	d := dispatch.New(reg, dispatch.Config{})

	rs := d.Dispatch(context.Background(), intentFor("weather", protocol.CapabilityDemand, protocol.CapabilityCompliance))

	require.Len(t, rs, 3)
	assert.Equal(t, protocol.Capability("weather"), rs[0].Capability)
	assert.Equal(t, protocol.StatusUnavailable, rs[0].Status)
	assert.ErrorIs(t, rs[0].Err, capability.ErrUnavailable)
	assert.Equal(t, protocol.StatusOK, rs[1].Status)
	assert.Equal(t, protocol.StatusUnavailable, rs[2].Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatch_AllFailedIsNotAnError(t *testing.T) {
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilitySupplier: fail("a"),
		protocol.CapabilityCapital:  fail("b"),
	})
	rs := dispatch.New(reg, dispatch.Config{}).Dispatch(context.Background(), intentFor(protocol.CapabilitySupplier, protocol.CapabilityCapital))

	assert.True(t, rs.AllFailed())
	assert.Equal(t, []protocol.Capability{protocol.CapabilitySupplier, protocol.CapabilityCapital}, rs.Capabilities())
}

func TestDispatch_StragglerTimesOut(t *testing.T) {
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilitySupplier: reply("supplier ok"),
		protocol.CapabilityCapital:  blockUntilDone(),
		protocol.CapabilityPricing: capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
			// Ignores its context; the dispatcher must not wait for it.
			time.Sleep(150 * time.Millisecond)
			return "late", nil
		}),
	})
	d := dispatch.New(reg, dispatch.Config{MultiBudget: 50 * time.Millisecond})

	start := time.Now()
	rs := d.Dispatch(context.Background(), intentFor(
		protocol.CapabilitySupplier, protocol.CapabilityCapital, protocol.CapabilityPricing,
	))
	elapsed := time.Since(start)

	require.Len(t, rs, 3)
	assert.Less(t, elapsed, 140*time.Millisecond, "join must stop at the budget")
	assert.Equal(t, protocol.StatusOK, rs[0].Status)
	assert.Equal(t, protocol.StatusTimeout, rs[1].Status)
	assert.Equal(t, protocol.StatusTimeout, rs[2].Status)
	assert.ErrorIs(t, rs[2].Err, dispatch.ErrHandlerTimeout)
	assert.Equal(t, protocol.CapabilityPricing, rs[2].Capability)

	// Let the abandoned handler finish before the leak check.
	time.Sleep(150 * time.Millisecond)
}

func TestDispatch_HandlerTimeoutCap(t *testing.T) {
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilityDemand: blockUntilDone(),
	})
	d := dispatch.New(reg, dispatch.Config{HandlerTimeout: 20 * time.Millisecond})

	rs := d.Dispatch(context.Background(), intentFor(protocol.CapabilityDemand))

	require.Len(t, rs, 1)
	assert.Equal(t, protocol.StatusTimeout, rs[0].Status)
	assert.ErrorIs(t, rs[0].Err, context.DeadlineExceeded)
}

func TestDispatch_ParentCancellation(t *testing.T) {
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilityDemand: capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			return nil, ctx.Err()
		}),
	})
	d := dispatch.New(reg, dispatch.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	rs := d.Dispatch(ctx, intentFor(protocol.CapabilityDemand))

	require.Len(t, rs, 1)
	assert.Equal(t, protocol.StatusError, rs[0].Status)
	assert.ErrorIs(t, rs[0].Err, dispatch.ErrCancelled)
	time.Sleep(30 * time.Millisecond)
}

func TestDispatch_RunsConcurrently(t *testing.T) {
	slow := capability.HandlerFunc(func(ctx context.Context, _ protocol.Params) (any, error) {
		time.Sleep(60 * time.Millisecond)
		return "done", nil
	})
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilitySupplier: slow,
		protocol.CapabilityCapital:  slow,
		protocol.CapabilityPricing:  slow,
	})

	start := time.Now()
	rs := dispatch.New(reg, dispatch.Config{}).Dispatch(context.Background(), intentFor(
		protocol.CapabilitySupplier, protocol.CapabilityCapital, protocol.CapabilityPricing,
	))

	assert.Len(t, rs.OK(), 3)
	assert.Less(t, time.Since(start), 170*time.Millisecond)
}

func TestDispatch_ParamsAreIsolated(t *testing.T) {
	mutate := capability.HandlerFunc(func(ctx context.Context, p protocol.Params) (any, error) {
		p["sku"] = "MUTATED"
		return "ok", nil
	})
	reg := registry(t, map[protocol.Capability]capability.Handler{protocol.CapabilityDemand: mutate})

	intent := intentFor(protocol.CapabilityDemand)
	dispatch.New(reg, dispatch.Config{}).Dispatch(context.Background(), intent)

	assert.Equal(t, "MED001", intent.Params["sku"])
}

func TestDispatch_Events(t *testing.T) {
	obs := &captureObserver{}
	reg := registry(t, map[protocol.Capability]capability.Handler{
		protocol.CapabilitySupplier: reply("ok"),
		protocol.CapabilityCapital:  fail("x"),
	})
	d := dispatch.New(reg, dispatch.Config{}, dispatch.WithObserver(obs))

	d.Dispatch(context.Background(), intentFor(protocol.CapabilitySupplier, protocol.CapabilityCapital, "weather"))

	assert.Equal(t, 1, obs.count(dispatch.EventDispatchStart))
	assert.Equal(t, 2, obs.count(dispatch.EventHandlerStart))
	assert.Equal(t, 3, obs.count(dispatch.EventHandlerComplete))
	assert.Equal(t, 1, obs.count(dispatch.EventDispatchComplete))
}

func TestDispatch_OrderProperty(t *testing.T) {
	ids := protocol.Capabilities()
	bindings := make(map[protocol.Capability]capability.Handler, len(ids))
	for _, id := range ids {
		bindings[id] = capability.HandlerFunc(func(ctx context.Context, p protocol.Params) (any, error) {
			ms, _ := p[string(id)].(int64)
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return string(id), nil
		})
	}
	d := dispatch.New(registry(t, bindings), dispatch.Config{})

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("results follow intent order regardless of completion order", prop.ForAll(
		func(delays []int, count int) bool {
			delays = delays[:min(count, len(delays))]
			if len(delays) == 0 {
				return true
			}
			params := protocol.Params{}
			for i, ms := range delays {
				params[string(ids[i])] = int64(ms)
			}
			intent := protocol.NewIntent(protocol.SourceAI, ids[:len(delays)], params, "")
			rs := d.Dispatch(context.Background(), intent)
			if len(rs) != len(delays) {
				return false
			}
			for i, r := range rs {
				if r.Capability != ids[i] || r.Payload != string(ids[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(len(ids), gen.IntRange(0, 5)),
		gen.IntRange(1, len(ids)),
	))

	properties.TestingRun(t)
}
