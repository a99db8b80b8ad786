package intent_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/intent"
	"github.com/tailored-agentic-units/rxdesk/llm"
	"github.com/tailored-agentic-units/rxdesk/observability"
)

type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (c *captureObserver) OnEvent(_ context.Context, e observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureObserver) types() []observability.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]observability.EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func fixed(text string) intent.Classifier {
	return intent.ClassifierFunc(func(ctx context.Context, req intent.ClassifyRequest) (string, error) {
		return text, nil
	})
}

func newResolver(t *testing.T, c intent.Classifier, cfg intent.Config, opts ...intent.Option) *intent.Resolver {
	t.Helper()
	r, err := intent.NewResolver(c, cfg, opts...)
	require.NoError(t, err)
	return r
}

func history(n int) []protocol.Exchange {
	out := make([]protocol.Exchange, n)
	for i := range out {
		out[i] = protocol.Exchange{
			Question: "q" + string(rune('0'+i)),
			Answer:   strings.Repeat("a", 300),
		}
	}
	return out
}

func TestResolver_ClassifierSuccess(t *testing.T) {
	obs := &captureObserver{}
	r := newResolver(t, fixed("AGENTS: demand\nPARAMETERS: sku=MED001\nTYPE: single"), intent.Config{}, intent.WithObserver(obs))

	got := r.Resolve(context.Background(), "What will be demand for Paracetamol?", nil)

	assert.Equal(t, protocol.SourceAI, got.Source)
	assert.Equal(t, []protocol.Capability{protocol.CapabilityDemand}, got.Capabilities)
	assert.Equal(t, "MED001", got.Params["sku"])
	assert.Contains(t, obs.types(), intent.EventClassified)
}

func TestResolver_FallbackPaths(t *testing.T) {
	question := "Forecast demand for MED003"

	tests := []struct {
		name       string
		classifier intent.Classifier
	}{
		{name: "nil classifier", classifier: nil},
		{name: "classifier error", classifier: intent.ClassifierFunc(func(ctx context.Context, req intent.ClassifyRequest) (string, error) {
			return "", errors.New("quota exhausted")
		})},
		{name: "unparsable text", classifier: fixed("sorry, I cannot help with that")},
		{name: "malformed parameters", classifier: fixed("AGENTS: demand\nPARAMETERS: sku")},
		{name: "classifier panics", classifier: intent.ClassifierFunc(func(ctx context.Context, req intent.ClassifyRequest) (string, error) {
			panic("bad state")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &captureObserver{}
			r := newResolver(t, tt.classifier, intent.Config{}, intent.WithObserver(obs))

			got := r.Resolve(context.Background(), question, nil)

			assert.Equal(t, protocol.SourceFallback, got.Source)
			assert.Equal(t, []protocol.Capability{protocol.CapabilityDemand}, got.Capabilities)
			assert.Equal(t, "MED003", got.Params["sku"])
			assert.Contains(t, obs.types(), intent.EventFallback)
		})
	}
}

func TestResolver_ClassifierTimeout(t *testing.T) {
	slow := intent.ClassifierFunc(func(ctx context.Context, req intent.ClassifyRequest) (string, error) {
		// Ignores its context on purpose.
		time.Sleep(200 * time.Millisecond)
		return "AGENTS: pricing", nil
	})
	r := newResolver(t, slow, intent.Config{ClassifierTimeout: 20 * time.Millisecond})

	start := time.Now()
	got := r.Resolve(context.Background(), "Which supplier is best?", nil)

	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, protocol.SourceFallback, got.Source)
	assert.Equal(t, []protocol.Capability{protocol.CapabilitySupplier}, got.Capabilities)
}

func TestResolver_NoKeywordClarifies(t *testing.T) {
	obs := &captureObserver{}
	r := newResolver(t, fixed("garbage"), intent.Config{}, intent.WithObserver(obs))

	got := r.Resolve(context.Background(), "What should I do?", nil)

	assert.True(t, got.NeedsClarification())
	assert.Equal(t, protocol.ShapeClarify, got.Shape)
	assert.Contains(t, obs.types(), intent.EventClarify)
}

func TestResolver_RequestHistory(t *testing.T) {
	var seen intent.ClassifyRequest
	capture := intent.ClassifierFunc(func(ctx context.Context, req intent.ClassifyRequest) (string, error) {
		seen = req
		return "AGENTS: supplier", nil
	})
	r := newResolver(t, capture, intent.Config{})

	r.Resolve(context.Background(), "What about its supplier?", history(5))

	require.Len(t, seen.History, intent.ContextTurns)
	assert.Equal(t, "q2", seen.History[0].Question)
	assert.Equal(t, "q4", seen.History[2].Question)
	assert.Equal(t, strings.Repeat("a", intent.SummaryLength)+"...", seen.History[0].AnswerSummary)
	assert.Equal(t, "What about its supplier?", seen.Question)
}

func TestResolver_KeywordTableOverride(t *testing.T) {
	table, err := intent.ParseKeywordTable([]byte("rules:\n  - capability: customer\n    keywords: [shopper]\n"))
	require.NoError(t, err)
	r := newResolver(t, nil, intent.Config{}, intent.WithKeywordTable(table))

	got := r.Resolve(context.Background(), "Who is our best shopper?", nil)
	assert.Equal(t, []protocol.Capability{protocol.CapabilityCustomer}, got.Capabilities)
}

func TestNewResolver_BadKeywordsFile(t *testing.T) {
	_, err := intent.NewResolver(nil, intent.Config{KeywordsFile: "/does/not/exist.yaml"})
	assert.Error(t, err)
}

func TestLLMClassifier_Prompt(t *testing.T) {
	var prompt string
	c := intent.NewLLMClassifier(llm.CompleterFunc(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "AGENTS: demand", nil
	}))

	out, err := c.Classify(context.Background(), intent.ClassifyRequest{
		Question: "And next month?",
		History:  []intent.Turn{{Question: "Forecast MED001", AnswerSummary: "About 40 units"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "AGENTS: demand", out)

	for _, want := range []string{
		`Current question: "And next month?"`,
		"User: Forecast MED001",
		"Answer: About 40 units",
		"1. demand - ",
		"10. customer - ",
		"AGENTS: agent1, agent2, agent3",
	} {
		assert.Contains(t, prompt, want)
	}

	_, err = intent.NewLLMClassifier(nil).Classify(context.Background(), intent.ClassifyRequest{})
	assert.ErrorIs(t, err, intent.ErrClassifierUnavailable)
}
