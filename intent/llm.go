package intent

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/llm"
)

//go:embed route.tmpl
var routeTemplate string

var routePrompt = template.Must(template.New("route").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(routeTemplate))

// LLMClassifier asks a language model to route questions.
type LLMClassifier struct {
	completer llm.Completer
}

// NewLLMClassifier wraps a Completer as a Classifier.
func NewLLMClassifier(c llm.Completer) *LLMClassifier {
	return &LLMClassifier{completer: c}
}

func (c *LLMClassifier) Classify(ctx context.Context, req ClassifyRequest) (string, error) {
	if c.completer == nil {
		return "", ErrClassifierUnavailable
	}
	prompt, err := RoutingPrompt(req)
	if err != nil {
		return "", err
	}
	return c.completer.Complete(ctx, prompt)
}

// RoutingPrompt renders the classification prompt for req.
func RoutingPrompt(req ClassifyRequest) (string, error) {
	var b strings.Builder
	err := routePrompt.Execute(&b, struct {
		ClassifyRequest
		Capabilities []protocol.Capability
	}{req, protocol.Capabilities()})
	if err != nil {
		return "", fmt.Errorf("render routing prompt: %w", err)
	}
	return b.String(), nil
}
