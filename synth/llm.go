package synth

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/llm"
)

//go:embed summarize.tmpl
var summarizeTemplate string

var summarizePrompt = template.Must(template.New("summarize").Funcs(template.FuncMap{
	"upper": func(c protocol.Capability) string { return strings.ToUpper(string(c)) },
}).Parse(summarizeTemplate))

// LLMSummarizer asks a language model to merge findings into one answer.
type LLMSummarizer struct {
	completer llm.Completer
}

// NewLLMSummarizer wraps a Completer as a Summarizer.
func NewLLMSummarizer(c llm.Completer) *LLMSummarizer {
	return &LLMSummarizer{completer: c}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, question string, findings []Finding) (string, error) {
	if s.completer == nil {
		return "", ErrSummarizerFailed
	}
	prompt, err := SummaryPrompt(question, findings)
	if err != nil {
		return "", err
	}
	return s.completer.Complete(ctx, prompt)
}

// SummaryPrompt renders the synthesis prompt for question and findings.
func SummaryPrompt(question string, findings []Finding) (string, error) {
	consulted := make([]protocol.Capability, len(findings))
	for i, f := range findings {
		consulted[i] = f.Capability
	}

	var b strings.Builder
	err := summarizePrompt.Execute(&b, struct {
		Question  string
		Consulted string
		Findings  []Finding
	}{question, protocol.JoinCapabilities(consulted), findings})
	if err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}
	return b.String(), nil
}
