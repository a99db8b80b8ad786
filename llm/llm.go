// Package llm defines the text-completion seam used by the classifier and
// the summarizer, and builds provider-backed completers from configuration.
package llm

import (
	"context"
	"errors"
)

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Sentinel errors for completer construction.
var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrNoAPIKey        = errors.New("no api key configured")
)
