// Package intent decides which capabilities a question needs.
//
// Resolution is two-tier. A Classifier (normally an LLM) is asked first and
// its line-oriented answer is parsed into an Intent. When the classifier is
// unavailable, slow, or answers in a form that cannot be parsed, a
// deterministic keyword table decides instead. Resolution therefore never
// fails: the worst outcome is a clarify intent.
package intent

import (
	"context"
	"time"
)

// Defaults for classification context.
const (
	ContextTurns      = 3
	SummaryLength     = 200
	ClassifierTimeout = 10 * time.Second
)

// Turn is one prior exchange as seen by the classifier.
type Turn struct {
	Question      string
	AnswerSummary string
}

// ClassifyRequest is the classifier's input: the new question plus a short
// summary of recent turns used to resolve references.
type ClassifyRequest struct {
	Question string
	History  []Turn
}

// Classifier returns routing text in the AGENTS/PARAMETERS/TYPE/REASONING
// line format.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, req ClassifyRequest) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, req ClassifyRequest) (string, error) {
	return f(ctx, req)
}
