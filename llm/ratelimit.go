package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type limitedCompleter struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit spaces calls to next so that at most perMinute prompts are
// sent per minute. Callers block until capacity is available or their
// context ends. A non-positive perMinute returns next unchanged.
func WithRateLimit(next Completer, perMinute int) Completer {
	if next == nil || perMinute <= 0 {
		return next
	}
	return &limitedCompleter{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (c *limitedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, prompt)
}
