package observability

import (
	"fmt"
	"log/slog"
)

// New resolves an observer by configuration name. Recognized names are
// "noop", "slog" (the given logger, or slog.Default) and "trace". An empty
// name selects "slog".
func New(name string, logger *slog.Logger) (Observer, error) {
	switch name {
	case "", "slog":
		return NewSlogObserver(logger), nil
	case "noop":
		return NoOpObserver{}, nil
	case "trace":
		return TraceObserver{}, nil
	default:
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
}
