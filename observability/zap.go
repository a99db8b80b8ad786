package observability

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapObserver emits events to a zap.Logger using the same field layout as
// SlogObserver.
type ZapObserver struct {
	logger *zap.Logger
}

// NewZapObserver creates a ZapObserver. A nil logger yields a no-op logger.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapObserver{logger: logger}
}

// ZapLevel maps an event level onto zap's levels.
func (l Level) ZapLevel() zapcore.Level {
	switch {
	case l <= 8:
		return zapcore.DebugLevel
	case l <= 12:
		return zapcore.InfoLevel
	case l <= 16:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func (o *ZapObserver) OnEvent(ctx context.Context, event Event) {
	ce := o.logger.Check(event.Level.ZapLevel(), string(event.Type))
	if ce == nil {
		return
	}

	scoped := Attrs(ctx)
	fields := make([]zap.Field, 0, len(scoped)+len(event.Data)+1)
	fields = append(fields, zap.String("source", event.Source))
	for _, k := range sortedKeys(scoped) {
		fields = append(fields, zap.Any(k, scoped[k]))
	}
	for _, k := range sortedKeys(event.Data) {
		fields = append(fields, zap.Any(k, event.Data[k]))
	}
	ce.Write(fields...)
}
