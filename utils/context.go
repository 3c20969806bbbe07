package utils

import (
	"context"
	"log/slog"
)

type ContextKey int

const (
	ContextKeyLogger ContextKey = iota
)

func StoreLoggerInContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ContextKeyLogger, logger)
}

// LoggerFromContext returns the logger stored in the context, or a default
// text logger so that callers never have to nil-check.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger, found := ctx.Value(ContextKeyLogger).(*slog.Logger)
	if !found {
		return NewLogger("text")
	}
	return logger
}
