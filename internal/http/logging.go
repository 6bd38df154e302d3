package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes the request logger to one handler operation and tags
// it with the reservation addressed by the path, if any. Without an upstream
// RequestLogger the fallback logger is used and the request id, when known,
// is attached directly.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := []any{"handler", handlerName, "operation", operation}

	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if id, ok := RequestIDFromContext(ctx); ok {
			pairs = append(pairs, "request_id", id)
		}
	}
	if id, ok := ReservationIDFromContext(ctx); ok && id != "" {
		pairs = append(pairs, "reservation_id", id)
	}
	return logger.With(append(pairs, attrs...)...)
}
