package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Request-scoped keys, logged with a "rag." prefix
	RequestIDKey       ContextKey = "rag.request.id"
	ProcessingStageKey ContextKey = "rag.processing.stage"
)

// FromContext returns base enriched with the request id and processing stage
// found in ctx, if any.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	var fields []any

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		fields = append(fields, string(RequestIDKey), requestID)
	}
	if stage := ctx.Value(ProcessingStageKey); stage != nil {
		fields = append(fields, string(ProcessingStageKey), stage)
	}

	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// WithRequestID adds the request id to context for observability
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithProcessingStage adds the pipeline stage to context for observability
func WithProcessingStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ProcessingStageKey, stage)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
