package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// instrumentationScope names the otelslog logger for exported records.
const instrumentationScope = "site-rag"

// NewWithOTel builds the server logger: JSON on stdout with trace and span ids,
// plus an OTLP export when enableOTel is set. LOG_LEVEL picks the level.
func NewWithOTel(enableOTel bool) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var handler slog.Handler
	if enableOTel {
		handler = NewMultiHandler(level)
	} else {
		handler = newStdoutHandler(os.Stdout, level)
	}

	log := slog.New(handler)
	log.Info("logger_initialized", slog.Bool("otel_enabled", enableOTel), slog.String("level", level.String()))
	return log
}

// NewJSON builds a stdout-style logger writing to w, used by the CLI tools.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(newStdoutHandler(w, level))
}

func newStdoutHandler(w io.Writer, level slog.Level) slog.Handler {
	return NewTraceContextHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// MultiHandler sends each record to every handler that accepts its level.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler fans records out to stdout JSON and the global OTel logger
// provider. Exported records carry trace context from the record's context.
func NewMultiHandler(level slog.Level) *MultiHandler {
	stdoutHandler := newStdoutHandler(os.Stdout, level)

	otelHandler := otelslog.NewHandler(
		instrumentationScope,
		otelslog.WithLoggerProvider(global.GetLoggerProvider()),
	)

	return &MultiHandler{
		handlers: []slog.Handler{
			stdoutHandler,
			otelHandler,
		},
	}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			_ = handler.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: newHandlers}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: newHandlers}
}
