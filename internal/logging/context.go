package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

type contextKey int

const (
	tickIDKey contextKey = iota
)

// GenerateRequestID creates a new 16 character hex id.
// The scheduler uses it to tag each pass.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// WithTickID returns a new context carrying the given tick id.
func WithTickID(ctx context.Context, tickID string) context.Context {
	return context.WithValue(ctx, tickIDKey, tickID)
}

// TickIDFromContext extracts the tick id from the context.
func TickIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(tickIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns the default logger with the context's tick id attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := Logger()
	if id := TickIDFromContext(ctx); id != "" {
		logger = logger.With(KeyTickID, id)
	}
	return logger
}

// ContextLogger binds a logger to a context so call sites do not repeat it.
type ContextLogger struct {
	ctx    context.Context
	logger *slog.Logger
}

// FromContext creates a ContextLogger from a context using the default logger.
func FromContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: LoggerFromContext(ctx),
	}
}

// Bind creates a ContextLogger from an explicit base logger.
func Bind(ctx context.Context, base *slog.Logger) *ContextLogger {
	if base == nil {
		return FromContext(ctx)
	}
	if id := TickIDFromContext(ctx); id != "" {
		base = base.With(KeyTickID, id)
	}
	return &ContextLogger{ctx: ctx, logger: base}
}

// With returns a new ContextLogger with additional attributes.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		ctx:    cl.ctx,
		logger: cl.logger.With(args...),
	}
}

// Info logs at INFO level.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Debug logs at DEBUG level.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Warn logs at WARN level.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs at ERROR level.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// TickID returns the tick id from the logger's context.
func (cl *ContextLogger) TickID() string {
	return TickIDFromContext(cl.ctx)
}
