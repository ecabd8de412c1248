package logging

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// TraceIDKey is the context key for trace IDs
type TraceIDKey struct{}

// GenerateTraceID returns a 32-char hex trace ID
func GenerateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey{}, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// TraceableContext returns ctx carrying a trace ID, reusing an existing one.
func TraceableContext(parent context.Context) context.Context {
	if GetTraceID(parent) != "" {
		return parent
	}
	return WithTraceID(parent, GenerateTraceID())
}
