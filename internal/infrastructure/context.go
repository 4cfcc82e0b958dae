package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateRunID creates a new unique run ID using UUID v4
func GenerateRunID() string {
	return uuid.New().String()
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if runID, ok := ctx.Value(RunIDContextKey).(string); ok {
		return runID
	}
	return ""
}

// EnsureRunID ensures the context has a run ID, generating one if needed
func EnsureRunID(ctx context.Context) context.Context {
	if GetRunID(ctx) == "" {
		return WithRunID(ctx, GenerateRunID())
	}
	return ctx
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With("component", component)
}
