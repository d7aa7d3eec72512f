package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type runIDKey struct{}

// WithRunID returns a context carrying a fresh batch run ID.
func WithRunID(ctx context.Context) context.Context {
	return context.WithValue(ctx, runIDKey{}, uuid.NewString())
}

// RunID returns the run ID stored in ctx, or "" if none is set.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// RunIDExtractor injects the batch run ID into every log record whose
// context carries one.
func RunIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := RunID(ctx); id != "" {
		return slog.String("run_id", id), true
	}
	return slog.Attr{}, false
}
