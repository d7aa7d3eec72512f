// Package logger provides structured logging for batch runs.
//
// It extends log/slog with context-based attribute injection and optional
// Sentry error reporting. Every mail-merge invocation carries a run ID in its
// context; the extractor attaches it to each record so ledger entries, send
// failures and summary lines from one batch can be correlated.
//
// Basic usage:
//
//	ctx := logger.WithRunID(context.Background())
//	log := logger.New(logger.RunIDExtractor)
//	log.InfoContext(ctx, "batch started", slog.Int("recipients", 42))
//	// Output: {"level":"INFO","msg":"batch started","recipients":42,"run_id":"..."}
//
// For production error tracking, use NewWithSentry. If the DSN is empty or
// Sentry initialization fails, the logger falls back to stdout-only output,
// so the same code path is safe in development.
package logger
