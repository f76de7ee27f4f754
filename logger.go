package statagg

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/statagg/model"
)

// Logger wraps slog.Logger with statagg-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger

	// failures samples segment failure warnings; a bad source can fail
	// every segment of every query.
	failures *rate.Sometimes
}

func newSampler() *rate.Sometimes {
	return &rate.Sometimes{First: 10, Interval: time.Second}
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger:   slog.New(handler),
		failures: newSampler(),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger:   l.Logger.With(args...),
		failures: l.failures,
	}
}

// WithSegment adds a segment field to the logger.
func (l *Logger) WithSegment(id model.SegmentID) *Logger {
	return l.with("segment", id.String())
}

// LogCollect logs the population of one segment collector.
func (l *Logger) LogCollect(ctx context.Context, segment model.SegmentID, docs, skipped, keys int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "collect failed",
			"segment", segment.String(),
			"docs", docs,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "collect completed",
			"segment", segment.String(),
			"docs", docs,
			"skipped", skipped,
			"keys", keys,
		)
	}
}

// LogMerge logs a merge of partials.
func (l *Logger) LogMerge(ctx context.Context, partials, keys int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"partials", partials,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "merge completed",
			"partials", partials,
			"keys", keys,
		)
	}
}

// LogSegmentFailed logs a segment dropped from a run. Warnings are sampled.
func (l *Logger) LogSegmentFailed(ctx context.Context, segment model.SegmentID, err error) {
	l.failures.Do(func() {
		l.WarnContext(ctx, "segment dropped from aggregation",
			"segment", segment.String(),
			"error", err,
		)
	})
}

// LogRun logs the outcome of a run over several segments.
func (l *Logger) LogRun(ctx context.Context, completed, failed int, canceled bool) {
	if failed > 0 || canceled {
		l.WarnContext(ctx, "run completed with missing segments",
			"completed", completed,
			"failed", failed,
			"canceled", canceled,
		)
	} else {
		l.InfoContext(ctx, "run completed",
			"completed", completed,
		)
	}
}
