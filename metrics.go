package statagg

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see the metrics/prometheus package for a ready-made implementation.
type MetricsCollector interface {
	// RecordCollect is called after a segment collector was populated by Run.
	// docs is the number of documents processed without error, skipped the
	// number of those outside the segment's boundary.
	RecordCollect(docs, skipped int, duration time.Duration, err error)

	// RecordMerge is called after each merge. partials is the number of inputs.
	RecordMerge(partials int, duration time.Duration, err error)

	// RecordSelect is called after each result extraction. entries is the
	// number of result nodes produced.
	RecordSelect(entries int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCollect(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMerge(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordSelect(int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CollectCount      atomic.Int64
	CollectErrors     atomic.Int64
	CollectDocs       atomic.Int64
	CollectSkipped    atomic.Int64
	CollectTotalNanos atomic.Int64
	MergeCount        atomic.Int64
	MergeErrors       atomic.Int64
	MergePartials     atomic.Int64
	MergeTotalNanos   atomic.Int64
	SelectCount       atomic.Int64
	SelectErrors      atomic.Int64
	SelectEntries     atomic.Int64
}

// RecordCollect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCollect(docs, skipped int, duration time.Duration, err error) {
	b.CollectCount.Add(1)
	b.CollectDocs.Add(int64(docs))
	b.CollectSkipped.Add(int64(skipped))
	b.CollectTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CollectErrors.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(partials int, duration time.Duration, err error) {
	b.MergeCount.Add(1)
	b.MergePartials.Add(int64(partials))
	b.MergeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(entries int, duration time.Duration, err error) {
	b.SelectCount.Add(1)
	b.SelectEntries.Add(int64(entries))
	if err != nil {
		b.SelectErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CollectCount:    b.CollectCount.Load(),
		CollectErrors:   b.CollectErrors.Load(),
		CollectDocs:     b.CollectDocs.Load(),
		CollectSkipped:  b.CollectSkipped.Load(),
		CollectAvgNanos: avgNanos(b.CollectTotalNanos.Load(), b.CollectCount.Load()),
		MergeCount:      b.MergeCount.Load(),
		MergeErrors:     b.MergeErrors.Load(),
		MergePartials:   b.MergePartials.Load(),
		MergeAvgNanos:   avgNanos(b.MergeTotalNanos.Load(), b.MergeCount.Load()),
		SelectCount:     b.SelectCount.Load(),
		SelectErrors:    b.SelectErrors.Load(),
		SelectEntries:   b.SelectEntries.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CollectCount    int64
	CollectErrors   int64
	CollectDocs     int64
	CollectSkipped  int64
	CollectAvgNanos int64
	MergeCount      int64
	MergeErrors     int64
	MergePartials   int64
	MergeAvgNanos   int64
	SelectCount     int64
	SelectErrors    int64
	SelectEntries   int64
}
