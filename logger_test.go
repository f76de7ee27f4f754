package statagg

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.WithSegment(7).LogCollect(t.Context(), 7, 10, 2, 3, nil)
	out := buf.String()
	assert.Contains(t, out, "collect completed")
	assert.Contains(t, out, "segment=7")
	assert.Contains(t, out, "skipped=2")

	buf.Reset()
	l.LogMerge(t.Context(), 3, 0, errors.New("boom"))
	assert.Contains(t, buf.String(), "merge failed")
}

func TestLoggerSamplesSegmentFailures(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, nil))
	l.failures.Interval = time.Hour

	for range 50 {
		l.WithSegment(1).LogSegmentFailed(t.Context(), 1, errors.New("unavailable"))
	}
	assert.Equal(t, 10, strings.Count(buf.String(), "segment dropped"))
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	l.LogRun(t.Context(), 1, 1, true)
	assert.False(t, l.Enabled(t.Context(), slog.LevelError))
}

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}
	m.RecordCollect(10, 2, 4*time.Millisecond, nil)
	m.RecordCollect(5, 0, 2*time.Millisecond, errors.New("x"))
	m.RecordMerge(3, time.Millisecond, nil)
	m.RecordSelect(12, time.Millisecond, nil)

	s := m.GetStats()
	assert.Equal(t, int64(2), s.CollectCount)
	assert.Equal(t, int64(1), s.CollectErrors)
	assert.Equal(t, int64(15), s.CollectDocs)
	assert.Equal(t, int64(2), s.CollectSkipped)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.CollectAvgNanos)
	assert.Equal(t, int64(3), s.MergePartials)
	assert.Equal(t, int64(12), s.SelectEntries)
}
