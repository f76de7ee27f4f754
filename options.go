package statagg

import (
	"log/slog"

	"github.com/hupe1980/statagg/internal/accum"
	"github.com/hupe1980/statagg/resource"
)

// Compression selects the codec used for sealed raw-value blocks at LevelFull.
type Compression = accum.Compression

const (
	// CompressionLZ4 indicates LZ4 block compression (fast, the default).
	CompressionLZ4 = accum.CompressionLZ4
	// CompressionZSTD indicates ZSTD block compression (better ratio).
	CompressionZSTD = accum.CompressionZSTD
	// CompressionNone stores sealed blocks uncompressed.
	CompressionNone = accum.CompressionNone
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	controller       *resource.Controller
	compression      Compression
	mergeWorkers     int
	strictBoundaries bool
}

// Option configures an Aggregator.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &statagg.BasicMetricsCollector{}
//	agg, _ := statagg.New(spec, statagg.WithMetricsCollector(metrics))
//	// ... collect and merge ...
//	stats := metrics.GetStats()
//	fmt.Printf("Merges: %d, Avg latency: %dns\n", stats.MergeCount, stats.MergeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := statagg.NewJSONLogger(slog.LevelInfo)
//	agg, _ := statagg.New(spec, statagg.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController shares a memory budget and worker slots across
// aggregators. Without one, memory is unlimited and Run uses one worker per partition.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithCompression selects the codec for sealed raw-value blocks (LevelFull only).
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMergeWorkers enables pairwise parallel merging with up to n concurrent
// merges. n <= 1 merges sequentially.
func WithMergeWorkers(n int) Option {
	return func(o *options) {
		o.mergeWorkers = n
	}
}

// WithStrictBoundaries makes Merge reject partials whose boundaries overlap.
// Overlap means a document could have been aggregated twice.
func WithStrictBoundaries() Option {
	return func(o *options) {
		o.strictBoundaries = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      CompressionLZ4,
		mergeWorkers:     1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
