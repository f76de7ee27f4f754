// Package prometheus exports statagg operation metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, _ := statprom.New(reg)
//	agg, _ := statagg.New(spec, statagg.WithMetricsCollector(mc))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "statagg"

// Collector implements statagg.MetricsCollector with Prometheus instruments.
type Collector struct {
	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	docs      *prometheus.CounterVec
	partials  prometheus.Histogram
	entries   prometheus.Histogram
}

// New creates a Collector and registers its instruments with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of collect, merge and select operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total operations by kind and status",
		}, []string{"op", "status"}),
		docs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed without error by segment collectors",
		}, []string{"result"}),
		partials: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_partials",
			Help:      "Number of partials per merge",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		entries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_entries",
			Help:      "Number of result nodes per extraction",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	for _, m := range []prometheus.Collector{c.opLatency, c.ops, c.docs, c.partials, c.entries} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordCollect implements statagg.MetricsCollector.
func (c *Collector) RecordCollect(docs, skipped int, duration time.Duration, err error) {
	c.observe("collect", duration, err)
	c.docs.WithLabelValues("aggregated").Add(float64(docs - skipped))
	c.docs.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordMerge implements statagg.MetricsCollector.
func (c *Collector) RecordMerge(partials int, duration time.Duration, err error) {
	c.observe("merge", duration, err)
	c.partials.Observe(float64(partials))
}

// RecordSelect implements statagg.MetricsCollector.
func (c *Collector) RecordSelect(entries int, duration time.Duration, err error) {
	c.observe("select", duration, err)
	c.entries.Observe(float64(entries))
}
