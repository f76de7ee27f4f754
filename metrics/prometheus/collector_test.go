package prometheus_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/statagg"
	statprom "github.com/hupe1980/statagg/metrics/prometheus"
	"github.com/hupe1980/statagg/model"
)

var _ statagg.MetricsCollector = (*statprom.Collector)(nil)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := statprom.New(reg)
	require.NoError(t, err)

	mc.RecordCollect(10, 4, time.Millisecond, nil)
	mc.RecordCollect(3, 0, time.Millisecond, errors.New("boom"))
	mc.RecordMerge(2, time.Millisecond, nil)

	n, err := promtest.GatherAndCount(reg, "statagg_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "collect/success, collect/error, merge/success")

	const want = `
# HELP statagg_documents_total Documents processed without error by segment collectors
# TYPE statagg_documents_total counter
statagg_documents_total{result="aggregated"} 9
statagg_documents_total{result="skipped"} 4
`
	assert.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(want), "statagg_documents_total"))

	_, err = statprom.New(reg)
	assert.Error(t, err, "instruments are registered once per registry")
}

func TestCollectorWithAggregator(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := statprom.New(reg)
	require.NoError(t, err)

	agg, err := statagg.New(&model.CollectorSpec{Mode: model.ModeData, Domain: model.DomainInteger, Level: model.LevelBasic},
		statagg.WithMetricsCollector(mc))
	require.NoError(t, err)

	c, err := agg.NewCollector(1, nil)
	require.NoError(t, err)
	require.NoError(t, c.AddValue(nil, model.Int(1), nil))

	merged, err := agg.Merge(t.Context(), c)
	require.NoError(t, err)
	_, err = statagg.GetResult(merged, nil)
	require.NoError(t, err)

	n, err := promtest.GatherAndCount(reg, "statagg_merge_partials", "statagg_result_entries")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
