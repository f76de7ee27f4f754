package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/statagg"
	"github.com/hupe1980/statagg/model"
	"github.com/hupe1980/statagg/testutil"
)

// Zipf-skewed documents over a few hundred keys, the common facet shape.
const (
	benchDocs = 50_000
	benchKeys = 200
	benchSkew = 1.1
)

func benchAggregator(b *testing.B, level model.Level, sort *model.SortSpec, opts ...statagg.Option) *statagg.Aggregator {
	b.Helper()
	agg, err := statagg.New(&model.CollectorSpec{
		Mode: model.ModeList, Domain: model.DomainFloating, Level: level, Sort: sort,
	}, opts...)
	if err != nil {
		b.Fatal(err)
	}
	return agg
}

func BenchmarkCollect(b *testing.B) {
	docs := testutil.NewRNG(1).Documents(benchDocs, benchKeys, benchSkew)

	for _, level := range []model.Level{model.LevelBasic, model.LevelAdvanced, model.LevelFull} {
		b.Run(level.String(), func(b *testing.B) {
			agg := benchAggregator(b, level, nil)
			b.ReportAllocs()
			for b.Loop() {
				c, err := agg.NewCollector(1, nil)
				if err != nil {
					b.Fatal(err)
				}
				for _, d := range docs {
					if _, err := c.Collect(d); err != nil {
						b.Fatal(err)
					}
				}
				_ = c.Close()
			}
			b.ReportMetric(float64(benchDocs), "docs/op")
		})
	}
}

func BenchmarkMerge(b *testing.B) {
	rng := testutil.NewRNG(2)
	docs := rng.Documents(benchDocs, benchKeys, benchSkew)

	for _, segments := range []int{4, 16, 64} {
		ranges := rng.Partition(len(docs), segments)
		for _, workers := range []int{1, 4} {
			b.Run(fmt.Sprintf("segments=%d/workers=%d", segments, workers), func(b *testing.B) {
				agg := benchAggregator(b, model.LevelAdvanced, nil, statagg.WithMergeWorkers(workers))
				b.ReportAllocs()
				for b.Loop() {
					b.StopTimer()
					parts := make([]statagg.Collector, len(ranges))
					for i, r := range ranges {
						parts[i], _ = agg.NewCollector(model.SegmentID(i), nil)
						for _, j := range r {
							_, _ = parts[i].Collect(docs[j])
						}
					}
					b.StartTimer()

					if _, err := agg.Merge(b.Context(), parts...); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkTopK(b *testing.B) {
	rng := testutil.NewRNG(3)
	docs := make([]model.Document, benchDocs)
	for i := range docs {
		docs[i] = model.Document{ID: uint32(i), Key: testutil.Key(rng.Intn(20_000)).Ptr(), Value: model.Float(rng.Float64())}
	}

	for _, k := range []int{10, 100, 10_000} {
		b.Run(fmt.Sprintf("k=%d", k), func(b *testing.B) {
			agg := benchAggregator(b, model.LevelBasic,
				&model.SortSpec{Item: model.StatCount, Direction: model.Desc, Number: model.Limit(k)})
			c, _ := agg.NewCollector(1, nil)
			for _, d := range docs {
				_, _ = c.Collect(d)
			}
			b.ReportAllocs()
			for b.Loop() {
				if _, err := statagg.GetResult(c, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
