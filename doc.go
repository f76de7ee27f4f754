// Package statagg provides typed, hierarchical statistical aggregation over
// documents spread across index segments.
//
// A collector computes per-group statistics (count, sum, extrema, variance,
// raw-value distribution) with arbitrarily nested sub-aggregations. Each
// segment populates its own collector; partials are merged into one result
// that is exactly what a single pass over all documents would produce.
//
// # Quick Start
//
//	spec := model.Chain(
//	    model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelAdvanced,
//	        Items: []model.StatItem{model.StatCount, model.StatMean, model.StatVariance},
//	        Sort:  &model.SortSpec{Item: model.StatCount, Direction: model.Desc, Number: model.Limit(10)}},
//	)
//	agg, _ := statagg.New(spec)
//
//	a, _ := agg.NewCollector(1, nil)
//	a.AddValue(model.StringKey("books").Ptr(), model.Float(12.5), nil)
//
//	b, _ := agg.NewCollector(2, nil)
//	b.AddValue(model.StringKey("books").Ptr(), model.Float(7.5), nil)
//
//	merged, _ := agg.Merge(ctx, a, b)
//	res, _ := statagg.GetResult(merged, nil)
//
// # Levels
//
// Every level of a spec fixes a mode, a numeric domain and a stats level:
//
//   - LevelBasic: count, sum, min, max
//   - LevelAdvanced: adds mean, variance, sample_variance, stddev (Welford)
//   - LevelFull: adds values, median, distinct from retained raw values
//
// Raw values at LevelFull are sealed into compressed blocks (LZ4 by default,
// see WithCompression) and charged to the resource controller. Set
// CollectorSpec.MaxValues to keep only the smallest N values instead.
//
// # Segments and Boundaries
//
// When segments overlap, the boundary package assigns each document to
// exactly one owning segment. Collectors skip documents outside their
// Boundary, so merged results count every document once:
//
//	asg := boundary.NewAssigner()
//	asg.Observe(1, 1, 2, 3)
//	asg.Observe(2, 3, 4, 5)
//	bounds, _ := asg.Boundaries(boundary.LowestSegment{})
//
// Aggregator.Run drives this end to end: it populates one collector per
// partition concurrently, tolerates failing or canceled sources and merges
// whatever completed.
//
// # Thread Safety
//
// Collectors are single-writer and NOT thread-safe. Aggregator, Merge and Run
// are safe for concurrent use as long as no collector is touched by two
// goroutines at once.
package statagg
