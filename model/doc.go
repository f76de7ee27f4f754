// Package model defines the core types shared by statagg's collectors.
//
// # Identity Types
//
//   - GroupKey: identifier of one aggregation bucket (integer or string)
//   - SegmentID: identifier of the index segment a partial was computed on
//
// # Configuration Types
//
//   - Mode, Domain, Level: the three axes resolved by the collector factory
//   - StatItem: a named statistic (count, sum, mean, ...)
//   - SortSpec: sort item, direction and result window for one nesting level
//   - CollectorSpec: one node per nesting level, linked through Sub
//
// # Data Types
//
//   - Value: a tagged integer or floating number
//   - Entry: a nested value forwarded to a child collector
//   - Document: one visited document as supplied by the traversal layer
//   - StatValue: an extracted statistic, possibly the NoData sentinel
//   - Result: the ordered result tree handed to formatting layers
//
// Build nested specs with Chain:
//
//	spec := model.Chain(
//	    model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelAdvanced,
//	        Items: []model.StatItem{model.StatCount, model.StatMean},
//	        Sort:  &model.SortSpec{Item: model.StatCount, Direction: model.Desc, Number: model.Limit(10)}},
//	    model.CollectorSpec{Mode: model.ModeList, Domain: model.DomainFloating, Level: model.LevelBasic,
//	        Items: []model.StatItem{model.StatSum}},
//	)
package model
