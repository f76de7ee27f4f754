package statagg

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/statagg/boundary"
	"github.com/hupe1980/statagg/internal/merge"
	"github.com/hupe1980/statagg/internal/tree"
	"github.com/hupe1980/statagg/model"
)

// Merge combines segment partials into one collector using the options of
// the first non-nil partial's Aggregator. See Aggregator.Merge.
func Merge(ctx context.Context, partials ...Collector) (Collector, error) {
	for _, p := range partials {
		if p != nil {
			return p.unwrap().agg.Merge(ctx, partials...)
		}
	}
	return nil, ErrNoPartials
}

// Merge combines segment partials into one collector tagged
// model.MergedSegmentID whose boundary is the union of the inputs.
//
// Every partial must have the same shape as the Aggregator's spec and share
// its resource controller. Partials are consumed: using them afterwards
// returns ErrPartialConsumed. Nil partials are skipped; with none left the
// result is an empty collector. Merge must not run concurrently with
// population of the partials.
func (a *Aggregator) Merge(ctx context.Context, partials ...Collector) (Collector, error) {
	start := time.Now()
	out, n, err := a.merge(ctx, partials)
	a.opts.metricsCollector.RecordMerge(n, time.Since(start), err)

	keys := 0
	if out != nil {
		keys = out.Size()
	}
	a.opts.logger.LogMerge(ctx, n, keys, err)
	return out, err
}

func (a *Aggregator) merge(ctx context.Context, partials []Collector) (Collector, int, error) {
	cs := make([]*collector, 0, len(partials))
	for _, p := range partials {
		if p == nil {
			continue
		}
		c := p.unwrap()
		switch {
		case c.consumed:
			return nil, len(partials), ErrPartialConsumed
		case !c.agg.spec.SameShape(a.spec):
			return nil, len(partials), fmt.Errorf("%w: segment %s was built from another spec", ErrConfigurationMismatch, c.segment)
		case c.agg.opts.controller != a.opts.controller:
			return nil, len(partials), fmt.Errorf("%w: segment %s uses another resource controller", ErrConfigurationMismatch, c.segment)
		case slices.Contains(cs, c):
			return nil, len(partials), fmt.Errorf("%w: segment %s passed twice", ErrConfigurationMismatch, c.segment)
		}
		cs = append(cs, c)
	}

	if a.opts.strictBoundaries {
		if err := checkOverlap(cs); err != nil {
			return nil, len(cs), err
		}
	}

	if len(cs) == 0 {
		t, err := tree.New(a.spec, a.treeOptions())
		if err != nil {
			return nil, 0, translateError(err)
		}
		return &collector{agg: a, segment: model.MergedSegmentID, tree: t}, 0, nil
	}

	trees := make([]*tree.Collector, len(cs))
	bounds := make([]*boundary.Boundary, len(cs))
	for i, c := range cs {
		trees[i] = c.tree
		bounds[i] = c.boundary
	}

	var (
		merged *tree.Collector
		err    error
	)
	if a.opts.mergeWorkers > 1 && len(trees) > 2 {
		merged, err = merge.Parallel(ctx, trees, a.opts.mergeWorkers)
	} else {
		merged, err = merge.Merge(trees)
	}
	if err != nil {
		return nil, len(cs), translateError(err)
	}

	for _, c := range cs {
		c.consumed = true
		c.tree = nil
	}
	return &collector{
		agg:      a,
		segment:  model.MergedSegmentID,
		boundary: boundary.Union(bounds...),
		tree:     merged,
	}, len(cs), nil
}

// checkOverlap rejects partials whose boundaries share a document.
// Unbounded partials overlap with everything non-empty.
func checkOverlap(cs []*collector) error {
	for i := range cs {
		for j := i + 1; j < len(cs); j++ {
			if cs[i].boundary.Intersects(cs[j].boundary) {
				return fmt.Errorf("%w: boundaries of segments %s and %s overlap",
					ErrConfigurationMismatch, cs[i].segment, cs[j].segment)
			}
		}
	}
	return nil
}
