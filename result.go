package statagg

import (
	"fmt"
	"time"

	"github.com/hupe1980/statagg/internal/selector"
	"github.com/hupe1980/statagg/internal/tree"
	"github.com/hupe1980/statagg/model"
)

// GetResult extracts the ordered result tree of c.
//
// sort overrides the outermost level's configured sort when non-nil; nested
// levels always use their own. The root carries the data-mode statistics
// (none in list mode); every level reports its configured Items, or every
// item of its level when none are configured.
func GetResult(c Collector, sort *model.SortSpec) (*model.Result, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil collector", ErrConfigurationMismatch)
	}
	cc := c.unwrap()
	start := time.Now()
	res, entries, err := cc.result(sort)
	cc.agg.opts.metricsCollector.RecordSelect(entries, time.Since(start), err)
	return res, err
}

// Result is GetResult for a collector created by a.
func (a *Aggregator) Result(c Collector, sort *model.SortSpec) (*model.Result, error) {
	return GetResult(c, sort)
}

func (c *collector) result(sort *model.SortSpec) (*model.Result, int, error) {
	if c.consumed {
		return nil, 0, ErrPartialConsumed
	}
	spec := c.agg.spec
	if sort == nil {
		sort = spec.Sort
	} else {
		override := *spec
		override.Sort = sort
		if err := checkSort(0, &override); err != nil {
			return nil, 0, err
		}
	}

	sel, err := selector.Select(c.tree, sort)
	if err != nil {
		return nil, 0, translateError(err)
	}

	b := resultBuilder{}
	root := &model.Result{}
	if c.tree.Mode() == model.ModeData {
		s := sel[0]
		if root.Stats, err = b.stats(s.Node, spec); err != nil {
			return nil, 0, err
		}
		if root.Children, err = b.build(s.Children, spec.Sub); err != nil {
			return nil, 0, err
		}
		return root, b.entries + 1, nil
	}
	if root.Children, err = b.build(sel, spec); err != nil {
		return nil, 0, err
	}
	return root, b.entries + 1, nil
}

type resultBuilder struct {
	entries int
}

func (b *resultBuilder) build(sel []selector.Selected, spec *model.CollectorSpec) ([]model.Result, error) {
	if len(sel) == 0 {
		return nil, nil
	}
	out := make([]model.Result, len(sel))
	for i, s := range sel {
		if s.Key != nil {
			k := *s.Key
			out[i].Key = &k
		}
		stats, err := b.stats(s.Node, spec)
		if err != nil {
			return nil, err
		}
		out[i].Stats = stats
		if out[i].Children, err = b.build(s.Children, spec.Sub); err != nil {
			return nil, err
		}
	}
	b.entries += len(out)
	return out, nil
}

func (b *resultBuilder) stats(n *tree.Node, spec *model.CollectorSpec) (map[model.StatItem]model.StatValue, error) {
	items := spec.Items
	if len(items) == 0 {
		items = model.ItemsAt(spec.Level)
	}
	stats, err := n.Acc.Extract(items)
	return stats, translateError(err)
}
