// Package selector produces ordered, windowed views of aggregation trees.
//
// Every nesting level is sorted and windowed independently by its own SortSpec:
// a parent window never limits how many children its kept entries report.
package selector

import (
	"slices"

	"github.com/hupe1980/statagg/internal/queue"
	"github.com/hupe1980/statagg/internal/tree"
	"github.com/hupe1980/statagg/model"
)

// Selected is one kept entry of a level plus the selection of its children.
type Selected struct {
	// Key is nil for data-mode entries.
	Key      *model.GroupKey
	Node     *tree.Node
	Children []Selected
}

type candidate struct {
	node *tree.Node
	val  model.StatValue
}

// Select orders and windows c by sort, then recurses into the children of
// every kept entry using the child level's configured sort.
// A nil sort keeps every entry in key order. Data-mode collectors yield their
// root as a single keyless entry.
func Select(c *tree.Collector, sort *model.SortSpec) ([]Selected, error) {
	if c.Mode() == model.ModeData {
		root := c.Root()
		if root == nil {
			return nil, nil
		}
		s := Selected{Node: root}
		if err := selectChildren(&s); err != nil {
			return nil, err
		}
		return []Selected{s}, nil
	}

	nodes := c.Nodes()
	cands := make([]candidate, len(nodes))
	byKey := sort == nil || sort.Item == model.SortByKey
	for i := range nodes {
		cands[i].node = &nodes[i]
		if !byKey {
			v, err := nodes[i].Acc.Stat(sort.Item)
			if err != nil {
				return nil, err
			}
			cands[i].val = v
		}
	}

	desc := sort != nil && sort.Direction == model.Desc
	cmp := func(a, b candidate) int { return compare(a, b, byKey, desc) }

	kept := window(cands, sort, cmp)

	out := make([]Selected, len(kept))
	for i, cand := range kept {
		out[i] = Selected{Key: &cand.node.Key, Node: cand.node}
		if err := selectChildren(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func selectChildren(s *Selected) error {
	if s.Node.Children == nil {
		return nil
	}
	children, err := Select(s.Node.Children, s.Node.Children.Spec().Sort)
	if err != nil {
		return err
	}
	s.Children = children
	return nil
}

// window returns the sorted entries in [start, start+number).
// Small windows use a bounded heap of start+number entries instead of a full sort.
func window(cands []candidate, sort *model.SortSpec, cmp func(a, b candidate) int) []candidate {
	start, end := sort.Window(len(cands))
	if start >= end {
		return nil
	}

	if end < len(cands)/2 {
		// Worst-first heap: the top is the entry evicted next.
		h := queue.New(func(a, b candidate) bool { return cmp(a, b) > 0 }, end)
		for _, c := range cands {
			h.PushBounded(c, end)
		}
		best := h.Drain(make([]candidate, 0, end))
		slices.Reverse(best)
		return best[start:end]
	}

	slices.SortFunc(cands, cmp)
	return cands[start:end]
}

// compare orders a before b (negative) when a ranks higher. The direction only
// flips the primary comparison; NoData ranks last either way and ties fall
// back to ascending key order.
func compare(a, b candidate, byKey, desc bool) int {
	if byKey {
		c := a.node.Key.Compare(b.node.Key)
		if desc {
			return -c
		}
		return c
	}

	aNo, bNo := a.val.IsNoData(), b.val.IsNoData()
	switch {
	case aNo && !bNo:
		return 1
	case !aNo && bNo:
		return -1
	case !aNo && !bNo:
		c := a.val.Compare(b.val)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return a.node.Key.Compare(b.node.Key)
}
