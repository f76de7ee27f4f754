package statagg

import (
	"fmt"

	"github.com/hupe1980/statagg/boundary"
	"github.com/hupe1980/statagg/internal/tree"
	"github.com/hupe1980/statagg/model"
)

// Collector accumulates the documents of one segment into an aggregation tree.
//
// Collectors are single-writer and NOT thread-safe: populate each one from a
// single goroutine, then combine them with Merge.
type Collector interface {
	// Spec returns the outermost level spec.
	Spec() *model.CollectorSpec
	// SegmentID returns the segment the collector aggregates, or
	// model.MergedSegmentID for merge output.
	SegmentID() model.SegmentID
	// Boundary returns the documents the collector is authoritative for (nil = all).
	Boundary() *boundary.Boundary
	// AddValue accumulates v under key and forwards sub into the key's child
	// collector. Data-mode collectors take a nil key. After ErrCollectorFailed
	// the collector only supports Close.
	AddValue(key *model.GroupKey, v model.Value, sub []model.Entry) error
	// Collect adds a document unless the boundary does not own it.
	// It reports whether the document was aggregated. Data-mode collectors
	// ignore the document key.
	Collect(doc model.Document) (bool, error)
	// Size returns the number of distinct keys at the outermost level.
	Size() int
	// Consumed reports whether the collector was merged into another.
	Consumed() bool
	// Close releases accounted memory. Closing a consumed collector is a no-op.
	Close() error

	unwrap() *collector
}

// Aggregator resolves a validated spec into collectors that share options.
// It is safe for concurrent use; the collectors it creates are not.
type Aggregator struct {
	spec *model.CollectorSpec
	opts options
}

// New validates spec and returns an Aggregator creating collectors for it.
// spec is copied; later changes by the caller have no effect.
func New(spec *model.CollectorSpec, optFns ...Option) (*Aggregator, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}
	a := &Aggregator{
		spec: cloneSpec(spec),
		opts: applyOptions(optFns),
	}
	// Resolve the full shape once so configuration errors surface here.
	probe, err := tree.New(a.spec, a.treeOptions())
	if err != nil {
		return nil, translateError(err)
	}
	probe.Release()
	return a, nil
}

// GetCollector validates spec and returns a collector for one segment.
// Use New and NewCollector when creating collectors for many segments.
func GetCollector(spec *model.CollectorSpec, segment model.SegmentID, b *boundary.Boundary, optFns ...Option) (Collector, error) {
	a, err := New(spec, optFns...)
	if err != nil {
		return nil, err
	}
	return a.NewCollector(segment, b)
}

// Spec returns the validated spec.
func (a *Aggregator) Spec() *model.CollectorSpec { return a.spec }

// NewCollector returns an empty collector for segment restricted to b.
// A nil boundary makes the collector authoritative for every document.
func (a *Aggregator) NewCollector(segment model.SegmentID, b *boundary.Boundary) (Collector, error) {
	t, err := tree.New(a.spec, a.treeOptions())
	if err != nil {
		return nil, translateError(err)
	}
	return &collector{agg: a, segment: segment, boundary: b, tree: t}, nil
}

func (a *Aggregator) treeOptions() tree.Options {
	return tree.Options{
		Compression: a.opts.compression,
		Controller:  a.opts.controller,
	}
}

type collector struct {
	agg      *Aggregator
	segment  model.SegmentID
	boundary *boundary.Boundary
	tree     *tree.Collector

	docs, skipped int
	consumed      bool
}

func (c *collector) unwrap() *collector           { return c }
func (c *collector) Spec() *model.CollectorSpec   { return c.agg.spec }
func (c *collector) SegmentID() model.SegmentID   { return c.segment }
func (c *collector) Boundary() *boundary.Boundary { return c.boundary }
func (c *collector) Consumed() bool               { return c.consumed }

func (c *collector) AddValue(key *model.GroupKey, v model.Value, sub []model.Entry) error {
	if c.consumed {
		return ErrPartialConsumed
	}
	return translateError(c.tree.AddValue(key, v, sub))
}

func (c *collector) Collect(doc model.Document) (bool, error) {
	if c.consumed {
		return false, ErrPartialConsumed
	}
	if !c.boundary.Owns(doc.ID) {
		c.docs++
		c.skipped++
		return false, nil
	}
	key := doc.Key
	if c.tree.Mode() == model.ModeData {
		key = nil
	}
	if err := c.AddValue(key, doc.Value, doc.Sub); err != nil {
		return false, fmt.Errorf("document %d: %w", doc.ID, err)
	}
	c.docs++
	return true, nil
}

func (c *collector) Size() int {
	if c.consumed {
		return 0
	}
	return c.tree.Size()
}

func (c *collector) Close() error {
	if c.consumed || c.tree == nil {
		return nil
	}
	c.tree.Release()
	c.tree = nil
	c.consumed = true
	return nil
}

// validate walks every nesting level of spec.
func validate(spec *model.CollectorSpec) error {
	if spec == nil {
		return configError(0, "spec", "missing", nil)
	}
	for depth, s := 0, spec; s != nil; depth, s = depth+1, s.Sub {
		if !s.Mode.Valid() {
			return configError(depth, "mode", s.Mode.String(), model.ErrUnknownMode)
		}
		if !s.Domain.Valid() {
			return configError(depth, "domain", s.Domain.String(), model.ErrUnknownDomain)
		}
		if !s.Level.Valid() {
			return configError(depth, "level", s.Level.String(), model.ErrUnknownLevel)
		}
		for _, it := range s.Items {
			if err := checkItem(depth, "items", it, s.Level); err != nil {
				return err
			}
		}
		if err := checkSort(depth, s); err != nil {
			return err
		}
		switch {
		case s.MaxValues < 0:
			return configError(depth, "max_values", fmt.Sprintf("negative bound %d", s.MaxValues), nil)
		case s.MaxValues > 0 && s.Level != model.LevelFull:
			return configError(depth, "max_values", "raw values are only kept at level full", nil)
		}
	}
	return nil
}

func checkItem(depth int, field string, it model.StatItem, l model.Level) error {
	if _, err := it.Level(); err != nil {
		return configError(depth, field, fmt.Sprintf("unknown item %q", string(it)), err)
	}
	if !it.AvailableAt(l) {
		return configError(depth, field,
			fmt.Sprintf("%q is not available at level %s", string(it), l), model.ErrUnknownStatItem)
	}
	return nil
}

func checkSort(depth int, s *model.CollectorSpec) error {
	sort := s.Sort
	if sort == nil {
		return nil
	}
	if sort.Item != model.SortByKey {
		if err := checkItem(depth, "sort", sort.Item, s.Level); err != nil {
			return err
		}
		if !sort.Item.Scalar() {
			return configError(depth, "sort", fmt.Sprintf("%q is not sortable", string(sort.Item)), nil)
		}
	}
	switch {
	case sort.Direction != model.Asc && sort.Direction != model.Desc:
		return configError(depth, "sort", fmt.Sprintf("unknown direction %d", sort.Direction), nil)
	case sort.Start < 0:
		return configError(depth, "sort", fmt.Sprintf("negative start %d", sort.Start), nil)
	case sort.Number != nil && *sort.Number < 0:
		return configError(depth, "sort", fmt.Sprintf("negative number %d", *sort.Number), nil)
	}
	return nil
}

func cloneSpec(s *model.CollectorSpec) *model.CollectorSpec {
	if s == nil {
		return nil
	}
	c := *s
	c.Items = append([]model.StatItem(nil), s.Items...)
	if s.Sort != nil {
		sort := *s.Sort
		if s.Sort.Number != nil {
			sort.Number = model.Limit(*s.Sort.Number)
		}
		c.Sort = &sort
	}
	c.Sub = cloneSpec(s.Sub)
	return &c
}
