package statagg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/statagg/boundary"
	"github.com/hupe1980/statagg/model"
)

// Source supplies the documents of one segment. Visit calls fn for every
// document the segment matches and stops at the first error fn returns.
type Source interface {
	SegmentID() model.SegmentID
	Visit(ctx context.Context, fn func(model.Document) error) error
}

// Partition pairs a segment source with the documents it is authoritative for.
type Partition struct {
	Source   Source
	Boundary *boundary.Boundary
}

// Outcome is the result of a Run.
type Outcome struct {
	// Collector is the merge of every completed segment.
	Collector Collector
	// Completed lists the merged segments in partition order.
	Completed []model.SegmentID
	// Failed holds the error of every segment left out of the merge.
	Failed map[model.SegmentID]error
	// Partial is set when at least one segment is missing from Collector.
	Partial bool
}

// Run populates one collector per partition concurrently, then merges the
// partitions that completed.
//
// A failing source is logged and left out; it never aborts the others.
// Canceling ctx stops sources that have not finished, and whatever completed
// is still merged. Worker slots come from the resource controller when one
// is configured. Run only returns an error when the merge itself fails.
func (a *Aggregator) Run(ctx context.Context, parts []Partition) (*Outcome, error) {
	for i, p := range parts {
		if p.Source == nil {
			return nil, fmt.Errorf("%w: partition %d has no source", ErrConfiguration, i)
		}
	}

	rc := a.opts.controller
	collectors := make([]Collector, len(parts))
	errs := make([]error, len(parts))

	var g errgroup.Group
	for i, p := range parts {
		g.Go(func() error {
			if err := rc.AcquireWorker(ctx); err != nil {
				errs[i] = err
				return nil
			}
			defer rc.ReleaseWorker()

			collectors[i], errs[i] = a.collect(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	done := bitset.New(uint(len(parts)))
	out := &Outcome{Failed: make(map[model.SegmentID]error)}
	for i, p := range parts {
		seg := p.Source.SegmentID()
		if errs[i] != nil {
			out.Failed[seg] = errs[i]
			if !errors.Is(errs[i], context.Canceled) && !errors.Is(errs[i], context.DeadlineExceeded) {
				a.opts.logger.LogSegmentFailed(ctx, seg, errs[i])
			}
			continue
		}
		done.Set(uint(i))
		out.Completed = append(out.Completed, seg)
	}
	out.Partial = done.Count() < uint(len(parts))

	partials := make([]Collector, 0, done.Count())
	for i, ok := done.NextSet(0); ok; i, ok = done.NextSet(i + 1) {
		partials = append(partials, collectors[i])
	}

	// Completed work is merged even when the run was canceled.
	merged, err := a.Merge(context.WithoutCancel(ctx), partials...)
	if err != nil {
		for _, c := range partials {
			_ = c.Close()
		}
		return nil, err
	}
	out.Collector = merged

	a.opts.logger.LogRun(ctx, len(out.Completed), len(out.Failed), ctx.Err() != nil)
	return out, nil
}

func (a *Aggregator) collect(ctx context.Context, p Partition) (Collector, error) {
	seg := p.Source.SegmentID()
	c, err := a.NewCollector(seg, p.Boundary)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = p.Source.Visit(ctx, func(doc model.Document) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := c.Collect(doc)
		return err
	})
	if err == nil {
		err = ctx.Err()
	}

	cc := c.unwrap()
	a.opts.metricsCollector.RecordCollect(cc.docs, cc.skipped, time.Since(start), err)
	a.opts.logger.LogCollect(ctx, seg, cc.docs, cc.skipped, c.Size(), err)

	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// SliceSource is a Source over documents held in memory.
type SliceSource struct {
	ID   model.SegmentID
	Docs []model.Document
}

// SegmentID implements Source.
func (s *SliceSource) SegmentID() model.SegmentID { return s.ID }

// Visit implements Source.
func (s *SliceSource) Visit(ctx context.Context, fn func(model.Document) error) error {
	for _, d := range s.Docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
