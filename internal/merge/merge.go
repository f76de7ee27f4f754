// Package merge folds segment partials into one aggregation tree.
//
// Merging is a union over group keys at every level: keys present in both
// partials have their accumulators merged, keys present in only one are moved
// over as they are. Source partials are consumed and must not be used again.
package merge

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/statagg/internal/tree"
)

// ErrShapeMismatch is returned when partials were built from different specs.
var ErrShapeMismatch = errors.New("partial shape mismatch")

// Merge folds every partial into the first one and returns it.
// Nil partials are skipped; the result is nil when no partial is left.
func Merge(parts []*tree.Collector) (*tree.Collector, error) {
	parts, err := prepare(parts)
	if err != nil || len(parts) == 0 {
		return nil, err
	}
	dst := parts[0]
	for _, src := range parts[1:] {
		if err := into(dst, src); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// Parallel merges partials by pairwise reduction with up to workers
// concurrent merges per round. Every pair touches disjoint trees, so
// rounds need no locking. Each pair merge also holds a worker slot of the
// partials' resource controller.
func Parallel(ctx context.Context, parts []*tree.Collector, workers int) (*tree.Collector, error) {
	parts, err := prepare(parts)
	if err != nil || len(parts) == 0 {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	rc := parts[0].Options().Controller

	for len(parts) > 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)

		for i := 0; i+1 < len(parts); i += 2 {
			dst, src := parts[i], parts[i+1]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := rc.AcquireWorker(gctx); err != nil {
					return err
				}
				defer rc.ReleaseWorker()
				return into(dst, src)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		next := parts[:0]
		for i := 0; i < len(parts); i += 2 {
			next = append(next, parts[i])
		}
		parts = next
	}
	return parts[0], nil
}

// Into folds src into dst and consumes src.
func Into(dst, src *tree.Collector) error {
	if _, err := prepare([]*tree.Collector{dst, src}); err != nil {
		return err
	}
	return into(dst, src)
}

// prepare drops nil partials and checks that the rest share one shape and
// are still live and consistent, so no merge starts on input that would fail halfway.
func prepare(parts []*tree.Collector) ([]*tree.Collector, error) {
	live := make([]*tree.Collector, 0, len(parts))
	for _, p := range parts {
		if p == nil {
			continue
		}
		if p.Consumed() {
			return nil, tree.ErrConsumed
		}
		if err := p.Failed(); err != nil {
			return nil, fmt.Errorf("%w: %w", tree.ErrFailed, err)
		}
		if len(live) > 0 && !live[0].Spec().SameShape(p.Spec()) {
			return nil, fmt.Errorf("%w: partial %d", ErrShapeMismatch, len(live))
		}
		for _, q := range live {
			if q == p {
				return nil, fmt.Errorf("%w: partial passed twice", tree.ErrMismatch)
			}
		}
		live = append(live, p)
	}
	return live, nil
}

func into(dst, src *tree.Collector) error {
	if root := dst.Root(); root != nil {
		if err := mergeNode(root, src.Root()); err != nil {
			return err
		}
		src.Consume()
		return nil
	}

	for _, n := range src.Nodes() {
		existing, ok := dst.Get(n.Key)
		if !ok {
			if err := dst.Adopt(n); err != nil {
				return err
			}
			continue
		}
		if err := mergeNode(existing, &n); err != nil {
			return err
		}
	}
	src.Consume()
	return nil
}

func mergeNode(dst, src *tree.Node) error {
	if err := dst.Acc.Merge(src.Acc); err != nil {
		return err
	}
	if dst.Children == nil {
		return nil
	}
	return into(dst.Children, src.Children)
}
