package boundary

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/statagg/model"
)

// ErrInvalidOwner is returned when a policy picks a segment that cannot see the document.
var ErrInvalidOwner = errors.New("owner is not a visible segment")

// OwnershipPolicy decides which segment aggregates a document visible to several.
// visible is sorted ascending and never empty.
type OwnershipPolicy interface {
	Owner(doc uint32, visible []model.SegmentID) model.SegmentID
}

// PolicyFunc adapts a function to OwnershipPolicy.
type PolicyFunc func(doc uint32, visible []model.SegmentID) model.SegmentID

// Owner calls f.
func (f PolicyFunc) Owner(doc uint32, visible []model.SegmentID) model.SegmentID {
	return f(doc, visible)
}

// LowestSegment assigns every document to the lowest visible segment ID.
type LowestSegment struct{}

// Owner implements OwnershipPolicy.
func (LowestSegment) Owner(_ uint32, visible []model.SegmentID) model.SegmentID {
	return visible[0]
}

// HighestSegment assigns every document to the highest visible segment ID,
// e.g. the newest segment when IDs grow over time.
type HighestSegment struct{}

// Owner implements OwnershipPolicy.
func (HighestSegment) Owner(_ uint32, visible []model.SegmentID) model.SegmentID {
	return visible[len(visible)-1]
}

// Assigner records which documents each segment can see and partitions
// them into disjoint boundaries.
//
// Observe is safe for concurrent use.
type Assigner struct {
	mu      sync.Mutex
	visible map[model.SegmentID]*roaring.Bitmap
}

// NewAssigner creates an empty assigner.
func NewAssigner() *Assigner {
	return &Assigner{visible: make(map[model.SegmentID]*roaring.Bitmap)}
}

// Observe records that segment can see docs.
func (a *Assigner) Observe(segment model.SegmentID, docs ...uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rb, ok := a.visible[segment]
	if !ok {
		rb = roaring.New()
		a.visible[segment] = rb
	}
	rb.AddMany(docs)
}

// Boundaries assigns every observed document to exactly one owning segment.
// Every observed segment gets a boundary, possibly empty.
func (a *Assigner) Boundaries(policy OwnershipPolicy) (map[model.SegmentID]*Boundary, error) {
	if policy == nil {
		policy = LowestSegment{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	segments := make([]model.SegmentID, 0, len(a.visible))
	out := make(map[model.SegmentID]*Boundary, len(a.visible))
	for seg := range a.visible {
		segments = append(segments, seg)
		out[seg] = New()
	}
	slices.Sort(segments)

	bitmaps := make([]*roaring.Bitmap, len(segments))
	for i, seg := range segments {
		bitmaps[i] = a.visible[seg]
	}
	all := roaring.FastOr(bitmaps...)

	visible := make([]model.SegmentID, 0, len(segments))
	it := all.Iterator()
	for it.HasNext() {
		doc := it.Next()
		visible = visible[:0]
		for i, seg := range segments {
			if bitmaps[i].Contains(doc) {
				visible = append(visible, seg)
			}
		}

		owner := visible[0]
		if len(visible) > 1 {
			owner = policy.Owner(doc, visible)
		}
		b, ok := out[owner]
		if !ok || !slices.Contains(visible, owner) {
			return nil, fmt.Errorf("%w: document %d assigned to segment %s", ErrInvalidOwner, doc, owner)
		}
		b.rb.Add(doc)
	}
	return out, nil
}
