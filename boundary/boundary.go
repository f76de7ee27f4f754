// Package boundary describes which documents each segment is authoritative for.
//
// When segments overlap (a document is visible to several of them), every
// document must be aggregated exactly once. An OwnershipPolicy picks one
// owning segment per document, the Assigner turns those decisions into one
// Boundary per segment, and collectors skip documents outside their Boundary.
package boundary

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Boundary is the set of document IDs a segment is authoritative for.
// A nil *Boundary is authoritative for every document it sees.
//
// Boundary is NOT thread-safe for mutation. Once handed to collectors it
// should be treated as read-only.
type Boundary struct {
	rb *roaring.Bitmap
}

// New creates a boundary owning ids.
func New(ids ...uint32) *Boundary {
	return &Boundary{rb: roaring.BitmapOf(ids...)}
}

// Range creates a boundary owning every ID in [lo, hi).
func Range(lo, hi uint32) *Boundary {
	b := New()
	b.AddRange(lo, hi)
	return b
}

// Owns reports whether the segment is authoritative for id.
func (b *Boundary) Owns(id uint32) bool {
	if b == nil {
		return true
	}
	return b.rb.Contains(id)
}

// Add adds ids to the boundary.
func (b *Boundary) Add(ids ...uint32) {
	b.rb.AddMany(ids)
}

// AddRange adds every ID in [lo, hi).
func (b *Boundary) AddRange(lo, hi uint32) {
	if lo >= hi {
		return
	}
	b.rb.AddRange(uint64(lo), uint64(hi))
}

// Cardinality returns the number of owned IDs. Unbounded boundaries report -1.
func (b *Boundary) Cardinality() int64 {
	if b == nil {
		return -1
	}
	return int64(b.rb.GetCardinality())
}

// IsEmpty reports whether the boundary owns nothing.
func (b *Boundary) IsEmpty() bool {
	return b != nil && b.rb.IsEmpty()
}

// Intersects reports whether both boundaries own at least one common ID.
func (b *Boundary) Intersects(other *Boundary) bool {
	switch {
	case b == nil && other == nil:
		return true
	case b == nil:
		return !other.rb.IsEmpty()
	case other == nil:
		return !b.rb.IsEmpty()
	}
	return b.rb.Intersects(other.rb)
}

// Clone returns an independent copy.
func (b *Boundary) Clone() *Boundary {
	if b == nil {
		return nil
	}
	return &Boundary{rb: b.rb.Clone()}
}

// ForEach calls fn for every owned ID in ascending order until fn returns false.
// It does nothing for unbounded boundaries.
func (b *Boundary) ForEach(fn func(id uint32) bool) {
	if b == nil {
		return
	}
	it := b.rb.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			return
		}
	}
}

func (b *Boundary) String() string {
	if b == nil {
		return "boundary(all)"
	}
	return fmt.Sprintf("boundary(%d ids)", b.rb.GetCardinality())
}

// Union returns a new boundary owning everything any input owns.
// The union is unbounded if any input is. With no inputs it is empty.
func Union(bs ...*Boundary) *Boundary {
	rbs := make([]*roaring.Bitmap, 0, len(bs))
	for _, b := range bs {
		if b == nil {
			return nil
		}
		rbs = append(rbs, b.rb)
	}
	return &Boundary{rb: roaring.FastOr(rbs...)}
}
