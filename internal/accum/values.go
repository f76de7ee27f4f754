package accum

import (
	"slices"

	"github.com/hupe1980/statagg/internal/queue"
	"github.com/hupe1980/statagg/resource"
)

// blockValues is the number of buffered values sealed into one compressed block.
const blockValues = 1024

// valueStore is the ordered multiset of raw values kept at LevelFull.
type valueStore[T Number] interface {
	add(v T) error
	// merge moves the contents of other into the store. other must not be used afterwards.
	merge(other valueStore[T])
	// sorted returns the retained values in ascending order.
	sorted() ([]T, error)
	// truncated reports whether values were dropped by a bound.
	truncated() bool
	release()
}

// boundedStore retains the limit smallest values seen.
// The retained multiset depends only on the values seen, not on their order,
// so merges stay commutative.
type boundedStore[T Number] struct {
	heap  *queue.Heap[T] // max-heap: top is the eviction candidate
	limit int
	seen  int64
}

func newBoundedStore[T Number](limit int) *boundedStore[T] {
	return &boundedStore[T]{
		heap:  queue.New(func(a, b T) bool { return a > b }, min(limit, blockValues)),
		limit: limit,
	}
}

func (s *boundedStore[T]) add(v T) error {
	s.seen++
	s.heap.PushBounded(v, s.limit)
	return nil
}

func (s *boundedStore[T]) merge(other valueStore[T]) {
	o := other.(*boundedStore[T])
	for _, v := range o.heap.Items() {
		s.heap.PushBounded(v, s.limit)
	}
	s.seen += o.seen
	o.heap.Reset()
	o.seen = 0
}

func (s *boundedStore[T]) sorted() ([]T, error) {
	out := slices.Clone(s.heap.Items())
	slices.Sort(out)
	return out, nil
}

func (s *boundedStore[T]) truncated() bool { return s.seen > int64(s.limit) }

func (s *boundedStore[T]) release() {}

type sealedBlock struct {
	codec Compression
	data  []byte
}

// blockStore retains every value. Values are buffered and sealed into
// compressed blocks of blockValues; sealed bytes are charged to the controller.
type blockStore[T Number] struct {
	ops     numOps[T]
	codec   Compression
	rc      *resource.Controller
	buf     []T
	blocks  []sealedBlock
	charged int64
	scratch []byte
}

func newBlockStore[T Number](ops numOps[T], codec Compression, rc *resource.Controller) *blockStore[T] {
	return &blockStore[T]{
		ops:   ops,
		codec: codec,
		rc:    rc,
	}
}

func (s *blockStore[T]) add(v T) error {
	if len(s.buf) >= blockValues {
		if err := s.seal(); err != nil {
			return err
		}
	}
	s.buf = append(s.buf, v)
	return nil
}

// seal compresses the whole buffer into one block.
// On failure the buffer is left untouched.
func (s *blockStore[T]) seal() error {
	s.scratch = s.ops.appendValues(s.scratch[:0], s.buf)
	data, err := compressBlock(s.scratch, s.codec)
	if err != nil {
		return err
	}
	if err := s.rc.AcquireMemory(int64(len(data))); err != nil {
		return err
	}
	s.charged += int64(len(data))
	s.blocks = append(s.blocks, sealedBlock{codec: s.codec, data: data})
	s.buf = s.buf[:0]
	return nil
}

func (s *blockStore[T]) merge(other valueStore[T]) {
	o := other.(*blockStore[T])
	s.blocks = append(s.blocks, o.blocks...)
	s.buf = append(s.buf, o.buf...)
	s.charged += o.charged
	o.blocks, o.buf, o.charged = nil, nil, 0
}

func (s *blockStore[T]) sorted() ([]T, error) {
	out := make([]T, 0, len(s.blocks)*blockValues+len(s.buf))
	for _, b := range s.blocks {
		raw, err := decompressBlock(b.data, b.codec)
		if err != nil {
			return nil, err
		}
		if out, err = s.ops.decodeValues(out, raw); err != nil {
			return nil, err
		}
	}
	out = append(out, s.buf...)
	slices.Sort(out)
	return out, nil
}

func (s *blockStore[T]) truncated() bool { return false }

func (s *blockStore[T]) release() {
	s.rc.ReleaseMemory(s.charged)
	s.charged = 0
	s.blocks = nil
	s.buf = nil
}
