// Package queue provides a generic binary heap used for bounded top-N selection.
package queue

// Heap is a binary heap ordered by less: the top element is the one for which
// less reports true against every other element.
//
// Heap is NOT thread-safe.
type Heap[T any] struct {
	items []T
	less  func(a, b T) bool
}

// New creates a heap with the given ordering and initial capacity.
func New[T any](less func(a, b T) bool, capacity int) *Heap[T] {
	return &Heap[T]{
		items: make([]T, 0, capacity),
		less:  less,
	}
}

// Len returns the number of elements in the heap.
func (h *Heap[T]) Len() int { return len(h.items) }

// Top returns the top element of the heap.
func (h *Heap[T]) Top() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (h *Heap[T]) Push(item T) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// Pop removes and returns the top element while maintaining the heap invariant.
func (h *Heap[T]) Pop() (T, bool) {
	n := len(h.items)
	if n == 0 {
		var zero T
		return zero, false
	}
	root := h.items[0]
	last := h.items[n-1]
	var zero T
	h.items[n-1] = zero // release references for GC
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, true
}

// ReplaceTop replaces the top element and restores the heap invariant.
// The heap must not be empty.
func (h *Heap[T]) ReplaceTop(item T) {
	h.items[0] = item
	h.siftDown(0)
}

// PushBounded keeps at most limit items. Once full, item replaces the top only
// if the top orders before it, so a heap ordered "worst first" retains the best
// limit items. Reports whether item was kept.
func (h *Heap[T]) PushBounded(item T, limit int) bool {
	if limit <= 0 {
		return false
	}
	if len(h.items) < limit {
		h.Push(item)
		return true
	}
	if !h.less(h.items[0], item) {
		return false
	}
	h.ReplaceTop(item)
	return true
}

// Items returns the backing slice in heap order. The slice is owned by the heap.
func (h *Heap[T]) Items() []T { return h.items }

// Drain pops every element into dst and returns it, top element first.
func (h *Heap[T]) Drain(dst []T) []T {
	for len(h.items) > 0 {
		it, _ := h.Pop()
		dst = append(dst, it)
	}
	return dst
}

// Reset clears the heap for reuse.
func (h *Heap[T]) Reset() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(h.items[i], h.items[p]) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && h.less(h.items[r], h.items[l]) {
			best = r
		}
		if !h.less(h.items[best], h.items[i]) {
			return
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
