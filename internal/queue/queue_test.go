package queue

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intLess(a, b int) bool { return a < b }
func intGreater(a, b int) bool { return a > b }

func TestHeap(t *testing.T) {
	t.Run("MinHeap", func(t *testing.T) {
		h := New(intLess, 4)
		h.Push(10)
		h.Push(5)
		h.Push(20)

		require.Equal(t, 3, h.Len())
		top, ok := h.Top()
		require.True(t, ok)
		assert.Equal(t, 5, top)

		assert.Equal(t, []int{5, 10, 20}, h.Drain(nil))
		_, ok = h.Pop()
		assert.False(t, ok)
	})

	t.Run("MaxHeap", func(t *testing.T) {
		h := New(intGreater, 4)
		for _, v := range []int{3, 9, 1, 7} {
			h.Push(v)
		}
		assert.Equal(t, []int{9, 7, 3, 1}, h.Drain(nil))
	})

	t.Run("EmptyTop", func(t *testing.T) {
		h := New(intLess, 0)
		_, ok := h.Top()
		assert.False(t, ok)
	})

	t.Run("Reset", func(t *testing.T) {
		h := New(intLess, 2)
		h.Push(1)
		h.Reset()
		assert.Equal(t, 0, h.Len())
	})
}

func TestPushBounded(t *testing.T) {
	// A max-heap bounded at k retains the k smallest values.
	rng := rand.New(rand.NewSource(7))
	values := make([]int, 500)
	for i := range values {
		values[i] = rng.Intn(1000)
	}

	const k = 25
	h := New(intGreater, k)
	for _, v := range values {
		h.PushBounded(v, k)
	}
	require.Equal(t, k, h.Len())

	got := h.Drain(nil)
	slices.Reverse(got)

	want := slices.Clone(values)
	slices.Sort(want)
	assert.Equal(t, want[:k], got)

	assert.False(t, New(intLess, 0).PushBounded(1, 0))
}
