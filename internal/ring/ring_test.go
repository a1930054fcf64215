package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndEviction(t *testing.T) {
	t.Parallel()

	b := New[int](3)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 3, b.Cap())
	assert.False(t, b.Full())

	b.Push(1)
	b.Push(2)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 1, b.Oldest())
	assert.Equal(t, 2, b.Newest())

	b.Push(3)
	require.True(t, b.Full())

	// Fourth push evicts the oldest sample.
	b.Push(4)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.Oldest())
	assert.Equal(t, 4, b.Newest())

	// Relative indexing walks oldest to newest.
	assert.Equal(t, 2, b.At(0))
	assert.Equal(t, 3, b.At(1))
	assert.Equal(t, 4, b.At(2))
}

func TestWrapAroundOrdering(t *testing.T) {
	t.Parallel()

	b := New[int](4)
	for i := 0; i < 10; i++ {
		b.Push(i)
	}
	require.Equal(t, 4, b.Len())
	for i := 0; i < 4; i++ {
		assert.Equal(t, 6+i, b.At(i))
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	b := New[string](2)
	b.Push("a")
	b.Push("b")
	b.Push("c")
	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 2, b.Cap())
	assert.False(t, b.Full())

	b.Push("d")
	assert.Equal(t, "d", b.Oldest())
}

func TestPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New[int](0) })
	assert.Panics(t, func() { New[int](-1) })

	b := New[int](2)
	assert.Panics(t, func() { b.At(0) })
	b.Push(1)
	assert.Panics(t, func() { b.At(1) })
	assert.Panics(t, func() { b.At(-1) })
}
