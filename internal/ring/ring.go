// Package ring provides a fixed-capacity circular sample buffer.
package ring

// Buffer is a fixed-capacity circular store. Pushing onto a full buffer
// evicts the oldest sample; the buffer never exceeds its capacity.
//
// The zero value is not usable; construct with New.
type Buffer[T any] struct {
	data  []T
	start int // index of the oldest sample
	count int
}

// New creates a buffer with the given capacity. Capacity must be positive;
// New panics otherwise because every caller sizes the buffer from validated
// configuration.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Push appends a sample, evicting the oldest if the buffer is full.
func (b *Buffer[T]) Push(v T) {
	if b.count < len(b.data) {
		b.data[(b.start+b.count)%len(b.data)] = v
		b.count++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % len(b.data)
}

// At returns the sample at relative index i, where 0 is the oldest buffered
// sample and Len()-1 the newest. Panics if i is out of range.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.count {
		panic("ring: index out of range")
	}
	return b.data[(b.start+i)%len(b.data)]
}

// Oldest returns the oldest buffered sample. Panics on an empty buffer.
func (b *Buffer[T]) Oldest() T { return b.At(0) }

// Newest returns the most recent sample. Panics on an empty buffer.
func (b *Buffer[T]) Newest() T { return b.At(b.count - 1) }

// Len returns the number of buffered samples.
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Full reports whether the buffer holds Cap() samples.
func (b *Buffer[T]) Full() bool { return b.count == len(b.data) }

// Reset discards all samples, keeping the capacity.
func (b *Buffer[T]) Reset() {
	b.start = 0
	b.count = 0
}
