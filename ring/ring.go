// SPDX-License-Identifier: EPL-2.0

package ring

import "sync/atomic"

// Buffer is a bounded SPSC ring of T.
type Buffer[T any] struct {
	// Keep the cursors on separate cache lines, producer and consumer
	// hammer them from different cores.
	write atomic.Uint64
	_     [56]byte
	read  atomic.Uint64
	_     [56]byte

	data     []T
	capacity uint64
}

// New creates a buffer holding up to capacity elements.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}

	return &Buffer[T]{
		data:     make([]T, capacity),
		capacity: uint64(capacity),
	}
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return int(b.capacity) }

// Readable returns how many elements the consumer can pop.
func (b *Buffer[T]) Readable() int {
	r := b.read.Load()
	w := b.write.Load()
	if w <= r {
		return 0
	}

	n := w - r
	if n > b.capacity {
		n = b.capacity
	}

	return int(n)
}

// Writable returns how many elements the producer can push.
func (b *Buffer[T]) Writable() int {
	return int(b.capacity) - b.Readable()
}

// TryPush appends v. It returns false when the buffer is full.
// Producer only.
func (b *Buffer[T]) TryPush(v T) bool {
	w := b.write.Load()
	if w-b.read.Load() >= b.capacity {
		return false
	}

	b.data[w%b.capacity] = v
	b.write.Store(w + 1)

	return true
}

// Write appends as much of src as fits and returns the count written.
// The copy is done in at most two segments. Producer only.
func (b *Buffer[T]) Write(src []T) int {
	w := b.write.Load()
	used := w - b.read.Load()
	if used >= b.capacity || len(src) == 0 {
		return 0
	}

	n := min(uint64(len(src)), b.capacity-used)
	pos := w % b.capacity
	first := min(n, b.capacity-pos)

	copy(b.data[pos:pos+first], src[:first])
	copy(b.data[:n-first], src[first:n])

	b.write.Store(w + n)

	return int(n)
}

// TryPop removes the oldest element. ok is false when the buffer is empty.
// Consumer only.
func (b *Buffer[T]) TryPop() (v T, ok bool) {
	r := b.read.Load()
	if r >= b.write.Load() {
		return v, false
	}

	v = b.data[r%b.capacity]
	b.read.Store(r + 1)

	return v, true
}

// Read pops up to len(dst) elements into dst and returns the count.
// Consumer only.
func (b *Buffer[T]) Read(dst []T) int {
	r := b.read.Load()
	w := b.write.Load()
	if r >= w || len(dst) == 0 {
		return 0
	}

	n := min(uint64(len(dst)), w-r)
	pos := r % b.capacity
	first := min(n, b.capacity-pos)

	copy(dst[:first], b.data[pos:pos+first])
	copy(dst[first:n], b.data[:n-first])

	b.read.Store(r + n)

	return int(n)
}

// Flush discards everything readable. Consumer only, and only while the
// producer is not appending.
func (b *Buffer[T]) Flush() {
	b.read.Store(b.write.Load())
}
