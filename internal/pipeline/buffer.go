package pipeline

import "sync"

// RowBuffer is a thread-safe growable ring buffer sitting between the
// per-market computation workers and the single batch drainer. It doubles
// its capacity when it reaches 70% full, so producers never block on a slow
// writer.
type RowBuffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []T
	head   int
	tail   int
	count  int
	closed bool
}

// NewRowBuffer creates a buffer with the given initial capacity.
func NewRowBuffer[T any](initialCapacity int) *RowBuffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &RowBuffer[T]{buf: make([]T, initialCapacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send appends an item, growing the ring first when it is at 70% capacity.
// Returns false once the buffer is closed.
func (b *RowBuffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := (len(b.buf) * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = item
	b.tail = (b.tail + 1) % len(b.buf)
	b.count++

	b.cond.Signal()
	return true
}

// Next blocks until at least one item is available, then drains up to max
// items. Returns (nil, false) once the buffer is closed and empty.
func (b *RowBuffer[T]) Next(max int) ([]T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		return nil, false
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	batch := make([]T, n)
	var zero T
	for i := 0; i < n; i++ {
		batch[i] = b.buf[b.head]
		b.buf[b.head] = zero
		b.head = (b.head + 1) % len(b.buf)
		b.count--
	}
	return batch, true
}

// Close wakes all waiters; subsequent Sends are rejected and Next drains
// whatever remains before reporting closed.
func (b *RowBuffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}

// Len returns the number of buffered items.
func (b *RowBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current ring capacity.
func (b *RowBuffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// grow doubles the ring. Caller holds the lock.
func (b *RowBuffer[T]) grow() {
	next := make([]T, len(b.buf)*2)
	if b.count > 0 {
		if b.head < b.tail {
			copy(next, b.buf[b.head:b.tail])
		} else {
			n := copy(next, b.buf[b.head:])
			copy(next[n:], b.buf[:b.tail])
		}
	}
	b.buf = next
	b.head = 0
	b.tail = b.count
}
