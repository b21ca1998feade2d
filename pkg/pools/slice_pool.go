package pools

import (
	"math/bits"
	"sync"
)

// Size classes are powers of two between 1<<MinClassShift and
// 1<<MaxClassShift elements.
const (
	MinClassShift = 4
	MaxClassShift = 27
)

// SlicePool pools slices of T by power-of-two capacity class.
// Requests larger than 1<<MaxClassShift elements are allocated directly
// and dropped on Put.
type SlicePool[T any] struct {
	classes [MaxClassShift + 1]sync.Pool
}

// NewSlicePool creates an empty slice pool.
func NewSlicePool[T any]() *SlicePool[T] {
	return &SlicePool[T]{}
}

// classFor returns the size class index for n elements, or -1 if n is
// too large to pool.
func classFor(n int) int {
	if n <= 1<<MinClassShift {
		return MinClassShift
	}
	shift := bits.Len(uint(n - 1))
	if shift > MaxClassShift {
		return -1
	}
	return shift
}

// Get returns a slice with length 0 and capacity of at least n.
func (p *SlicePool[T]) Get(n int) []T {
	class := classFor(n)
	if class < 0 {
		return make([]T, 0, n)
	}

	if sp, ok := p.classes[class].Get().(*[]T); ok && cap(*sp) >= n {
		return (*sp)[:0]
	}
	return make([]T, 0, 1<<class)
}

// GetSized returns a slice with length exactly n.
func (p *SlicePool[T]) GetSized(n int) []T {
	return p.Get(n)[:n]
}

// Put returns a slice to the pool. Slices whose capacity is not an exact
// size class (or is oversized) are not pooled.
func (p *SlicePool[T]) Put(s []T) {
	c := cap(s)
	if c < 1<<MinClassShift || c&(c-1) != 0 {
		return
	}
	class := bits.Len(uint(c)) - 1
	if class > MaxClassShift {
		return
	}

	s = s[:0]
	p.classes[class].Put(&s)
}
