// Package index allocates the local identifiers ("idx") carried by repeatable
// sub-elements such as footnotes, comments and configuration frequencies.
package index

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Index is a local identifier, unique within the allocator that issued it.
type Index uint64

// MaxUN6 is the largest index representable in the UN(6) wire format.
const MaxUN6 Index = 999999

var (
	// ErrExhausted is returned when an allocator has issued its last index.
	ErrExhausted = errors.New("index: allocator exhausted")

	// ErrInvalidLimit is returned when an allocator is configured with a limit
	// that leaves no index to issue.
	ErrInvalidLimit = errors.New("index: invalid allocator limit")
)

// Allocator issues strictly increasing indexes. Indexes are never reused, even
// after the element holding one is discarded. It is safe for concurrent use.
type Allocator struct {
	last  atomic.Uint64
	limit uint64
}

// NewAllocator returns an allocator whose first index is start+1, bounded by MaxUN6.
func NewAllocator(start Index) *Allocator {
	a := &Allocator{limit: uint64(MaxUN6)}
	a.last.Store(uint64(start))
	return a
}

// NewAllocatorWithLimit returns an allocator whose first index is start+1 and
// whose last index is limit.
func NewAllocatorWithLimit(start, limit Index) (*Allocator, error) {
	if limit == 0 || start >= limit {
		return nil, fmt.Errorf("%w: start %d, limit %d", ErrInvalidLimit, start, limit)
	}
	a := &Allocator{limit: uint64(limit)}
	a.last.Store(uint64(start))
	return a, nil
}

// Next returns the next index. Once the limit is passed every call fails with
// ErrExhausted; the counter never wraps.
func (a *Allocator) Next() (Index, error) {
	n := a.last.Add(1)
	if n > a.limit || n == 0 {
		return 0, fmt.Errorf("%w: limit %d", ErrExhausted, a.limit)
	}
	return Index(n), nil
}

// Observe records that i is already in use, so that later calls to Next
// return indexes greater than i. Used after loading persisted elements.
func (a *Allocator) Observe(i Index) {
	for {
		cur := a.last.Load()
		if uint64(i) <= cur {
			return
		}
		if a.last.CompareAndSwap(cur, uint64(i)) {
			return
		}
	}
}

// Last returns the most recently issued (or observed) index.
func (a *Allocator) Last() Index {
	last := a.last.Load()
	if last > a.limit {
		return Index(a.limit)
	}
	return Index(last)
}

// Limit returns the largest index this allocator can issue.
func (a *Allocator) Limit() Index {
	return Index(a.limit)
}
