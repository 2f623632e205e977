package cell

import (
	"cmp"
	"fmt"
	"time"
)

// Cell wraps a single value of type T plus metadata. The zero Cell is absent.
type Cell[T any] struct {
	Meta

	value T
	set   bool
}

// Of returns a present cell holding v.
func Of[T any](v T) Cell[T] {
	return Cell[T]{value: v, set: true}
}

// IsSet reports whether a value is present. Metadata does not count.
func (c Cell[T]) IsSet() bool {
	return c.set
}

// Value returns the wrapped value, or the zero T when absent.
func (c Cell[T]) Value() T {
	return c.value
}

// Get returns the wrapped value and whether it is present.
func (c Cell[T]) Get() (T, bool) {
	return c.value, c.set
}

// Set stores v, keeping existing metadata.
func (c *Cell[T]) Set(v T) {
	c.value = v
	c.set = true
}

// Unset removes the value, keeping existing metadata.
func (c *Cell[T]) Unset() {
	var zero T
	c.value = zero
	c.set = false
}

// Classified returns a copy of c with classification cls.
func (c Cell[T]) Classified(cls Classification) Cell[T] {
	c.Class = cls
	return c
}

// Remarked returns a copy of c with the given remark.
func (c Cell[T]) Remarked(remark string) Cell[T] {
	c.Remark = remark
	return c
}

func (c Cell[T]) String() string {
	if !c.set {
		return "<unset>"
	}
	return fmt.Sprint(c.value)
}

// Compare orders two cells by value. An absent cell sorts before any present
// one; two absent cells compare equal. Metadata is ignored.
func Compare[T cmp.Ordered](a, b Cell[T]) int {
	return CompareFunc(a, b, cmp.Compare[T])
}

// CompareFunc is like Compare but uses f to order present values.
func CompareFunc[T any](a, b Cell[T], f func(T, T) int) int {
	switch {
	case !a.set && !b.set:
		return 0
	case !a.set:
		return -1
	case !b.set:
		return 1
	}
	return f(a.value, b.value)
}

// CompareTimeDesc orders time cells most recent first. Absent still sorts first.
func CompareTimeDesc(a, b Cell[time.Time]) int {
	return CompareFunc(a, b, func(x, y time.Time) int {
		return y.Compare(x)
	})
}

// Equal reports whether two cells hold the same value. Metadata is ignored.
// Times are equal when they denote the same instant, whatever their location.
func Equal[T comparable](a, b Cell[T]) bool {
	if a.set != b.set {
		return false
	}
	if !a.set {
		return true
	}
	if x, ok := any(a.value).(time.Time); ok {
		return x.Equal(any(b.value).(time.Time))
	}
	return a.value == b.value
}
