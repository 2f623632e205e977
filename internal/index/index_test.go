package index_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/ssrf/internal/index"
)

func TestAllocator_Sequence(t *testing.T) {
	a := index.NewAllocator(0)

	first, err := a.Next()
	require.NoError(t, err)
	second, err := a.Next()
	require.NoError(t, err)

	assert.Equal(t, index.Index(1), first)
	assert.Equal(t, index.Index(2), second)
}

func TestAllocator_NoReuseAfterRemoval(t *testing.T) {
	a := index.NewAllocator(0)

	elements := map[index.Index]string{}
	for _, name := range []string{"a", "b"} {
		i, err := a.Next()
		require.NoError(t, err)
		elements[i] = name
	}

	// Dropping an element does not release its index.
	delete(elements, 1)

	third, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, index.Index(3), third)
}

func TestAllocator_DeterministicStart(t *testing.T) {
	a := index.NewAllocator(41)
	i, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, index.Index(42), i)

	b := index.NewAllocator(41)
	j, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, i, j, "independent allocators must not share state")
}

func TestAllocator_Concurrent(t *testing.T) {
	a := index.NewAllocator(0)

	const workers, perWorker = 16, 500
	results := make(chan index.Index, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n, err := a.Next()
				if err != nil {
					t.Error(err)
					return
				}
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[index.Index]bool, workers*perWorker)
	for n := range results {
		require.False(t, seen[n], "duplicate index %d", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, index.Index(workers*perWorker), a.Last())
}

func TestAllocator_Exhausted(t *testing.T) {
	a, err := index.NewAllocatorWithLimit(0, 2)
	require.NoError(t, err)

	_, err = a.Next()
	require.NoError(t, err)
	_, err = a.Next()
	require.NoError(t, err)

	_, err = a.Next()
	require.ErrorIs(t, err, index.ErrExhausted)

	// Stays exhausted rather than wrapping.
	_, err = a.Next()
	require.ErrorIs(t, err, index.ErrExhausted)
	assert.Equal(t, index.Index(2), a.Last())
}

func TestAllocator_InvalidLimit(t *testing.T) {
	_, err := index.NewAllocatorWithLimit(0, 0)
	require.ErrorIs(t, err, index.ErrInvalidLimit)

	_, err = index.NewAllocatorWithLimit(5, 5)
	require.ErrorIs(t, err, index.ErrInvalidLimit)
}

func TestAllocator_DefaultLimit(t *testing.T) {
	a := index.NewAllocator(index.MaxUN6 - 1)

	last, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, index.MaxUN6, last)

	_, err = a.Next()
	assert.ErrorIs(t, err, index.ErrExhausted)
	assert.Equal(t, index.MaxUN6, a.Limit())
}

func TestAllocator_Observe(t *testing.T) {
	a := index.NewAllocator(0)

	a.Observe(10)
	n, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, index.Index(11), n)

	// Observing a lower index never moves the counter backwards.
	a.Observe(3)
	n, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, index.Index(12), n)
}
