package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchBufferFillsToCapacity(t *testing.T) {
	b := NewBatchBufferSize[int](3)
	assert.Zero(t, b.Size())
	assert.Nil(t, b.GetAndClear())

	assert.False(t, b.Add(1))
	assert.False(t, b.Add(2))
	assert.True(t, b.Add(3))
	assert.Equal(t, 3, b.Size())

	assert.Equal(t, []int{1, 2, 3}, b.Peek())
	assert.Equal(t, 3, b.Size(), "peek must not drain")

	assert.Equal(t, []int{1, 2, 3}, b.GetAndClear())
	assert.Zero(t, b.Size())
}

func TestBatchBufferPeekIsACopy(t *testing.T) {
	b := NewBatchBufferSize[string](2)
	b.Add("a")
	snapshot := b.Peek()
	snapshot[0] = "changed"
	assert.Equal(t, []string{"a"}, b.Peek())
}

func TestBatchBufferDefaultCapacity(t *testing.T) {
	b := NewBatchBufferSize[int](0)
	for i := 0; i < BATCH_SIZE-1; i++ {
		require.False(t, b.Add(i))
	}
	assert.True(t, b.Add(BATCH_SIZE))
}

func TestBatchBufferConcurrentAdds(t *testing.T) {
	b := NewBatchBuffer[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Add(i)
		}(i)
	}
	wg.Wait()

	total := 0
	for b.Size() > 0 {
		total += len(b.GetAndClear())
	}
	assert.Equal(t, 50, total)
}
