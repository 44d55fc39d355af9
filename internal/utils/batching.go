package utils

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// BATCH_SIZE matches the DynamoDB BatchWriteItem limit.
	BATCH_SIZE    = 25
	BATCH_TIMEOUT = time.Second * 5
)

// BatchBuffer collects items until a caller drains them.
type BatchBuffer[T any] struct {
	buffer     []T
	capacity   int
	bufferLock sync.Mutex
}

func NewBatchBuffer[T any]() *BatchBuffer[T] {
	return NewBatchBufferSize[T](BATCH_SIZE)
}

func NewBatchBufferSize[T any](capacity int) *BatchBuffer[T] {
	if capacity <= 0 {
		capacity = BATCH_SIZE
	}
	return &BatchBuffer[T]{
		buffer:   make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Add appends item and reports whether the buffer reached capacity.
func (b *BatchBuffer[T]) Add(item T) bool {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	b.buffer = append(b.buffer, item)
	return len(b.buffer) >= b.capacity
}

func (b *BatchBuffer[T]) GetAndClear() []T {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	if len(b.buffer) == 0 {
		return nil
	}

	batch := b.buffer
	b.buffer = make([]T, 0, b.capacity)
	return batch
}

func (b *BatchBuffer[T]) Size() int {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()
	return len(b.buffer)
}

func (b *BatchBuffer[T]) Peek() []T {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	return append([]T(nil), b.buffer...)
}

func (b *BatchBuffer[T]) LogBatchProcessing(batchType string) {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	slog.Info("[BatchBuffer] Processing batch",
		slog.String("type", batchType),
		slog.Int("batch_size", len(b.buffer)))
}
