package util

import (
	"sync/atomic"
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// LockFreeQ is a FIFO queue that is safe for concurrent Enqueue but must be
// drained by a single consumer.
// Reference: https://www.cs.rochester.edu/research/synchronization/pseudocode/queues.html
type LockFreeQ[T any] struct {
	tail   atomic.Pointer[node[T]]
	head   *node[T]
	length atomic.Int64
}

func NewLockFreeQ[T any]() *LockFreeQ[T] {
	return &LockFreeQ[T]{
		head: &node[T]{},
	}
}

// Enqueue is thread safe, it uses atomic operations to add to the queue.
func (q *LockFreeQ[T]) Enqueue(v T) {
	n := &node[T]{value: v}

	q.length.Add(1)

	prev := q.tail.Swap(n)
	if prev == nil {
		q.head.next.Store(n)
		return
	}

	prev.next.Store(n)
}

// Dequeue is not thread safe, it should only be called from a single goroutine.
func (q *LockFreeQ[T]) Dequeue() *T {
	next := q.head.next.Load()
	if next == nil {
		return nil
	}

	q.head = next
	q.length.Add(-1)

	return &next.value
}

func (q *LockFreeQ[T]) IsEmpty() bool {
	return q.head.next.Load() == nil
}

// Len is the number of enqueued items not yet dequeued. An item being linked by a
// concurrent Enqueue is already counted.
func (q *LockFreeQ[T]) Len() int64 {
	return q.length.Load()
}
