package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockFreeQFIFO(t *testing.T) {
	q := NewLockFreeQ[int]()
	assert.True(t, q.IsEmpty())
	assert.Nil(t, q.Dequeue())

	for i := 0; i < 5; i++ {
		q.Enqueue(i)
	}

	assert.Equal(t, int64(5), q.Len())

	for i := 0; i < 5; i++ {
		v := q.Dequeue()
		require.NotNil(t, v)
		assert.Equal(t, i, *v)
	}

	assert.True(t, q.IsEmpty())
	assert.Equal(t, int64(0), q.Len())
}

func TestLockFreeQConcurrentEnqueue(t *testing.T) {
	q := NewLockFreeQ[int]()

	var wg sync.WaitGroup

	for p := 0; p < 8; p++ {
		wg.Add(1)

		go func(p int) {
			defer wg.Done()

			for i := 0; i < 1000; i++ {
				q.Enqueue(p*1000 + i)
			}
		}(p)
	}

	wg.Wait()

	lastSeen := make(map[int]int)
	count := 0

	for v := q.Dequeue(); v != nil; v = q.Dequeue() {
		producer := *v / 1000
		seq := *v % 1000

		if last, ok := lastSeen[producer]; ok {
			assert.Greater(t, seq, last, "per-producer order must be preserved")
		}

		lastSeen[producer] = seq
		count++
	}

	assert.Equal(t, 8000, count)
	assert.Equal(t, int64(0), q.Len())
}
