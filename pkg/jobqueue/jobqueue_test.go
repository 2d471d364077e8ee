package jobqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecuteAllRunsInPushOrder(t *testing.T) {
	var q Queue
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		q.Push(func() { got = append(got, i) })
	}
	q.ExecuteAll()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, q.Len())
}

func TestExecuteAllEmptyIsNoop(t *testing.T) {
	var q Queue
	q.ExecuteAll()
	assert.Equal(t, 0, q.Len())
}

func TestJobMayPushFollowUpWork(t *testing.T) {
	var q Queue
	ran := 0
	q.Push(func() {
		ran++
		q.Push(func() { ran++ })
	})

	// The follow-up job must wait for the next drain.
	q.ExecuteAll()
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, q.Len())

	q.ExecuteAll()
	assert.Equal(t, 2, ran)
}

func TestConcurrentPush(t *testing.T) {
	var q Queue
	var wg sync.WaitGroup
	const n = 100
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(func() {})
		}()
	}
	wg.Wait()
	assert.Equal(t, n, q.Len())
	q.ExecuteAll()
	assert.Equal(t, 0, q.Len())
}
