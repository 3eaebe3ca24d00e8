package utils

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunParallelTasksKeepsOrder(t *testing.T) {
	boom := errors.New("boom")
	results, errs := RunParallelTasks([]ParallelTask[int]{
		func() (int, error) { return 1, nil },
		func() (int, error) { return 0, boom },
		func() (int, error) { return 3, nil },
	})
	assert.Equal(t, []int{1, 0, 3}, results)
	assert.Nil(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.ErrorIs(t, FirstError(errs), boom)
	assert.NoError(t, FirstError([]error{nil, nil}))
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var n atomic.Int32
	for i := 0; i < 20; i++ {
		pool.AddTask(func() { n.Add(1) })
	}
	pool.Wait()
	assert.EqualValues(t, 20, n.Load())
}
