package utils

import (
	"sync"
)

// ParallelTask is one unit of work for RunParallelTasks.
type ParallelTask[T any] func() (T, error)

// RunParallelTasks executes the tasks concurrently. results[i] and errs[i]
// belong to tasks[i].
func RunParallelTasks[T any](tasks []ParallelTask[T]) ([]T, []error) {
	var wg sync.WaitGroup
	results := make([]T, len(tasks))
	errs := make([]error, len(tasks))

	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(index int, t ParallelTask[T]) {
			defer wg.Done()
			results[index], errs[index] = t()
		}(i, task)
	}

	wg.Wait()
	return results, errs
}

// FirstError returns the first non-nil error.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// WorkerPool runs submitted funcs on a fixed number of goroutines.
type WorkerPool struct {
	taskChan chan func()
	wg       sync.WaitGroup
}

func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	pool := &WorkerPool{taskChan: make(chan func(), maxWorkers*2)}
	for i := 0; i < maxWorkers; i++ {
		go pool.worker()
	}
	return pool
}

func (p *WorkerPool) worker() {
	for task := range p.taskChan {
		task()
		p.wg.Done()
	}
}

// AddTask blocks while the queue is full.
func (p *WorkerPool) AddTask(task func()) {
	p.wg.Add(1)
	p.taskChan <- task
}

func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close stops the workers; no AddTask calls may follow.
func (p *WorkerPool) Close() {
	close(p.taskChan)
}
