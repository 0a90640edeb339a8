// Package worker runs jobs on a fixed set of goroutines fed by a buffered
// queue.
package worker

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolStopped = errors.New("worker pool stopped")

type ProcessFunc[T any] func(ctx context.Context, job T) error

type ErrorFunc[T any] func(job T, err error)

type WorkerPool[T any] struct {
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	onError    ErrorFunc[T]
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewWorkerPool[T any](numWorkers int, bufferSize int, processor ProcessFunc[T]) *WorkerPool[T] {
	return &WorkerPool[T]{
		numWorkers: max(numWorkers, 1),
		jobs:       make(chan T, bufferSize),
		processor:  processor,
	}
}

// OnError registers a callback for jobs whose processor returned an error.
// It must be called before Start.
func (wp *WorkerPool[T]) OnError(fn ErrorFunc[T]) {
	wp.onError = fn
}

func (wp *WorkerPool[T]) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool[T]) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			wp.drain(ctx)
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.process(ctx, job)
		}
	}
}

// drain processes jobs already queued when ctx ends. Jobs accepted by Submit
// are never discarded.
func (wp *WorkerPool[T]) drain(ctx context.Context) {
	for {
		select {
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.process(ctx, job)
		default:
			return
		}
	}
}

func (wp *WorkerPool[T]) process(ctx context.Context, job T) {
	if err := wp.processor(ctx, job); err != nil && wp.onError != nil {
		wp.onError(job, err)
	}
}

// Submit blocks until the job is queued or ctx is done.
func (wp *WorkerPool[T]) Submit(ctx context.Context, job T) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues the job without blocking. It reports false when the queue
// is full or the pool is stopped.
func (wp *WorkerPool[T]) TrySubmit(job T) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return false
	}

	select {
	case wp.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for workers to drain it. Safe to call more
// than once.
func (wp *WorkerPool[T]) Stop() {
	wp.mu.Lock()
	if !wp.stopped {
		wp.stopped = true
		close(wp.jobs)
	}
	wp.mu.Unlock()
	wp.wg.Wait()
}
