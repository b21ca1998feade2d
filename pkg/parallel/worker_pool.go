// Package parallel runs independent merge tasks on a bounded set of goroutines.
package parallel

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Task is one unit of work. A non-nil error is reported by Wait.
type Task func() error

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan Task
	wg        sync.WaitGroup // live workers
	pending   sync.WaitGroup // submitted but unfinished tasks
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu

	errMu sync.Mutex
	err   error // first failure since the last Wait
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan Task, workers*2),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		wp.record(wp.run(task))
		wp.pending.Done()
	}
}

// run executes task, turning a panic into an error so one bad merge
// cannot take the worker down with it.
func (wp *WorkerPool) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}

func (wp *WorkerPool) record(err error) {
	if err == nil {
		return
	}
	wp.errMu.Lock()
	if wp.err == nil {
		wp.err = err
	}
	wp.errMu.Unlock()
}

// Submit queues a task. It blocks while the queue is full and returns
// ErrPoolClosed once Close has been called.
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	wp.pending.Add(1)
	wp.taskQueue <- task
	return nil
}

// Wait blocks until every submitted task has finished and returns the first
// error any of them reported. The error is cleared so the pool can be
// reused for the next batch.
func (wp *WorkerPool) Wait() error {
	wp.pending.Wait()

	wp.errMu.Lock()
	defer wp.errMu.Unlock()
	err := wp.err
	wp.err = nil
	return err
}

// Close drains queued tasks and stops the workers.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
