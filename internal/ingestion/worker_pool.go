package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task represents a unit of work to be processed by the worker pool
type Task func(ctx context.Context) error

// WorkerPool runs tasks on a fixed number of goroutines and collects their errors.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	closeOnce sync.Once
	errMu     sync.Mutex
	errs      []error
}

// NewWorkerPool creates a pool bound to ctx with the given number of workers.
func NewWorkerPool(ctx context.Context, workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start launches worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	log.Debug().Int("workers", wp.workerCount).Msg("worker pool started")
}

// Submit queues a task. It returns the context error once the pool is cancelled.
func (wp *WorkerPool) Submit(task Task) error {
	select {
	case wp.taskQueue <- task:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Wait closes the queue, blocks until every queued task ran and returns
// the joined task errors.
func (wp *WorkerPool) Wait() error {
	wp.closeOnce.Do(func() { close(wp.taskQueue) })
	wp.wg.Wait()
	wp.cancel()

	wp.errMu.Lock()
	defer wp.errMu.Unlock()
	return errors.Join(wp.errs...)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		if err := wp.ctx.Err(); err != nil {
			wp.record(err)
			continue
		}
		if err := task(wp.ctx); err != nil {
			log.Warn().Err(err).Int("worker", id).Msg("task failed")
			wp.record(err)
		}
	}
}

func (wp *WorkerPool) record(err error) {
	wp.errMu.Lock()
	wp.errs = append(wp.errs, err)
	wp.errMu.Unlock()
}
