package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// defaultPool implements Pool using a buffered channel as the task queue.
//
// The channel is the single mutual-exclusion domain of the design: a send
// delivers the task to exactly one receiving worker (wake-one, never a
// broadcast), receives preserve FIFO submission order, and closing the
// channel wakes every idle worker so each can observe the terminal condition
// and exit.
type defaultPool struct {
	taskChan  chan Task
	workers   int
	queueSize int
	wg        sync.WaitGroup
	mu        sync.RWMutex
	stopped   bool
	logger    Logger

	// Metrics (atomic for thread-safety)
	queuedTasks    int64
	completedTasks int64
	failedTasks    int64
	rejectedTasks  int64
}

// New creates a Pool and spawns cfg.Workers worker goroutines immediately;
// all of them are live before New returns. It fails with ErrInvalidConfig
// if cfg.Workers < 1.
func New(cfg Config) (Pool, error) {
	if cfg.Workers < 1 {
		return nil, ErrInvalidConfig
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = newDefaultLogger()
	}

	p := &defaultPool{
		taskChan:  make(chan Task, cfg.QueueSize),
		workers:   cfg.Workers,
		queueSize: cfg.QueueSize,
		logger:    cfg.Logger,
	}

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(i)
	}

	return p, nil
}

// worker drains the task queue until it is closed and empty. It deliberately
// has no other exit path: shutdown closes the queue, so already-queued tasks
// are drained rather than discarded.
func (p *defaultPool) worker(id int) {
	defer p.wg.Done()

	for task := range p.taskChan {
		atomic.AddInt64(&p.queuedTasks, -1)
		p.runTask(id, task)
	}
}

// runTask executes one task with per-task panic isolation. A panicking or
// failing task is logged and counted, and must never terminate the worker
// goroutine or affect other queued or running tasks.
func (p *defaultPool) runTask(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.failedTasks, 1)
			p.logger.Errorf("worker %d: task %s panicked (isolated): %v", id, task.Name(), r)
		}
	}()

	// Tasks are never cancelled once dequeued; they run to completion even
	// during shutdown.
	if err := task.Execute(context.Background()); err != nil {
		atomic.AddInt64(&p.failedTasks, 1)
		p.logger.Errorf("worker %d: task %s failed: %v", id, task.Name(), err)
		return
	}
	atomic.AddInt64(&p.completedTasks, 1)
}

// Submit implements Pool interface
func (p *defaultPool) Submit(task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	// The read lock is held across the send so that Shutdown (which takes
	// the write lock before closing the channel) can never close a channel
	// with a send in flight.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		atomic.AddInt64(&p.rejectedTasks, 1)
		return ErrPoolStopped
	}

	select {
	case p.taskChan <- task:
		atomic.AddInt64(&p.queuedTasks, 1)
		return nil
	default:
		// Queue full - backpressure
		atomic.AddInt64(&p.rejectedTasks, 1)
		return ErrQueueFull
	}
}

// Shutdown implements Pool interface
func (p *defaultPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	// Closing the queue wakes every idle worker; workers keep draining
	// queued tasks until the queue is empty, then exit.
	close(p.taskChan)
	p.mu.Unlock()

	// Wait for workers to finish or timeout
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// Workers implements Pool interface
func (p *defaultPool) Workers() int {
	return p.workers
}

// Stats implements Pool interface
func (p *defaultPool) Stats() Stats {
	queued := atomic.LoadInt64(&p.queuedTasks)
	queueUtilization := float64(queued) / float64(p.queueSize) * 100.0
	if queueUtilization > 100.0 {
		queueUtilization = 100.0
	}

	return Stats{
		QueuedTasks:      queued,
		CompletedTasks:   atomic.LoadInt64(&p.completedTasks),
		FailedTasks:      atomic.LoadInt64(&p.failedTasks),
		RejectedTasks:    atomic.LoadInt64(&p.rejectedTasks),
		Workers:          p.workers,
		QueueCapacity:    p.queueSize,
		QueueUtilization: queueUtilization,
	}
}
