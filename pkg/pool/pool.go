// Package pool provides a bounded worker pool: a fixed number of long-lived
// worker goroutines draining a shared FIFO task queue, with graceful
// drain-then-join shutdown.
package pool

import (
	"context"
	"errors"
)

var (
	// ErrInvalidConfig is returned by New when the pool is configured with
	// fewer than one worker. The pool rejects the configuration instead of
	// silently clamping it: a zero-worker pool is a caller bug, not a tuning
	// choice.
	ErrInvalidConfig = errors.New("pool requires at least one worker")

	// ErrPoolStopped is returned by Submit after shutdown has begun.
	// The task is never enqueued.
	ErrPoolStopped = errors.New("pool is stopped")

	// ErrQueueFull is returned by Submit when the task queue is at capacity
	// (backpressure). The task is never enqueued.
	ErrQueueFull = errors.New("task queue is full")
)

// Stats provides statistics about pool activity.
type Stats struct {
	QueuedTasks      int64   // Current number of queued tasks
	CompletedTasks   int64   // Total tasks executed without error
	FailedTasks      int64   // Total tasks that returned an error or panicked
	RejectedTasks    int64   // Total tasks rejected by backpressure or stop
	Workers          int     // Number of worker goroutines
	QueueCapacity    int     // Maximum queue capacity
	QueueUtilization float64 // Queue utilization percentage
}

// Pool distributes tasks across a fixed set of worker goroutines.
//
// Concurrency contract: up to Workers() tasks execute truly concurrently;
// additional submissions queue in FIFO order and experience head-of-line
// blocking behind longer-running tasks ahead of them. This is the deliberate
// throughput ceiling the design accepts in exchange for bounded resource use.
type Pool interface {
	// Submit enqueues a task for asynchronous execution. It never blocks:
	// it returns ErrPoolStopped after shutdown has begun and ErrQueueFull
	// when the queue is at capacity.
	Submit(task Task) error

	// Shutdown stops the pool: no new tasks are accepted, already-queued
	// tasks drain, and the call blocks until every worker has finished its
	// current task and exited (up to ctx deadline). Shutdown is idempotent.
	Shutdown(ctx context.Context) error

	// Workers returns the number of worker goroutines.
	Workers() int

	// Stats returns current pool statistics.
	Stats() Stats
}

// Config configures a Pool.
type Config struct {
	Workers   int    // Number of worker goroutines (must be >= 1)
	QueueSize int    // Task queue capacity (bounded for backpressure)
	Logger    Logger // Destination for contained task failures; optional
}

// DefaultConfig returns default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 256,
	}
}
