package pool

import (
	"context"
)

// Task represents a single unit of submitted work.
// A task is executed at most once, by exactly one worker; ownership of
// everything the task captures (e.g. an accepted connection) transfers to
// that worker when the task is dequeued.
type Task interface {
	// Execute performs the task work.
	// A returned error marks the task as failed; failure is contained by the
	// executing worker and never propagates to the pool or to other tasks.
	Execute(ctx context.Context) error

	// Name returns a human-readable name for the task (for logging/debugging)
	Name() string
}

// TaskFunc is a function type that implements Task.
// Allows functions to be used as tasks without creating a struct.
type TaskFunc func(ctx context.Context) error

// Execute implements Task interface for TaskFunc
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Name returns a default name for TaskFunc
func (f TaskFunc) Name() string {
	return "TaskFunc"
}

// NamedTask wraps a TaskFunc with a custom name
type NamedTask struct {
	name string
	task TaskFunc
}

// NewNamedTask creates a new NamedTask
func NewNamedTask(name string, task TaskFunc) *NamedTask {
	return &NamedTask{
		name: name,
		task: task,
	}
}

// Execute implements Task interface
func (t *NamedTask) Execute(ctx context.Context) error {
	return t.task(ctx)
}

// Name returns the task name
func (t *NamedTask) Name() string {
	return t.name
}
