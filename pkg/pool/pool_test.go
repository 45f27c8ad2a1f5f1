package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger counts contained task failures without writing to stderr.
type testLogger struct {
	errors int64
}

func (l *testLogger) Errorf(format string, args ...interface{}) {
	atomic.AddInt64(&l.errors, 1)
}

func newTestPool(t *testing.T, workers, queueSize int) (Pool, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	p, err := New(Config{Workers: workers, QueueSize: queueSize, Logger: logger})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, logger
}

func shutdownPool(t *testing.T, p Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()
	for _, workers := range []int{0, -1, -100} {
		if _, err := New(Config{Workers: workers}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("New(Workers=%d) error = %v, want ErrInvalidConfig", workers, err)
		}
	}
}

func TestPool_SpawnsAllWorkersBeforeNewReturns(t *testing.T) {
	t.Parallel()
	const workers = 4

	p, _ := newTestPool(t, workers, workers)

	// All workers must be live immediately: submit one gate-blocked task per
	// worker and require that every one of them starts concurrently.
	var started int64
	gate := make(chan struct{})
	for i := 0; i < workers; i++ {
		err := p.Submit(TaskFunc(func(ctx context.Context) error {
			atomic.AddInt64(&started, 1)
			<-gate
			return nil
		}))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(&started) == workers {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := atomic.LoadInt64(&started); got != workers {
		t.Fatalf("concurrent tasks started = %d, want %d", got, workers)
	}

	close(gate)
	shutdownPool(t, p)
}

func TestPool_ExecutesEachTaskExactlyOnce(t *testing.T) {
	t.Parallel()
	const tasks = 500

	p, _ := newTestPool(t, 8, tasks)

	var counter int64
	for i := 0; i < tasks; i++ {
		err := p.Submit(TaskFunc(func(ctx context.Context) error {
			atomic.AddInt64(&counter, 1)
			return nil
		}))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	shutdownPool(t, p)

	if counter != tasks {
		t.Errorf("executed %d tasks, want %d", counter, tasks)
	}
	if got := p.Stats().CompletedTasks; got != tasks {
		t.Errorf("Stats().CompletedTasks = %d, want %d", got, tasks)
	}
}

func TestPool_SingleWorkerPreservesFIFOOrder(t *testing.T) {
	t.Parallel()
	const tasks = 100

	p, _ := newTestPool(t, 1, tasks)

	var mu sync.Mutex
	var order []int
	for i := 0; i < tasks; i++ {
		i := i
		err := p.Submit(TaskFunc(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	shutdownPool(t, p)

	if len(order) != tasks {
		t.Fatalf("executed %d tasks, want %d", len(order), tasks)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d, tasks executed out of submission order", i, got)
		}
	}
}

// A single slow task must occupy only one worker: fast tasks submitted after
// it complete while it is still running.
func TestPool_SlowTaskDoesNotBlockOtherWorkers(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 4, 16)

	slowRelease := make(chan struct{})
	slowDone := make(chan struct{})
	err := p.Submit(NewNamedTask("slow", func(ctx context.Context) error {
		<-slowRelease
		close(slowDone)
		return nil
	}))
	if err != nil {
		t.Fatalf("Submit slow: %v", err)
	}

	var fastDone int64
	for i := 0; i < 3; i++ {
		err := p.Submit(NewNamedTask(fmt.Sprintf("fast-%d", i), func(ctx context.Context) error {
			atomic.AddInt64(&fastDone, 1)
			return nil
		}))
		if err != nil {
			t.Fatalf("Submit fast: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(&fastDone) == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := atomic.LoadInt64(&fastDone); got != 3 {
		t.Fatalf("fast tasks completed = %d, want 3 while slow task still running", got)
	}
	select {
	case <-slowDone:
		t.Fatal("slow task finished before fast tasks were verified")
	default:
	}

	close(slowRelease)
	shutdownPool(t, p)
}

// A single worker serializes tasks: B submitted after A cannot finish first.
func TestPool_SingleWorkerSerializesTasks(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1, 16)

	var aDone, bDone time.Time
	aRelease := make(chan struct{})
	done := make(chan struct{})

	if err := p.Submit(NewNamedTask("a", func(ctx context.Context) error {
		<-aRelease
		aDone = time.Now()
		return nil
	})); err != nil {
		t.Fatalf("Submit a: %v", err)
	}
	if err := p.Submit(NewNamedTask("b", func(ctx context.Context) error {
		bDone = time.Now()
		close(done)
		return nil
	})); err != nil {
		t.Fatalf("Submit b: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	close(aRelease)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task b never ran")
	}
	if bDone.Before(aDone) {
		t.Errorf("task b finished at %v, before task a at %v", bDone, aDone)
	}

	shutdownPool(t, p)
}

// Shutdown must drain queued tasks: all of them complete and every worker
// joins before Shutdown returns.
func TestPool_ShutdownDrainsQueuedTasks(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 2, 16)

	// Occupy both workers so the follow-up tasks are queued, not running.
	gate := make(chan struct{})
	for i := 0; i < 2; i++ {
		if err := p.Submit(TaskFunc(func(ctx context.Context) error {
			<-gate
			return nil
		})); err != nil {
			t.Fatalf("Submit gate task: %v", err)
		}
	}

	var completed int64
	for i := 0; i < 5; i++ {
		if err := p.Submit(TaskFunc(func(ctx context.Context) error {
			atomic.AddInt64(&completed, 1)
			return nil
		})); err != nil {
			t.Fatalf("Submit queued task: %v", err)
		}
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(gate)
	}()

	shutdownPool(t, p)

	if got := atomic.LoadInt64(&completed); got != 5 {
		t.Errorf("queued tasks completed before Shutdown returned = %d, want 5", got)
	}
}

func TestPool_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 2, 4)

	shutdownPool(t, p)
	// A second shutdown must not panic, double-close, or deadlock.
	shutdownPool(t, p)
}

func TestPool_SubmitAfterShutdownFails(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1, 4)
	shutdownPool(t, p)

	var ran int64
	err := p.Submit(TaskFunc(func(ctx context.Context) error {
		atomic.AddInt64(&ran, 1)
		return nil
	}))
	if !errors.Is(err, ErrPoolStopped) {
		t.Fatalf("Submit after shutdown error = %v, want ErrPoolStopped", err)
	}

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt64(&ran) != 0 {
		t.Error("task submitted after shutdown was executed")
	}
}

func TestPool_SubmitQueueFull(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1, 1)

	// First task occupies the worker, second fills the queue.
	gate := make(chan struct{})
	if err := p.Submit(TaskFunc(func(ctx context.Context) error {
		<-gate
		return nil
	})); err != nil {
		t.Fatalf("Submit running task: %v", err)
	}

	// The running task may still be queued for an instant; poll until the
	// worker has picked it up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Stats().QueuedTasks == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.Submit(TaskFunc(func(ctx context.Context) error { return nil })); err != nil {
		t.Fatalf("Submit queued task: %v", err)
	}
	err := p.Submit(TaskFunc(func(ctx context.Context) error { return nil }))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Submit over capacity error = %v, want ErrQueueFull", err)
	}
	if got := p.Stats().RejectedTasks; got != 1 {
		t.Errorf("Stats().RejectedTasks = %d, want 1", got)
	}

	close(gate)
	shutdownPool(t, p)
}

func TestPool_SubmitNilTask(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1, 4)
	defer shutdownPool(t, p)

	if err := p.Submit(nil); err == nil {
		t.Error("Submit(nil) should return an error")
	}
}

// A panicking or failing task is contained: it is logged, counted, and the
// worker keeps processing subsequent tasks.
func TestPool_TaskFailureIsContained(t *testing.T) {
	t.Parallel()

	p, logger := newTestPool(t, 1, 8)

	if err := p.Submit(NewNamedTask("panics", func(ctx context.Context) error {
		panic("boom")
	})); err != nil {
		t.Fatalf("Submit panicking task: %v", err)
	}
	if err := p.Submit(NewNamedTask("fails", func(ctx context.Context) error {
		return errors.New("task error")
	})); err != nil {
		t.Fatalf("Submit failing task: %v", err)
	}

	var ran int64
	if err := p.Submit(NewNamedTask("after", func(ctx context.Context) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})); err != nil {
		t.Fatalf("Submit follow-up task: %v", err)
	}

	shutdownPool(t, p)

	if atomic.LoadInt64(&ran) != 1 {
		t.Error("worker did not survive a failing task")
	}
	stats := p.Stats()
	if stats.FailedTasks != 2 {
		t.Errorf("Stats().FailedTasks = %d, want 2", stats.FailedTasks)
	}
	if stats.CompletedTasks != 1 {
		t.Errorf("Stats().CompletedTasks = %d, want 1", stats.CompletedTasks)
	}
	if got := atomic.LoadInt64(&logger.errors); got != 2 {
		t.Errorf("logged failures = %d, want 2", got)
	}
}

func TestPool_ShutdownTimeout(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1, 4)

	gate := make(chan struct{})
	if err := p.Submit(TaskFunc(func(ctx context.Context) error {
		<-gate
		return nil
	})); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Shutdown(ctx); err == nil {
		t.Error("Shutdown should time out while a task is still running")
	}

	close(gate)
}

func TestPool_WorkersAndStats(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 3, 10)
	defer shutdownPool(t, p)

	if got := p.Workers(); got != 3 {
		t.Errorf("Workers() = %d, want 3", got)
	}
	stats := p.Stats()
	if stats.Workers != 3 {
		t.Errorf("Stats().Workers = %d, want 3", stats.Workers)
	}
	if stats.QueueCapacity != 10 {
		t.Errorf("Stats().QueueCapacity = %d, want 10", stats.QueueCapacity)
	}
}
