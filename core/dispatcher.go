package core

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// WorkDispatcher binds a dedicated goroutine that executes posted tasks one
// at a time, in submission order. It plays the role of a host UI thread:
// every task posted to it runs on the same goroutine (thread affinity).
//
// PostTask never blocks and never runs the task on the caller's goroutine.
// The queue is unbounded, so a slow task delays later tasks but never the
// submitters.
type WorkDispatcher struct {
	queue *FIFOTaskQueue
	wake  chan struct{} // capacity 1, coalesces wakeups

	// closed is written under postMu so that no PostTask can slip a task in
	// after the loop decided the queue is drained.
	postMu sync.RWMutex
	closed atomic.Bool

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopped      chan struct{}

	name   string
	config *DispatcherConfig

	running    atomic.Bool
	executed   atomic.Int64
	panicked   atomic.Int64
	rejected   atomic.Int64
	lastTaskAt atomic.Int64 // unix nanos
}

// NewWorkDispatcher creates and starts a WorkDispatcher.
// It immediately spawns the dedicated goroutine. A nil cfg uses DefaultDispatcherConfig.
func NewWorkDispatcher(name string, cfg *DispatcherConfig) *WorkDispatcher {
	d := &WorkDispatcher{
		queue:        NewFIFOTaskQueue(),
		wake:         make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		stopped:      make(chan struct{}),
		name:         name,
		config:       cfg.withDefaults(),
	}

	go d.runLoop()

	return d
}

// Name returns the name of the dispatcher
func (d *WorkDispatcher) Name() string {
	return d.name
}

// PostTask submits a task for execution on the dispatcher goroutine.
func (d *WorkDispatcher) PostTask(task Task) {
	d.postMu.RLock()
	if d.closed.Load() {
		d.postMu.RUnlock()
		d.reject("shutdown")
		return
	}
	depth := d.queue.Push(task)
	d.postMu.RUnlock()

	d.config.Metrics.RecordQueueDepth(d.name, depth)
	d.signalWake()
}

func (d *WorkDispatcher) reject(reason string) {
	d.rejected.Add(1)
	d.config.Metrics.RecordTaskRejected(d.name, reason)
	d.config.RejectedTaskHandler.HandleRejectedTask(d.name, reason)
}

func (d *WorkDispatcher) signalWake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Shutdown stops accepting new tasks. Tasks already queued still run, after
// which the loop exits. It is safe to call from inside a task.
func (d *WorkDispatcher) Shutdown() {
	d.shutdownOnce.Do(func() {
		d.postMu.Lock()
		d.closed.Store(true)
		d.postMu.Unlock()
		close(d.shutdownChan)
		d.signalWake()
	})
}

// IsClosed returns true once Shutdown or Stop has been called
func (d *WorkDispatcher) IsClosed() bool {
	return d.closed.Load()
}

// Stop shuts the dispatcher down and waits for the loop to drain and exit.
// Must not be called from a task running on this dispatcher.
func (d *WorkDispatcher) Stop() {
	d.Shutdown()
	<-d.stopped
}

// WaitShutdown blocks until Shutdown() is called on this dispatcher.
func (d *WorkDispatcher) WaitShutdown(ctx context.Context) error {
	select {
	case <-d.shutdownChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitIdle blocks until all tasks queued before the call have completed.
// It posts a fence task and waits for it to run.
//
// Note: Tasks posted after WaitIdle is called are not waited for.
func (d *WorkDispatcher) WaitIdle(ctx context.Context) error {
	if d.IsClosed() {
		return ErrDispatcherClosed
	}

	done := make(chan struct{})
	d.PostTask(func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-d.stopped:
		// Shutdown raced with the fence post; the fence may have been rejected.
		select {
		case <-done:
			return nil
		default:
			return ErrDispatcherClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the dispatcher state.
func (d *WorkDispatcher) Stats() DispatcherStats {
	var last time.Time
	if ns := d.lastTaskAt.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return DispatcherStats{
		Name:       d.name,
		Pending:    d.queue.Len(),
		Running:    d.running.Load(),
		Executed:   d.executed.Load(),
		Panicked:   d.panicked.Load(),
		Rejected:   d.rejected.Load(),
		Closed:     d.IsClosed(),
		LastTaskAt: last,
	}
}

// runLoop occupies the dedicated goroutine
func (d *WorkDispatcher) runLoop() {
	defer close(d.stopped)

	runCtx := context.WithValue(context.Background(), executorKey, Executor(d))

	for {
		item, ok := d.queue.Pop()
		if ok {
			d.runTask(runCtx, item)
			continue
		}

		d.postMu.RLock()
		drained := d.closed.Load() && d.queue.IsEmpty()
		d.postMu.RUnlock()
		if drained {
			return
		}

		<-d.wake
	}
}

func (d *WorkDispatcher) runTask(ctx context.Context, item TaskItem) {
	d.running.Store(true)
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			d.panicked.Add(1)
			d.config.Metrics.RecordTaskPanic(d.name, rec)
			d.config.PanicHandler.HandlePanic(ctx, d.name, rec, debug.Stack())
		}
		d.running.Store(false)
		d.executed.Add(1)
		d.lastTaskAt.Store(time.Now().UnixNano())
		d.config.Metrics.RecordTaskDuration(d.name, time.Since(start))
		d.config.Metrics.RecordQueueDepth(d.name, d.queue.Len())
	}()

	item.Task(ctx)
}
