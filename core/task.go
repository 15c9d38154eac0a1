package core

import (
	"context"
)

// Task is the unit of work (Closure)
type Task func(ctx context.Context)

// =============================================================================
// Executor: the designated execution context
// =============================================================================

// Executor accepts tasks for execution on a designated context.
// PostTask must return immediately and must never run the task on the
// caller's goroutine.
type Executor interface {
	PostTask(task Task)
}

// ExecutorFunc adapts a plain function to the Executor interface.
// Useful for hosts that already expose a "run on UI thread" primitive.
type ExecutorFunc func(task Task)

// PostTask calls f(task).
func (f ExecutorFunc) PostTask(task Task) {
	f(task)
}

// =============================================================================
// Context Helper
// =============================================================================
type executorKeyType struct{}

var executorKey executorKeyType

// GetCurrentExecutor returns the Executor running the current task, or nil
// when ctx was not handed out by a WorkDispatcher.
func GetCurrentExecutor(ctx context.Context) Executor {
	if v := ctx.Value(executorKey); v != nil {
		return v.(Executor)
	}
	return nil
}
