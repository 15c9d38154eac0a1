package platformstrategy

import "github.com/Swind/go-platform-strategy/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the platformstrategy package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// Executor is the designated execution context work items are submitted to
type Executor = core.Executor

// ExecutorFunc adapts a "run on UI thread" function to Executor
type ExecutorFunc = core.ExecutorFunc

// WorkDispatcher runs tasks in submission order on one dedicated goroutine
type WorkDispatcher = core.WorkDispatcher

// CompletionBarrier releases waiters after N signals per generation
type CompletionBarrier = core.CompletionBarrier

// Logger is the structured logger interface
type Logger = core.Logger

// Errors
var (
	ErrBarrierUninitialized = core.ErrBarrierUninitialized
	ErrDispatcherClosed     = core.ErrDispatcherClosed
)

// NewWorkDispatcher creates a started WorkDispatcher.
// Use it as the host executor when there is no real UI thread.
func NewWorkDispatcher(name string, cfg *core.DispatcherConfig) *WorkDispatcher {
	return core.NewWorkDispatcher(name, cfg)
}

// GetCurrentExecutor retrieves the running Executor from a task's context
var GetCurrentExecutor = core.GetCurrentExecutor
