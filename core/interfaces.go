package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution.
// A panicking task belongs to the host; the dispatcher only reports it and
// keeps consuming its queue.
//
// Implementations should be thread-safe.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context handed to the panicked task
	// - dispatcherName: The name of the dispatcher where the panic occurred
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, dispatcherName string, panicInfo any, stackTrace []byte)
}

// LoggingPanicHandler reports panics through a Logger.
type LoggingPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic value and stack at error level.
func (h *LoggingPanicHandler) HandlePanic(ctx context.Context, dispatcherName string, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("task panicked",
		F("dispatcher", dispatcherName),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// SignalResult classifies a barrier signal.
type SignalResult string

const (
	// SignalCounted decremented the active generation.
	SignalCounted SignalResult = "counted"
	// SignalStale targeted a generation that is no longer active.
	SignalStale SignalResult = "stale"
	// SignalOverflow arrived after the generation was already released.
	SignalOverflow SignalResult = "overflow"
)

// Metrics defines the interface for collecting dispatcher and barrier metrics.
// Methods should be non-blocking and fast to avoid impacting task execution.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute.
	RecordTaskDuration(dispatcherName string, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(dispatcherName string, panicInfo any)

	// RecordQueueDepth records the current queue depth.
	RecordQueueDepth(dispatcherName string, depth int)

	// RecordTaskRejected records that a task was rejected (e.g., during shutdown).
	RecordTaskRejected(dispatcherName string, reason string)

	// RecordBarrierReset records a new barrier generation requiring n signals.
	RecordBarrierReset(barrierName string, n int)

	// RecordBarrierSignal records one signal and how it was classified.
	RecordBarrierSignal(barrierName string, result SignalResult)

	// RecordBarrierRelease records a generation reaching zero.
	RecordBarrierRelease(barrierName string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(dispatcherName string, duration time.Duration) {}
func (m *NilMetrics) RecordTaskPanic(dispatcherName string, panicInfo any)             {}
func (m *NilMetrics) RecordQueueDepth(dispatcherName string, depth int)                {}
func (m *NilMetrics) RecordTaskRejected(dispatcherName string, reason string)          {}
func (m *NilMetrics) RecordBarrierReset(barrierName string, n int)                     {}
func (m *NilMetrics) RecordBarrierSignal(barrierName string, result SignalResult)      {}
func (m *NilMetrics) RecordBarrierRelease(barrierName string)                          {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a dispatcher refuses a task, which
// currently only happens after Shutdown.
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedTaskHandler interface {
	HandleRejectedTask(dispatcherName string, reason string)
}

// LoggingRejectedTaskHandler logs rejected tasks at warn level.
type LoggingRejectedTaskHandler struct {
	Logger Logger
}

// HandleRejectedTask logs the rejected task.
func (h *LoggingRejectedTaskHandler) HandleRejectedTask(dispatcherName string, reason string) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn("task rejected", F("dispatcher", dispatcherName), F("reason", reason))
}

// =============================================================================
// DispatcherConfig: Configuration for WorkDispatcher
// =============================================================================

// DispatcherConfig holds configuration options for WorkDispatcher.
// All fields are optional; nil fields are replaced by defaults.
type DispatcherConfig struct {
	// Logger is used by the default handlers. Defaults to NewDefaultLogger().
	Logger Logger

	// PanicHandler is called when a task panics. Defaults to LoggingPanicHandler.
	PanicHandler PanicHandler

	// Metrics records task execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a task is rejected. Defaults to LoggingRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler
}

// DefaultDispatcherConfig returns a config with default handlers.
func DefaultDispatcherConfig() *DispatcherConfig {
	logger := NewDefaultLogger()
	return &DispatcherConfig{
		Logger:              logger,
		PanicHandler:        &LoggingPanicHandler{Logger: logger},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &LoggingRejectedTaskHandler{Logger: logger},
	}
}

// withDefaults fills nil fields without mutating the receiver.
func (c *DispatcherConfig) withDefaults() *DispatcherConfig {
	if c == nil {
		return DefaultDispatcherConfig()
	}
	out := *c
	if out.Logger == nil {
		out.Logger = NewDefaultLogger()
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &LoggingPanicHandler{Logger: out.Logger}
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.RejectedTaskHandler == nil {
		out.RejectedTaskHandler = &LoggingRejectedTaskHandler{Logger: out.Logger}
	}
	return &out
}
