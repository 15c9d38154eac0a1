package core

import "github.com/pkg/errors"

var (
	// ErrBarrierUninitialized is returned when a CompletionBarrier is signalled
	// or awaited before the first Reset.
	ErrBarrierUninitialized = errors.New("completion barrier is not initialized")

	// ErrInvalidCount is returned by Reset for a required count below one.
	ErrInvalidCount = errors.New("completion barrier count must be positive")

	// ErrDispatcherClosed is returned by operations on a shut down WorkDispatcher.
	ErrDispatcherClosed = errors.New("work dispatcher is closed")
)
