package core

import "time"

// DispatcherStats represents runtime observability state for a WorkDispatcher.
type DispatcherStats struct {
	Name       string
	Pending    int
	Running    bool
	Executed   int64
	Panicked   int64
	Rejected   int64
	Closed     bool
	LastTaskAt time.Time
}

// BarrierStats represents runtime observability state for a CompletionBarrier.
type BarrierStats struct {
	Name        string
	Generation  Generation
	Required    int
	Remaining   int
	Released    bool
	Waiters     int
	Releases    int64
	StaleDrops  int64
	Overflows   int64
	Initialized bool
}
