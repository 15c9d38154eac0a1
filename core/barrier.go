package core

import (
	"context"
	"sync"
)

// Generation identifies one Reset epoch of a CompletionBarrier.
// The zero Generation means the barrier was never reset.
type Generation uint64

// CompletionBarrier releases its waiters once a fixed number of signals has
// arrived for the current generation. Reset starts a new generation and
// invalidates signals aimed at older ones.
//
// State machine per generation:
//
//	Uninitialized --Reset(n)--> Open(remaining=n) --Signal x n--> Released --Reset(n)--> Open ...
//
// Signal and Await on an Uninitialized barrier return ErrBarrierUninitialized.
// Signal on a Released generation is a silent no-op.
//
// Reset must not be called while a waiter of the previous generation is still
// blocked in Await; such a waiter keeps waiting on the old generation.
type CompletionBarrier struct {
	name    string
	metrics Metrics

	mu        sync.Mutex
	gen       Generation
	required  int
	remaining int
	released  chan struct{} // closed when remaining reaches 0
	waiters   int

	releases   int64
	staleDrops int64
	overflows  int64
}

// NewCompletionBarrier creates an uninitialized barrier. metrics may be nil.
func NewCompletionBarrier(name string, metrics Metrics) *CompletionBarrier {
	if metrics == nil {
		metrics = &NilMetrics{}
	}
	return &CompletionBarrier{name: name, metrics: metrics}
}

// Name returns the name given at construction.
func (b *CompletionBarrier) Name() string {
	return b.name
}

// Reset opens a new generation that requires n signals and returns it.
func (b *CompletionBarrier) Reset(n int) (Generation, error) {
	if n < 1 {
		return 0, ErrInvalidCount
	}

	b.mu.Lock()
	b.gen++
	b.required = n
	b.remaining = n
	b.released = make(chan struct{})
	gen := b.gen
	b.mu.Unlock()

	b.metrics.RecordBarrierReset(b.name, n)
	return gen, nil
}

// Generation returns the active generation, 0 if the barrier was never reset.
func (b *CompletionBarrier) Generation() Generation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Signal counts one completion against the active generation.
func (b *CompletionBarrier) Signal() error {
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()
	_, err := b.SignalGeneration(gen)
	return err
}

// SignalGeneration counts one completion against gen. It reports false when
// gen is stale or already released; neither case is an error.
func (b *CompletionBarrier) SignalGeneration(gen Generation) (bool, error) {
	b.mu.Lock()
	if b.gen == 0 {
		b.mu.Unlock()
		return false, ErrBarrierUninitialized
	}

	var result SignalResult
	released := false
	switch {
	case gen != b.gen:
		b.staleDrops++
		result = SignalStale
	case b.remaining == 0:
		b.overflows++
		result = SignalOverflow
	default:
		b.remaining--
		result = SignalCounted
		if b.remaining == 0 {
			close(b.released)
			b.releases++
			released = true
		}
	}
	b.mu.Unlock()

	b.metrics.RecordBarrierSignal(b.name, result)
	if released {
		b.metrics.RecordBarrierRelease(b.name)
	}
	return result == SignalCounted, nil
}

// Await blocks until the active generation is released or ctx is done.
func (b *CompletionBarrier) Await(ctx context.Context) error {
	b.mu.Lock()
	if b.gen == 0 {
		b.mu.Unlock()
		return ErrBarrierUninitialized
	}
	released := b.released
	b.waiters++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.waiters--
		b.mu.Unlock()
	}()

	select {
	case <-released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the barrier state.
func (b *CompletionBarrier) Stats() BarrierStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BarrierStats{
		Name:        b.name,
		Generation:  b.gen,
		Required:    b.required,
		Remaining:   b.remaining,
		Released:    b.gen != 0 && b.remaining == 0,
		Waiters:     b.waiters,
		Releases:    b.releases,
		StaleDrops:  b.staleDrops,
		Overflows:   b.overflows,
		Initialized: b.gen != 0,
	}
}
