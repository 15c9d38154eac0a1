package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	NilMetrics
	mu       sync.Mutex
	resets   []int
	signals  []SignalResult
	releases int
}

func (m *recordingMetrics) RecordBarrierReset(name string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, n)
}

func (m *recordingMetrics) RecordBarrierSignal(name string, result SignalResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, result)
}

func (m *recordingMetrics) RecordBarrierRelease(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
}

// awaitAsync starts a goroutine blocked in Await and returns a counter that
// becomes 1 once it returns, plus a channel with its error.
func awaitAsync(b *CompletionBarrier) (*atomic.Int32, <-chan error) {
	var released atomic.Int32
	errCh := make(chan error, 1)
	go func() {
		err := b.Await(context.Background())
		released.Add(1)
		errCh <- err
	}()
	return &released, errCh
}

// TestCompletionBarrier_Uninitialized verifies fail-fast behavior before the first Reset
// Main test items:
// 1. Signal returns ErrBarrierUninitialized
// 2. SignalGeneration returns ErrBarrierUninitialized for any generation
// 3. Await returns immediately instead of blocking forever
func TestCompletionBarrier_Uninitialized(t *testing.T) {
	b := NewCompletionBarrier("test", nil)

	assert.Equal(t, Generation(0), b.Generation())
	assert.ErrorIs(t, b.Signal(), ErrBarrierUninitialized)

	counted, err := b.SignalGeneration(0)
	assert.False(t, counted)
	assert.ErrorIs(t, err, ErrBarrierUninitialized)

	done := make(chan error, 1)
	go func() { done <- b.Await(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBarrierUninitialized)
	case <-time.After(time.Second):
		t.Fatal("Await blocked on an uninitialized barrier")
	}

	assert.False(t, b.Stats().Initialized)
}

// TestCompletionBarrier_ResetRejectsInvalidCount verifies n < 1 is refused
func TestCompletionBarrier_ResetRejectsInvalidCount(t *testing.T) {
	b := NewCompletionBarrier("test", nil)

	for _, n := range []int{0, -1} {
		gen, err := b.Reset(n)
		assert.ErrorIs(t, err, ErrInvalidCount)
		assert.Equal(t, Generation(0), gen)
	}
	assert.Equal(t, Generation(0), b.Generation())
}

// TestCompletionBarrier_ReleasesAfterExactlyN verifies the N-of-N contract
// Main test items:
// 1. For several N, the waiter stays blocked after N-1 signals
// 2. The Nth signal releases the waiter
// 3. Release is recorded exactly once
func TestCompletionBarrier_ReleasesAfterExactlyN(t *testing.T) {
	for _, n := range []int{1, 2, 3, 8} {
		metrics := &recordingMetrics{}
		b := NewCompletionBarrier("test", metrics)
		_, err := b.Reset(n)
		require.NoError(t, err)

		released, errCh := awaitAsync(b)

		for i := 0; i < n-1; i++ {
			require.NoError(t, b.Signal())
		}
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(0), released.Load(), "n=%d: released after %d signals", n, n-1)

		require.NoError(t, b.Signal())
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatalf("n=%d: waiter not released after %d signals", n, n)
		}
		assert.Equal(t, int32(1), released.Load())
		assert.Equal(t, 1, metrics.releases)
		assert.Equal(t, []int{n}, metrics.resets)
	}
}

// TestCompletionBarrier_SignalAfterReleaseIsNoOp verifies over-signalling is silent
// Main test items:
// 1. Extra signals return nil and do not drive remaining negative
// 2. Extra signals are classified as overflow
func TestCompletionBarrier_SignalAfterReleaseIsNoOp(t *testing.T) {
	metrics := &recordingMetrics{}
	b := NewCompletionBarrier("test", metrics)
	gen, err := b.Reset(1)
	require.NoError(t, err)

	require.NoError(t, b.Signal())
	require.NoError(t, b.Signal())

	counted, err := b.SignalGeneration(gen)
	require.NoError(t, err)
	assert.False(t, counted)

	stats := b.Stats()
	assert.Equal(t, 0, stats.Remaining)
	assert.True(t, stats.Released)
	assert.Equal(t, int64(1), stats.Releases)
	assert.Equal(t, int64(2), stats.Overflows)
	assert.Equal(t, 1, metrics.releases)
	assert.Equal(t, []SignalResult{SignalCounted, SignalOverflow, SignalOverflow}, metrics.signals)

	// Await on a released generation returns immediately.
	require.NoError(t, b.Await(context.Background()))
}

// TestCompletionBarrier_GenerationsAreIsolated verifies stale signals are ignored
// Main test items:
// 1. Signals tagged with the previous generation do not count against the new one
// 2. Reset restores remaining to the new required count
func TestCompletionBarrier_GenerationsAreIsolated(t *testing.T) {
	b := NewCompletionBarrier("test", nil)
	first, err := b.Reset(2)
	require.NoError(t, err)

	counted, err := b.SignalGeneration(first)
	require.NoError(t, err)
	assert.True(t, counted)

	second, err := b.Reset(2)
	require.NoError(t, err)
	assert.Greater(t, second, first)
	assert.Equal(t, 2, b.Stats().Remaining)

	released, errCh := awaitAsync(b)

	for i := 0; i < 3; i++ {
		counted, err := b.SignalGeneration(first)
		require.NoError(t, err)
		assert.False(t, counted)
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), released.Load())
	assert.Equal(t, 2, b.Stats().Remaining)
	assert.Equal(t, int64(3), b.Stats().StaleDrops)

	_, err = b.SignalGeneration(second)
	require.NoError(t, err)
	_, err = b.SignalGeneration(second)
	require.NoError(t, err)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter not released by current generation signals")
	}
}

// TestCompletionBarrier_ConcurrentSignals verifies exactly-once release under contention
// Main test items:
// 1. Many goroutines signal a barrier requiring fewer signals than they send
// 2. Exactly one release happens and remaining never goes negative
// 3. All waiters are released
func TestCompletionBarrier_ConcurrentSignals(t *testing.T) {
	const required = 50
	const signallers = 200

	metrics := &recordingMetrics{}
	b := NewCompletionBarrier("test", metrics)
	_, err := b.Reset(required)
	require.NoError(t, err)

	var waiters sync.WaitGroup
	for i := 0; i < 5; i++ {
		waiters.Add(1)
		go func() {
			defer waiters.Done()
			assert.NoError(t, b.Await(context.Background()))
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < signallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Signal())
		}()
	}
	wg.Wait()
	waiters.Wait()

	stats := b.Stats()
	assert.Equal(t, 0, stats.Remaining)
	assert.Equal(t, int64(1), stats.Releases)
	assert.Equal(t, int64(signallers-required), stats.Overflows)
	assert.Equal(t, 1, metrics.releases)
}

// TestCompletionBarrier_AwaitHonorsContext verifies cancellation of a blocked waiter
func TestCompletionBarrier_AwaitHonorsContext(t *testing.T) {
	b := NewCompletionBarrier("test", nil)
	_, err := b.Reset(1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = b.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, b.Stats().Waiters)
}

// TestCompletionBarrier_ReusableAcrossGenerations verifies Begin/Await cycles can repeat
func TestCompletionBarrier_ReusableAcrossGenerations(t *testing.T) {
	b := NewCompletionBarrier("test", nil)

	for round := 1; round <= 3; round++ {
		gen, err := b.Reset(2)
		require.NoError(t, err)
		assert.Equal(t, Generation(round), gen)

		require.NoError(t, b.Signal())
		require.NoError(t, b.Signal())
		require.NoError(t, b.Await(context.Background()))
	}
	assert.Equal(t, int64(3), b.Stats().Releases)
}
