package pingpong_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformstrategy "github.com/Swind/go-platform-strategy"
	"github.com/Swind/go-platform-strategy/core"
	"github.com/Swind/go-platform-strategy/pingpong"
)

func newStrategy(t *testing.T, exec core.Executor) (*platformstrategy.PlatformStrategy, *platformstrategy.BufferSink) {
	t.Helper()
	sink := platformstrategy.NewBufferSink()
	s := platformstrategy.New(sink, platformstrategy.NewHostHandle(exec, nil),
		platformstrategy.WithLogger(core.NewNoOpLogger()))
	t.Cleanup(s.Close)
	return s, sink
}

// TestPlay_AlternatesOnDesignatedContext plays a full game on a WorkDispatcher
// Main test items:
// 1. Output starts with the start message and ends with "Done!"
// 2. Ping and Pong strictly alternate for the configured rounds
func TestPlay_AlternatesOnDesignatedContext(t *testing.T) {
	ui := core.NewWorkDispatcher("ui", &core.DispatcherConfig{Logger: core.NewNoOpLogger()})
	defer ui.Stop()
	s, sink := newStrategy(t, ui)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pingpong.Play(ctx, s, 5))
	require.NoError(t, ui.WaitIdle(ctx))

	lines := strings.Split(strings.TrimSuffix(sink.String(), "\n"), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "Ready...Set...Go!", lines[0])
	for i, line := range lines[1:11] {
		if i%2 == 0 {
			assert.Equal(t, "Ping!", line, "line %d", i+1)
		} else {
			assert.Equal(t, "Pong!", line, "line %d", i+1)
		}
	}
	assert.Equal(t, "Done!", lines[11])
}

// TestPlay_RepeatedGamesReuseStrategy verifies Begin opens a fresh generation per game
func TestPlay_RepeatedGamesReuseStrategy(t *testing.T) {
	ui := core.NewWorkDispatcher("ui", &core.DispatcherConfig{Logger: core.NewNoOpLogger()})
	defer ui.Stop()
	s, sink := newStrategy(t, ui)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, pingpong.Play(ctx, s, 2))
	}
	require.NoError(t, ui.WaitIdle(ctx))

	assert.Equal(t, 3, strings.Count(sink.String(), "Done!\n"))
	assert.Equal(t, int64(3), s.Barrier().Stats().Releases)
}

// TestPlay_InvalidRounds verifies argument validation
func TestPlay_InvalidRounds(t *testing.T) {
	s, _ := newStrategy(t, core.ExecutorFunc(func(core.Task) {}))
	assert.Error(t, pingpong.Play(context.Background(), s, 0))
}

// TestPlay_ContextCancelled verifies Play gives up when the done items never run
func TestPlay_ContextCancelled(t *testing.T) {
	// A host that never runs anything: Done is submitted but never counted.
	s, sink := newStrategy(t, core.ExecutorFunc(func(core.Task) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pingpong.Play(ctx, s, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, sink.String())
}
