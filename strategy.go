package platformstrategy

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Swind/go-platform-strategy/core"
)

// Reasons logged by PlatformStrategy. Each is logged as "<reason> in PlatformStrategy".
const (
	OutputIsNull        = "OUTPUT_IS_NULL"
	ActivityParamIsNull = "ACTIVITYPARAM_IS_NULL"
	ActivityIsNull      = "ACTIVITY_IS_NULL"
)

const strategyName = "PlatformStrategy"

// numberOfThreads is how many Done calls release AwaitDone: one per player.
const numberOfThreads = 2

// PlatformStrategy marshals output onto the host's designated execution
// context and lets a driver wait until every participant reported done.
//
// Print and Done never block; their work runs later, in submission order,
// on the designated context. AwaitDone blocks the calling goroutine only.
type PlatformStrategy struct {
	output OutputSink
	host   *HostHandle

	exec    core.Executor
	owned   *core.WorkDispatcher
	barrier *core.CompletionBarrier

	required int
	logger   core.Logger
}

// Option configures a PlatformStrategy.
type Option func(*options)

type options struct {
	logger  core.Logger
	metrics core.Metrics
	exec    core.Executor
}

// WithLogger sets the logger used for structured error reports.
func WithLogger(l core.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink for the barrier and any owned dispatcher.
func WithMetrics(m core.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithExecutor overrides where work items are submitted. By default they go
// to the host's executor, or to an owned WorkDispatcher when there is no host.
func WithExecutor(e core.Executor) Option {
	return func(o *options) { o.exec = e }
}

// New creates a PlatformStrategy. A nil output or host is logged and
// tolerated; the strategy stays usable in a degraded mode.
func New(output OutputSink, host *HostHandle, opts ...Option) *PlatformStrategy {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = core.NewDefaultLogger()
	}
	if o.metrics == nil {
		o.metrics = &core.NilMetrics{}
	}

	s := &PlatformStrategy{
		output:   output,
		host:     host,
		barrier:  core.NewCompletionBarrier(strategyName, o.metrics),
		required: numberOfThreads,
		logger:   o.logger,
	}

	if output == nil {
		s.logError(OutputIsNull)
	}
	if host == nil {
		s.logError(ActivityParamIsNull)
	}

	switch {
	case o.exec != nil:
		s.exec = o.exec
	case host.Executor() != nil:
		s.exec = host.Executor()
	default:
		s.owned = core.NewWorkDispatcher(strategyName, &core.DispatcherConfig{
			Logger:  o.logger,
			Metrics: o.metrics,
		})
		s.exec = s.owned
	}

	return s
}

func (s *PlatformStrategy) logError(reason string) {
	s.logger.Error(reason+" in "+strategyName, core.F("tag", strategyName))
}

// Begin opens a new completion generation. Done items submitted for an
// earlier generation no longer count.
func (s *PlatformStrategy) Begin() {
	if _, err := s.barrier.Reset(s.required); err != nil {
		// required is fixed at construction and always positive.
		panic(errors.Wrap(err, "reset completion barrier"))
	}
}

// Done submits one work item that counts a completion when it runs on the
// designated context.
//
// Running the item before any Begin panics with core.ErrBarrierUninitialized
// on the designated context.
func (s *PlatformStrategy) Done() {
	gen := s.barrier.Generation()
	s.exec.PostTask(func(ctx context.Context) {
		if !s.host.Alive() {
			s.logError(ActivityIsNull)
			return
		}
		if _, err := s.barrier.SignalGeneration(gen); err != nil {
			panic(errors.WithStack(err))
		}
	})
}

// AwaitDone blocks until the current generation received all its Done calls.
// It returns core.ErrBarrierUninitialized when Begin was never called.
func (s *PlatformStrategy) AwaitDone() error {
	return s.AwaitDoneContext(context.Background())
}

// AwaitDoneContext is AwaitDone bounded by ctx.
func (s *PlatformStrategy) AwaitDoneContext(ctx context.Context) error {
	return s.barrier.Await(ctx)
}

// Print submits one work item that appends text and a newline to the output.
func (s *PlatformStrategy) Print(text string) {
	s.exec.PostTask(func(ctx context.Context) {
		if !s.host.Alive() {
			s.logError(ActivityIsNull)
			return
		}
		if s.output == nil {
			return
		}
		s.output.Append(text + "\n")
	})
}

// Barrier exposes the completion barrier, mainly for stats polling.
func (s *PlatformStrategy) Barrier() *core.CompletionBarrier {
	return s.barrier
}

// Dispatcher returns the owned WorkDispatcher, or nil when work goes to an
// executor supplied by the host or an option.
func (s *PlatformStrategy) Dispatcher() *core.WorkDispatcher {
	return s.owned
}

// Close stops the owned dispatcher after it drains. Host executors are left alone.
func (s *PlatformStrategy) Close() {
	if s.owned != nil {
		s.owned.Stop()
	}
}
