// Package platformstrategy marshals output onto a host's designated
// execution context (a "UI thread") and counts completions from a fixed
// number of participants.
//
// # Quick Start
//
//	ui := platformstrategy.NewWorkDispatcher("ui", nil)
//	defer ui.Stop()
//
//	host := platformstrategy.NewHostHandle(ui, nil)
//	strategy := platformstrategy.New(platformstrategy.NewWriterSink(os.Stdout), host)
//
//	strategy.Begin()
//	go func() { strategy.Print("Ping!"); strategy.Done() }()
//	go func() { strategy.Print("Pong!"); strategy.Done() }()
//	_ = strategy.AwaitDone()
//
// # Key Concepts
//
// WorkDispatcher: runs posted tasks one at a time, in submission order, on a
// dedicated goroutine. PostTask never blocks.
//
// CompletionBarrier: requires N signals per generation. Reset opens a new
// generation; signals aimed at an older one are ignored. Signalling or
// awaiting before the first Reset fails with ErrBarrierUninitialized.
//
// PlatformStrategy: Print and Done submit work to the designated context,
// Begin resets the barrier and AwaitDone waits on it. Missing hosts and
// outputs are reported through the Logger as "<REASON> in PlatformStrategy".
//
// HostHandle: a non-owning reference to the host with an explicit liveness
// check, consulted each time a work item runs.
package platformstrategy
