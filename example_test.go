package platformstrategy_test

import (
	"context"
	"fmt"
	"os"

	platformstrategy "github.com/Swind/go-platform-strategy"
	"github.com/Swind/go-platform-strategy/core"
)

// ExampleNewWorkDispatcher demonstrates FIFO execution on the designated goroutine.
func ExampleNewWorkDispatcher() {
	ui := platformstrategy.NewWorkDispatcher("ui", &core.DispatcherConfig{Logger: core.NewNoOpLogger()})
	defer ui.Stop()

	ui.PostTask(func(ctx context.Context) {
		fmt.Println("Task 1")
	})
	ui.PostTask(func(ctx context.Context) {
		fmt.Println("Task 2")
	})
	ui.PostTask(func(ctx context.Context) {
		fmt.Println("Task 3")
	})

	_ = ui.WaitIdle(context.Background())

	// Output:
	// Task 1
	// Task 2
	// Task 3
}

// ExampleNew demonstrates two participants printing and reporting Done.
func ExampleNew() {
	ui := platformstrategy.NewWorkDispatcher("ui", &core.DispatcherConfig{Logger: core.NewNoOpLogger()})
	defer ui.Stop()

	strategy := platformstrategy.New(
		platformstrategy.NewWriterSink(os.Stdout),
		platformstrategy.NewHostHandle(ui, nil),
		platformstrategy.WithLogger(core.NewNoOpLogger()),
	)

	strategy.Begin()
	strategy.Print("first")
	strategy.Done()
	strategy.Print("second")
	strategy.Done()

	if err := strategy.AwaitDone(); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("released")

	// Output:
	// first
	// second
	// released
}
