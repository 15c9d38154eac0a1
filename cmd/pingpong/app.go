package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	platformstrategy "github.com/Swind/go-platform-strategy"
	"github.com/Swind/go-platform-strategy/core"
	obs "github.com/Swind/go-platform-strategy/observability/prometheus"
	"github.com/Swind/go-platform-strategy/pingpong"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "pingpong",
		Usage:     "Play ping/pong through a platform strategy bound to a UI dispatcher",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
			},
			&cli.IntFlag{
				Name:    "rounds",
				Aliases: []string{"n"},
				Usage:   "Rounds per player (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides config)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address, e.g. :2112",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.DurationFlag{
				Name:  "linger",
				Usage: "Keep the metrics endpoint up this long after the game",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: time.Minute,
				Usage: "Abort the game after this long",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := resolveConfig(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			if err := run(c.Context, cfg, c.Duration("timeout"), c.Duration("linger"), stdout, stderr); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// resolveConfig loads the config file, if any, and applies flag overrides.
func resolveConfig(c *cli.Context) (platformstrategy.Config, error) {
	cfg := platformstrategy.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := platformstrategy.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if c.IsSet("rounds") {
		cfg.Rounds = c.Int("rounds")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.Bool("no-color") {
		cfg.Color = false
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg platformstrategy.Config, timeout, linger time.Duration, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := core.NewConsoleLogger(stderr, level)

	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter("platformstrategy", reg, obs.ExporterOptions{})
	if err != nil {
		return errors.Wrap(err, "metrics exporter")
	}

	ui := core.NewWorkDispatcher(cfg.DispatcherName, &core.DispatcherConfig{
		Logger:  logger,
		Metrics: exporter,
	})
	defer ui.Stop()

	strategy := platformstrategy.New(newSink(stdout, cfg.Color), platformstrategy.NewHostHandle(ui, nil),
		platformstrategy.WithLogger(logger),
		platformstrategy.WithMetrics(exporter),
	)
	defer strategy.Close()

	if cfg.MetricsAddr != "" {
		poller, err := obs.NewSnapshotPoller(reg, 100*time.Millisecond)
		if err != nil {
			return errors.Wrap(err, "snapshot poller")
		}
		poller.AddDispatcher(cfg.DispatcherName, ui)
		poller.AddBarrier("strategy", strategy.Barrier())
		poller.Start(ctx)
		defer poller.Stop()

		stop := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer stop()
	}

	gameCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info("game starting", core.F("rounds", cfg.Rounds), core.F("dispatcher", cfg.DispatcherName))
	if err := pingpong.Play(gameCtx, strategy, cfg.Rounds); err != nil {
		return err
	}
	if err := ui.WaitIdle(ctx); err != nil {
		return errors.Wrap(err, "flush output")
	}
	logger.Info("game finished", core.F("generation", uint64(strategy.Barrier().Generation())))

	if cfg.MetricsAddr != "" && linger > 0 {
		select {
		case <-time.After(linger):
		case <-ctx.Done():
		}
	}
	return nil
}

func newSink(w io.Writer, colored bool) platformstrategy.OutputSink {
	if !colored {
		return platformstrategy.NewWriterSink(w)
	}
	return platformstrategy.NewColorSink(w).
		Highlight("Ping!", color.FgCyan).
		Highlight("Pong!", color.FgMagenta).
		Highlight("Done!", color.FgGreen, color.Bold)
}

func serveMetrics(addr string, reg *prom.Registry, logger core.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", core.F("addr", addr), core.F("error", err))
		}
	}()
	logger.Info("serving metrics", core.F("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
