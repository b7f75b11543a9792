package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/harrycheng1/iperf2-mirror/internal/config"
	"github.com/harrycheng1/iperf2-mirror/internal/dashboard"
	"github.com/harrycheng1/iperf2-mirror/internal/markov"
	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
	"github.com/harrycheng1/iperf2-mirror/internal/output"
	"github.com/harrycheng1/iperf2-mirror/internal/runner"
	"github.com/harrycheng1/iperf2-mirror/internal/sockio"
	"github.com/harrycheng1/iperf2-mirror/internal/tracing"
)

const tracingShutdownTimeout = 5 * time.Second

type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[iperfmir] transfer failed: %v\n", err)
}

// connTracker collects every connection opened by stream factories so the
// run can close them all on the way out. Factories run concurrently.
type connTracker struct {
	mu    sync.Mutex
	conns []io.Closer
}

func (t *connTracker) add(c io.Closer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns = append(t.conns, c)
}

func (t *connTracker) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.conns {
		_ = c.Close()
	}
	t.conns = nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Reject a broken traffic model before any socket is opened.
	if cfg.Markov != "" {
		if _, err := markov.Parse(cfg.Markov); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	collector := metrics.NewCollector()
	cancelToken := sockio.NewCanceler()

	var conns connTracker
	defer conns.closeAll()

	var factory runner.StreamFactory
	if cfg.Mode == config.ModeServer {
		serverFactory, listener, err := newServerFactory(cfg, collector, cancelToken, &conns)
		if err != nil {
			return err
		}
		factory = serverFactory
		if listener != nil {
			defer listener.Close()
			go func() {
				// Unblocks Accept when the run is interrupted.
				<-ctx.Done()
				listener.Close()
			}()
		}
	} else {
		factory = newClientFactory(cfg, collector, cancelToken, &conns)
	}

	if cfg.Tracing.Enabled() {
		factory = withTransferSpans(factory, provider, cfg)
	}

	if cfg.LogErrors {
		inner := factory
		logger := &stderrFailureLogger{}
		factory = func(worker int) (runner.Stream, error) {
			s, err := inner(worker)
			if err != nil {
				return nil, err
			}
			return runner.WithLogging(s, logger), nil
		}
	}

	opts := runner.Options{
		Parallel:      cfg.Parallel,
		TotalBytes:    cfg.TotalBytes,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  toRunnerArrivalModel(cfg.Arrival.Model),
		RandomSeed:    cfg.MarkovSeed,
		Streams:       factory,
		Cancel:        cancelToken,
	}

	r := runner.New(opts)

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.TestConfig{
			Target:     cfg.Addr(),
			Mode:       string(cfg.Mode),
			Protocol:   string(cfg.Protocol),
			Parallel:   cfg.Parallel,
			Duration:   cfg.Duration,
			TotalBytes: cfg.TotalBytes,
			Rate:       cfg.Rate,
			Markov:     cfg.Markov,
			ConfigFile: cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard && cfg.Interval > 0 {
		progress = output.NewProgressReporter(collector, cfg.Interval, os.Stdout)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
		}()
	}

	result := r.Run(ctx)
	stats := collector.Stats(result.Duration)

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, stats); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, stats)
	}

	if result.Errors > 0 {
		return fmt.Errorf("%d transfers failed", result.Errors)
	}
	return nil
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch strings.ToLower(string(model)) {
	case string(config.ArrivalModelPoisson):
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}
