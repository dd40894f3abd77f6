package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/23skdu/longbow-dgemm/internal/arrow_client"
	"github.com/23skdu/longbow-dgemm/internal/bench"
	"github.com/23skdu/longbow-dgemm/internal/clock"
	"github.com/23skdu/longbow-dgemm/internal/config"
	"github.com/23skdu/longbow-dgemm/internal/fill"
	"github.com/23skdu/longbow-dgemm/internal/hostinfo"
	"github.com/23skdu/longbow-dgemm/internal/kernel"
	"github.com/23skdu/longbow-dgemm/internal/kernel/blas"
	"github.com/23skdu/longbow-dgemm/internal/kernel/blocked"
	"github.com/23skdu/longbow-dgemm/internal/kernel/naive"
	"github.com/23skdu/longbow-dgemm/internal/logger"
	"github.com/23skdu/longbow-dgemm/internal/metrics"
	"github.com/23skdu/longbow-dgemm/internal/monitoring"
	"github.com/23skdu/longbow-dgemm/internal/report"
	"github.com/23skdu/longbow-dgemm/internal/timing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Failed to load configuration", err)
	}
	if err := parseFlags(&cfg, flag.CommandLine, os.Args[1:]); err != nil {
		logger.Log.Fatal("Invalid flags", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("Invalid configuration", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchSignals(cancel, syscall.SIGINT, syscall.SIGTERM)

	if err := run(ctx, cfg, os.Stdout, nil); err != nil {
		logger.Log.Fatal("Benchmark failed", err)
	}
}

// watchSignals cancels the run on the first signal and then restores the
// default handlers, so a second signal terminates the process at once.
func watchSignals(cancel context.CancelFunc, sigs ...os.Signal) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sigs...)
	go func() {
		sig := <-sigChan
		signal.Stop(sigChan)
		logger.Log.Warn("Interrupt received, stopping after the current batch", "signal", sig.String())
		cancel()
	}()
}

// parseFlags overlays command line flags on cfg, which already carries
// defaults, .env and environment values.
func parseFlags(cfg *config.Config, fs *flag.FlagSet, args []string) error {
	fs.Func("sizes", `problem sizes: "default", "full", or a comma separated list ending with the largest`, func(s string) error {
		sizes, err := config.ParseSizes(s)
		if err != nil {
			return err
		}
		cfg.Sizes = sizes
		return nil
	})
	fs.Func("threshold", "noise floor per timed batch, e.g. 100ms or 0.1 (default "+cfg.Threshold.String()+")", func(s string) error {
		d, err := config.ParseThreshold(s)
		if err != nil {
			return err
		}
		cfg.Threshold = d
		return nil
	})
	fs.Func("kernel", `optimized kernel: "blocked" or "blas" (default "`+string(cfg.Kernel)+`")`, func(s string) error {
		cfg.Kernel = config.KernelKind(s)
		return nil
	})
	fs.IntVar(&cfg.BlockSize, "block", cfg.BlockSize, "block size for the blocked kernel")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for matrix fill, 0 seeds from the clock")
	fs.IntVar(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "give up when the iteration count exceeds this, 0 for no limit")
	fs.Int64Var(&cfg.MaxBufferBytes, "max-buffer-bytes", cfg.MaxBufferBytes, "refuse to allocate a larger shared buffer, 0 for no limit")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "address to serve Prometheus metrics, empty to disable")
	fs.StringVar(&cfg.ArrowOut, "arrow-out", cfg.ArrowOut, "write results to this Arrow IPC file")
	fs.StringVar(&cfg.FlightAddr, "flight", cfg.FlightAddr, "send results to this Arrow Flight endpoint (host:port)")
	fs.BoolVar(&cfg.Summary, "summary", cfg.Summary, "print best and worst ratio after the table")
	return fs.Parse(args)
}

func optimizedKernel(cfg config.Config) kernel.Kernel {
	if cfg.Kernel == config.KernelBLAS {
		return blas.New()
	}
	return blocked.New(cfg.BlockSize)
}

// run measures cfg.Sizes and writes the table to out. exp overrides the
// Flight exporter when non-nil.
func run(ctx context.Context, cfg config.Config, out io.Writer, exp arrow_client.Exporter) error {
	host := hostinfo.Detect()
	logger.Log.Info("Starting dgemm benchmark", append(host.LogFields(),
		"kernel", string(cfg.Kernel),
		"sizes", len(cfg.Sizes),
		"nmax", cfg.MaxSize(),
		"threshold", cfg.Threshold.String(),
	)...)

	monitor := monitoring.NewHealthMonitor(len(cfg.Sizes))
	if cfg.MetricsAddr != "" {
		if err := monitor.Start(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			monitor.Stop(shutdownCtx)
		}()
	}

	filler := fill.New(cfg.Seed)
	logger.Log.Debug("Matrix fill seeded", "seed", filler.Seed())

	reporter := report.New(out)
	runner := &bench.Runner{
		Sizes: cfg.Sizes,
		Options: timing.Options{
			Threshold:     cfg.Threshold,
			MaxIterations: cfg.MaxIterations,
		},
		Optimized: optimizedKernel(cfg),
		Naive:     naive.New(),
		Clock:     clock.Monotonic(),
		Filler:    filler,
		Allocator: bench.HeapAllocator{MaxBytes: cfg.MaxBufferBytes},
		Reporter:  reporter,
		Observer:  monitor,
	}

	start := time.Now()
	results, err := runner.Run(ctx)
	monitor.Finish(err)
	if err != nil {
		return err
	}
	logger.Log.Info("Benchmark complete", "sizes", len(results), "duration", time.Since(start).String())

	if cfg.Summary {
		if err := reporter.Summary(bench.Rows(results)); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	md := host.Metadata()
	md["description"] = runner.Optimized.Description()
	md["seed"] = strconv.FormatUint(filler.Seed(), 10)
	md["threshold"] = cfg.Threshold.String()

	var errs []error
	if cfg.ArrowOut != "" {
		if err := arrow_client.WriteFile(cfg.ArrowOut, md, results); err != nil {
			metrics.RecordExportError("file")
			errs = append(errs, err)
		} else {
			logger.Log.Info("Results written", "path", cfg.ArrowOut)
		}
	}
	if cfg.FlightAddr != "" || exp != nil {
		if err := exportFlight(ctx, cfg.FlightAddr, exp, md, results); err != nil {
			metrics.RecordExportError("flight")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func exportFlight(ctx context.Context, addr string, exp arrow_client.Exporter, md map[string]string, results []bench.Result) error {
	if exp == nil {
		fc, err := arrow_client.NewFlightClient(addr)
		if err != nil {
			return err
		}
		exp = fc
	}
	if err := exp.Connect(ctx); err != nil {
		return err
	}
	defer exp.Close()
	return exp.DoPut(ctx, arrow_client.DefaultPath, md, results)
}
