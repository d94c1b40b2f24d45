package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"inlinelog/internal/core/config"
	"inlinelog/internal/core/ports"
	"inlinelog/internal/core/session"
	"inlinelog/internal/shared/observability"
	"inlinelog/internal/shared/util"
	"inlinelog/internal/ui/report/formats"
)

func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr, coreAnalysisFactory{})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory analysisFactory) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "inlinelog v%s\n", versionString)
		return 0
	}

	configureLogging(stderr, opts.verbose)

	if err := validateModeOptions(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}

	cfg, err := loadConfig(opts.configPath, opts.args)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return 1
	}

	gen, err := formats.New(opts.format, !opts.noColor)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer flush("tracing", shutdownTracing)

	svc, err := initializeAnalysis(cfg, paths, factory)
	if err != nil {
		slog.Error("failed to initialize analysis", "error", err)
		return 1
	}
	defer flush("analysis", svc.Close)

	if addr := cfg.Observability.MetricsAddress; addr != "" {
		server := observability.NewServer(addr, svc.Health)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer flush("observability server", server.Stop)
	}

	if opts.once {
		return runOnce(ctx, svc, gen, paths.WatchPaths, opts.output, stdout)
	}
	return runWatch(ctx, svc, gen, cfg, opts.configPath, paths.WatchPaths, stdout)
}

func validateModeOptions(opts cliOptions) error {
	if opts.output != "" && !opts.once {
		return fmt.Errorf("--output requires --once")
	}
	return nil
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist. Positional arguments replace the configured watch paths.
func loadConfig(path string, args []string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Watch.Paths = append([]string(nil), args...)
	}
	return cfg, nil
}

func runOnce(ctx context.Context, svc ports.AnalysisService, gen formats.Generator, paths []string, output string, stdout io.Writer) int {
	res, err := svc.Analyze(ctx, ports.AnalyzeRequest{Paths: paths})
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}
	for _, w := range res.Warnings {
		slog.Warn(w)
	}

	out, err := gen.Generate(res.Files)
	if err != nil {
		slog.Error("failed to render report", "error", err)
		return 1
	}
	if output != "" {
		if err := util.WriteFileAtomic(output, []byte(out), 0o644); err != nil {
			slog.Error("failed to write report", "path", output, "error", err)
			return 1
		}
		slog.Info("report written", "path", output, "files", len(res.Files))
		return 0
	}
	fmt.Fprint(stdout, out)
	return 0
}

func runWatch(ctx context.Context, svc ports.AnalysisService, gen formats.Generator, cfg *config.Config, configPath string, paths []string, stdout io.Writer) int {
	if _, err := os.Stat(configPath); err == nil {
		cw := config.NewWatcher(configPath, func(next *config.Config) {
			if err := svc.Reload(ctx, next); err != nil {
				slog.Warn("failed to apply reloaded config", "error", err)
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload disabled", "path", configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	var mu sync.Mutex
	write := func(text string, err error) {
		if err != nil {
			slog.Error("failed to render output", "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprint(stdout, text)
	}

	handler := ports.WatchHandler{
		OnAnalysis: func(f formats.FileAnnotations) {
			write(gen.Generate([]formats.FileAnnotations{f}))
		},
		OnCorrection: func(c session.Correction) {
			write(gen.Correction(c.Path, c.Annotation))
		},
	}
	if err := svc.Watch(ctx, paths, handler); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("watch failed", "error", err)
		return 1
	}
	return 0
}

func flush(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		slog.Warn("shutdown failed", "component", name, "error", err)
	}
}

func configureLogging(output io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
