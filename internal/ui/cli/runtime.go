package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	coreapp "jjsdev/internal/core/app"
	"jjsdev/internal/core/config"
	"jjsdev/internal/core/ports"
	"jjsdev/internal/shared/observability"
	"jjsdev/internal/shared/treelog"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("jjsdev v%s\n", versionString)
		return 0
	}

	configureLogging("INFO", opts.verbose)

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	configureLogging(cfg.Observability.LogLevel, opts.verbose)

	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := cfg.Observability.TraceEndpoint; endpoint != "" {
		shutdown, err := observability.InitTracing(ctx, endpoint)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err, "endpoint", endpoint)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	app, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close app", "error", err)
		}
	}()

	return run(ctx, app, cfg, cfgPath, opts, os.Stdout)
}

func run(ctx context.Context, app *coreapp.App, cfg *config.Config, cfgPath string, opts cliOptions, out io.Writer) int {
	svc := app.BuildService()

	if opts.archiveIn != "" {
		if _, err := svc.LoadArchive(ctx, opts.archiveIn); err != nil {
			slog.Error("failed to load archive", "error", err, "path", opts.archiveIn)
			return 1
		}
	}

	res, err := svc.Build(ctx, ports.BuildRequest{Strict: cfg.Build.Strict})
	printSummary(out, res)
	if err != nil {
		slog.Error("build failed", "error", err)
		return 1
	}

	if stop, code := runSingleCommand(ctx, svc, opts, out); stop {
		return code
	}

	if opts.once || !(opts.watch || cfg.Watch.Enabled) {
		return 0
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server := NewObservabilityServer(addr, coreapp.NewHealthService(app))
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	if cfgPath != "" {
		reloader := config.NewWatcher(cfgPath, app.ApplyConfig)
		if err := reloader.Start(ctx); err != nil {
			slog.Warn("config reloading disabled", "error", err, "path", cfgPath)
		} else {
			defer reloader.Stop()
		}
	}

	if err := svc.Watch(ctx, func(res ports.BuildResult, err error) {
		if err == nil {
			printSummary(out, res)
		}
	}); err != nil {
		slog.Error("watch failed", "error", err)
		return 1
	}
	return 0
}

// runSingleCommand handles the modes that print something and exit.
func runSingleCommand(ctx context.Context, svc ports.BuildService, opts cliOptions, out io.Writer) (bool, int) {
	handled := false
	if opts.dump != "" || opts.dumpAll {
		handled = true
		if err := svc.Dump(ctx, out, opts.dump); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return true, 1
		}
	}
	if opts.archiveOut != "" {
		handled = true
		n, err := svc.WriteArchive(ctx, opts.archiveOut)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return true, 1
		}
		fmt.Fprintf(out, "Archived %d units to %s\n", n, opts.archiveOut)
	}
	return handled, 0
}

func printSummary(out io.Writer, res ports.BuildResult) {
	fmt.Fprintf(out, "Built %d units, %d classes in %s (compiled %d, reused %d, invalidated %d, %d rounds)\n",
		res.Units, res.Classes, res.Duration.Round(time.Millisecond),
		res.Stats.Compiled, res.Stats.Reused, res.Stats.Invalidated, res.Stats.Iterations)
	if len(res.ErrorUnits) > 0 {
		fmt.Fprintf(out, "Units with errors (%d):\n", len(res.ErrorUnits))
		for _, name := range res.ErrorUnits {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
}

// loadConfig reads path, or jjsdev.toml when path is empty. The returned
// path is empty when no file backs the config.
func loadConfig(path string) (*config.Config, string, error) {
	if strings.TrimSpace(path) == "" {
		path = config.DefaultFile
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return cfg, "", nil
	}
	return cfg, path, nil
}

func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.once && opts.watch {
		return fmt.Errorf("--once and --watch cannot be combined")
	}
	if opts.dump != "" && opts.dumpAll {
		return fmt.Errorf("--dump and --dump-all cannot be combined")
	}
	if opts.watch && (opts.dump != "" || opts.dumpAll || opts.archiveOut != "") {
		return fmt.Errorf("--watch cannot be combined with --dump, --dump-all or --archive-out")
	}
	if opts.strict {
		cfg.Build.Strict = true
	}
	if len(opts.args) > 0 {
		cfg.SourceRoots = append([]string(nil), opts.args...)
	}
	return nil
}

func configureLogging(level string, verbose bool) {
	logLevel := slog.LevelInfo
	if parsed, err := treelog.ParseLevel(level); err == nil {
		logLevel = parsed.Slog()
	}
	if verbose && logLevel > slog.LevelDebug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
