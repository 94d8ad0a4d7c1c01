package cli

import (
	coreapp "argspec/internal/core/app"
	"argspec/internal/core/config"
	"argspec/internal/core/ports"
	"argspec/internal/data/history"
	"argspec/internal/shared/observability"
	"argspec/internal/shared/util"
	"argspec/internal/shared/version"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "argspec v%s\n", version.Version)
		return 0
	}
	if err := validateModes(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	cleanupLogs := configureLogging(stderr, opts.ui, opts.quiet, int(opts.verbosity))
	defer cleanupLogs()
	started := time.Now()
	defer func() {
		slog.Debug("run finished", "duration", time.Since(started), "heap_alloc_mb", util.GetHeapAllocMB())
	}()

	cfg, err := config.LoadOrDefault(opts.configPath, opts.configSet)
	if err != nil {
		slog.Error("failed to load config", "path", opts.configPath, "error", err)
		return 1
	}
	applyFlagOverrides(opts, cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		slog.Error("invalid configuration", "error", errors.Join(errs...))
		return 1
	}

	app, err := coreapp.New(cfg, coreapp.Options{SingleRole: opts.singleRole})
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if shutdown := initTracing(ctx, cfg); shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	store, err := openHistoryStore(cfg, app.Paths, opts.history)
	if err != nil {
		slog.Error("history setup failed", "error", err)
		return 1
	}
	var runs ports.HistoryStore
	if store != nil {
		defer store.Close()
		runs = history.NewAdapter(store)
		app.SetHistory(runs)
	}

	switch {
	case opts.listRoles:
		return runListRoles(ctx, app, stdout)
	case opts.validateOnly:
		return runValidate(ctx, app, opts.roles, stdout)
	case opts.history:
		return runHistory(runs, opts, stdout)
	case opts.watch:
		return runWatch(ctx, app, runs, cfg, opts, stdout)
	case opts.fromDefaults != "":
		return runFromDefaults(ctx, app, opts, stdout)
	}
	return runGenerate(ctx, app, opts, stdout)
}

func runGenerate(ctx context.Context, app *coreapp.App, opts cliOptions, stdout io.Writer) int {
	res, err := app.Generate(ctx, ports.GenerateRequest{Roles: opts.roles})
	if err != nil {
		slog.Error("generation failed", "error", err)
		return 1
	}
	if res.DryRun {
		printDryRun(stdout, res)
	}
	if !opts.quiet {
		fmt.Fprint(stdout, renderSummary(res))
	}
	if res.RolesFailed > 0 {
		return 1
	}
	return 0
}

func runFromDefaults(ctx context.Context, app *coreapp.App, opts cliOptions, stdout io.Writer) int {
	res, err := app.GenerateFromDefaults(ctx, ports.FromDefaultsRequest{
		File:       opts.fromDefaults,
		EntryPoint: opts.entryPoint,
	})
	if err != nil {
		slog.Error("generation from defaults failed", "path", opts.fromDefaults, "error", err)
		return 1
	}
	if res.DryRun {
		printDryRun(stdout, res)
	}
	if !opts.quiet {
		fmt.Fprint(stdout, renderSummary(res))
	}
	return 0
}

func printDryRun(w io.Writer, res ports.GenerateResult) {
	if res.Combined != "" {
		fmt.Fprint(w, res.Combined)
		return
	}
	for _, outcome := range res.Roles {
		if outcome.Err != nil {
			continue
		}
		fmt.Fprintf(w, "# %s\n%s", outcome.OutputPath, outcome.YAML)
	}
}

func runListRoles(ctx context.Context, app *coreapp.App, stdout io.Writer) int {
	roles, err := app.ListRoles(ctx)
	if err != nil {
		slog.Error("role discovery failed", "error", err)
		return 1
	}
	for _, role := range roles {
		fmt.Fprintln(stdout, role.Name)
	}
	return 0
}

// runValidate exits 1 when any existing spec file has issues or cannot be
// parsed. Roles without a spec file are reported but do not fail the run.
func runValidate(ctx context.Context, app *coreapp.App, roles []string, stdout io.Writer) int {
	results, err := app.Validate(ctx, roles)
	if err != nil {
		slog.Error("validation failed", "error", err)
		return 1
	}
	fmt.Fprint(stdout, renderValidation(results))
	for _, res := range results {
		if res.Err != nil || len(res.Issues) > 0 {
			return 1
		}
	}
	return 0
}

func runWatch(ctx context.Context, app *coreapp.App, runs ports.HistoryStore, cfg *config.Config, opts cliOptions, stdout io.Writer) int {
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

	if _, err := os.Stat(opts.configPath); err == nil {
		cw := config.NewWatcher(opts.configPath, func(reloaded *config.Config) {
			applyFlagOverrides(opts, reloaded)
			if err := app.UpdateConfig(reloaded); err != nil {
				slog.Error("config reload rejected", "error", err)
				return
			}
			slog.Info("config reloaded", "path", opts.configPath)
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher unavailable", "error", err)
		} else {
			defer cw.Stop()
		}
	}

	req := ports.GenerateRequest{Roles: opts.roles}
	if opts.ui {
		if err := runUI(ctx, app, runs, req); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	err := app.Watch(ctx, req, func(res ports.GenerateResult) {
		if res.DryRun {
			printDryRun(stdout, res)
		}
		if !opts.quiet {
			fmt.Fprint(stdout, renderSummary(res))
		}
	})
	if err != nil {
		slog.Error("watch failed", "error", err)
		return 1
	}
	return 0
}

// openHistoryStore opens the store when recording is enabled or when the
// history listing was requested.
func openHistoryStore(cfg *config.Config, paths config.ResolvedPaths, listing bool) (*history.Store, error) {
	if !cfg.History.Enabled && !listing {
		return nil, nil
	}
	store, err := history.Open(paths.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

func initTracing(ctx context.Context, cfg *config.Config) observability.ShutdownFunc {
	if !cfg.Observability.EnableTracing {
		return nil
	}
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Observability.ServiceName,
		Version:     version.Version,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Observability.OTLPInsecure,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		return nil
	}
	return shutdown
}

// logLevel maps -q and the -v count to a level. Three or more -v also log
// every filtering decision.
func logLevel(quiet bool, verbosity int) slog.Level {
	switch {
	case quiet:
		return slog.LevelError
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	case verbosity == 2:
		return slog.LevelDebug
	}
	return util.LevelTrace
}

// configureLogging installs the default logger. In UI mode logs go to a file
// under the user's state directory so they do not corrupt the dashboard.
func configureLogging(w io.Writer, uiMode, quiet bool, verbosity int) func() {
	output := w
	closeFn := func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(w, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(w, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err != nil {
			fmt.Fprintf(w, "warning: failed to open log file %s: %v\n", logPath, err)
		} else {
			output = f
			closeFn = func() { _ = f.Close() }
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel(quiet, verbosity),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if level, ok := a.Value.Any().(slog.Level); ok && level == util.LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "argspec", "argspec.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "argspec", "argspec.log")
	}

	return "argspec.log"
}
