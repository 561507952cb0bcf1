package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	coreapp "facet/internal/core/app"
	"facet/internal/core/config"
	"facet/internal/core/ports"
	"facet/internal/data/history"
	"facet/internal/shared/observability"
	"facet/internal/shared/util"
	"facet/internal/shared/version"
	"facet/internal/ui/report"
)

const defaultProjectKey = "default"

// Run executes the CLI with the given arguments and returns a process exit code.
func Run(args []string) int {
	opts, err := parseOptions(args, os.Stderr)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("facet v%s\n", version.Version)
		return 0
	}

	cleanup := configureLogging(opts.ui, opts.verbose)
	defer cleanup()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: resolve working directory: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	formats, err := parseFormats(opts.formats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Positional paths feed project-root detection, so modes apply first.
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: resolve paths: %v\n", err)
		return 1
	}

	ctx := context.Background()

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: set up tracing: %v\n", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("failed to shut down tracing", "error", err)
			}
		}()
	}

	projection, err := initializeProjection(coreProjectionFactory{}, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: initialize projection: %v\n", err)
		return 1
	}
	defer func() {
		if closer, ok := projection.(interface{ Close(context.Context) error }); ok {
			if err := closer.Close(context.Background()); err != nil {
				slog.Warn("failed to close projection service", "error", err)
			}
		}
	}()

	if cfg.Observability.Enabled {
		if unwrapper, ok := projection.(interface{ Unwrap() *coreapp.App }); ok {
			obsServer := NewObservabilityServer(fmt.Sprintf(":%d", cfg.Observability.Port), unwrapper.Unwrap())
			if err := obsServer.Start(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: start observability server: %v\n", err)
				return 1
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := obsServer.Stop(stopCtx); err != nil {
					slog.Warn("failed to stop observability server", "error", err)
				}
			}()
		}
	}

	start := time.Now()
	scan, err := projection.RunScan(ctx, ports.ScanRequest{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: initial scan: %v\n", err)
		return 1
	}
	for _, warning := range scan.Warnings {
		slog.Warn("scan warning", "detail", warning)
	}
	slog.Info("initial scan complete",
		"files", scan.FilesScanned,
		"declarations", scan.Declarations,
		"classes", scan.Classes,
		"duration", time.Since(start))

	if handled, code := runSingleCommand(ctx, opts, projection); handled {
		return code
	}

	store, err := openHistoryStoreIfEnabled(opts.history, cfg, paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("failed to close history store", "error", err)
			}
		}()
		if unwrapper, ok := projection.(interface{ Unwrap() *coreapp.App }); ok {
			unwrapper.Unwrap().AttachHistory(store, defaultProjectKey, paths.ProjectRoot)
		}
	}

	snap, err := projection.SummarySnapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: summarize projection: %v\n", err)
		return 1
	}

	if _, err := projection.SyncOutputs(ctx, ports.SyncOutputsRequest{Formats: formats}); err != nil {
		slog.Error("failed to sync outputs", "error", err)
	}

	var trend *history.TrendReport
	if opts.history {
		trend, err = runHistoryMode(ctx, opts, projection, paths.ProjectRoot, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if !opts.ui {
		if err := projection.PrintSummary(ctx, ports.SummaryPrintRequest{Duration: time.Since(start), Snapshot: snap}); err != nil {
			slog.Warn("failed to print summary", "error", err)
		}
	}

	if opts.once {
		return 0
	}

	watch := projection.WatchService()
	if err := watch.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: start watcher: %v\n", err)
		return 1
	}
	slog.Info("watching for changes", "paths", cfg.WatchPaths)

	if opts.ui {
		return runUI(ctx, projection, watch, trend)
	}

	select {}
}

func runSingleCommand(ctx context.Context, opts cliOptions, projection ports.ProjectionService) (bool, int) {
	switch {
	case opts.class != "":
		inspection, err := projection.InspectClass(ctx, opts.class)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return true, 1
		}
		fmt.Print(coreapp.FormatClassInspection(inspection))
		return true, 0
	case opts.reportMarkdown:
		result, err := projection.GenerateMarkdownReport(ctx, ports.MarkdownReportRequest{WriteFile: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return true, 1
		}
		fmt.Printf("Report written: %s\n", result.Path)
		return true, 0
	default:
		return false, 0
	}
}

func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.class != "" && opts.reportMarkdown {
		return fmt.Errorf("--class and --report cannot be combined")
	}
	if opts.ui && (opts.class != "" || opts.reportMarkdown) {
		return fmt.Errorf("--ui cannot be combined with --class or --report")
	}
	if opts.ui && opts.once {
		return fmt.Errorf("--ui cannot be combined with --once")
	}
	if !opts.history && (opts.historyTSV != "" || opts.historyJSON != "") {
		return fmt.Errorf("--history-tsv and --history-json require --history")
	}
	if opts.history {
		if _, err := parseSince(opts.since); err != nil {
			return err
		}
		if _, err := parseHistoryWindow(opts.historyWindow); err != nil {
			return err
		}
	}

	if len(opts.args) > 0 {
		paths := make([]string, 0, len(opts.args))
		for _, arg := range opts.args {
			if trimmed := strings.TrimSpace(arg); trimmed != "" {
				paths = append(paths, trimmed)
			}
		}
		if len(paths) > 0 {
			cfg.WatchPaths = paths
		}
	}
	return nil
}

func parseFormats(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var formats []string
	for _, part := range strings.Split(raw, ",") {
		format := strings.ToLower(strings.TrimSpace(part))
		if format == "" {
			continue
		}
		switch format {
		case "tsv", "markdown", "stubs":
			formats = append(formats, format)
		default:
			return nil, fmt.Errorf("--formats accepts tsv, markdown and stubs, got %q", format)
		}
	}
	return formats, nil
}

func parseSince(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("--since must be RFC3339 or YYYY-MM-DD, got %q", raw)
}

func parseHistoryWindow(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 24 * time.Hour, nil
	}
	window, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("--history-window must be a Go duration (example: 24h), got %q", raw)
	}
	if window <= 0 {
		return 0, fmt.Errorf("--history-window must be > 0, got %q", raw)
	}
	return window, nil
}

func loadConfig(customPath, cwd string) (*config.Config, error) {
	if customPath != "" {
		cfg, err := config.Load(customPath)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", customPath, err)
		}
		return cfg, nil
	}
	return discoverDefaultConfig(cwd)
}

func discoverDefaultConfig(cwd string) (*config.Config, error) {
	candidates := []string{
		filepath.Join(cwd, "data", "config", "facet.toml"),
		filepath.Join(cwd, "facet.toml"),
		filepath.Join(cwd, "data", "config", "facet.example.toml"),
		filepath.Join(cwd, "facet.example.toml"),
	}

	var lastErr error
	for _, candidate := range candidates {
		cfg, err := config.Load(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			lastErr = fmt.Errorf("load config %q: %w", candidate, err)
			continue
		}
		if candidate == filepath.Join(cwd, "facet.toml") {
			fmt.Fprintln(os.Stderr, "warning: using deprecated config path ./facet.toml; migrate to ./data/config/facet.toml")
		}
		return cfg, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no default config file found (looked for %s)", defaultConfigPath)
}

func openHistoryStoreIfEnabled(enabled bool, cfg *config.Config, paths config.ResolvedPaths) (*history.Store, error) {
	if !enabled || !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(paths.DBPath, history.Options{
		BusyTimeout: cfg.History.BusyTimeout,
		KeepRuns:    cfg.History.KeepRuns,
	})
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

func runHistoryMode(ctx context.Context, opts cliOptions, projection ports.ProjectionService, projectRoot string, store *history.Store) (*history.TrendReport, error) {
	if store == nil {
		return nil, fmt.Errorf("history is disabled in the config; enable [history] to use --history")
	}
	since, err := parseSince(opts.since)
	if err != nil {
		return nil, err
	}
	window, err := parseHistoryWindow(opts.historyWindow)
	if err != nil {
		return nil, err
	}

	result, err := projection.CaptureHistoryTrend(ctx, history.NewAdapter(store), ports.HistoryTrendRequest{
		ProjectKey:  defaultProjectKey,
		ProjectRoot: projectRoot,
		Since:       since,
		Window:      window,
	})
	if err != nil {
		return nil, err
	}
	if result.Report == nil {
		fmt.Println("History: no snapshots matched the requested time window.")
		return nil, nil
	}

	trend := *result.Report
	fmt.Printf("History: %d snapshots from %s to %s\n", trend.RunCount,
		trend.Since.Format("2006-01-02 15:04:05"), trend.Until.Format("2006-01-02 15:04:05"))
	if len(trend.Points) > 0 {
		latest := trend.Points[len(trend.Points)-1]
		fmt.Printf("Trend latest: classes=%d (%+d), skipped=%d (%+d), errors=%d (%+d)\n",
			latest.ClassCount, latest.DeltaClasses,
			latest.SkippedCount, latest.DeltaSkipped,
			latest.ErrorCount, latest.DeltaErrors)
	}

	if opts.historyTSV != "" {
		data, err := report.RenderTrendTSV(trend)
		if err != nil {
			return nil, fmt.Errorf("render trend TSV: %w", err)
		}
		if err := writeBytes(opts.historyTSV, data); err != nil {
			return nil, fmt.Errorf("write trend TSV %q: %w", opts.historyTSV, err)
		}
	}
	if opts.historyJSON != "" {
		data, err := report.RenderTrendJSON(trend)
		if err != nil {
			return nil, fmt.Errorf("render trend JSON: %w", err)
		}
		if err := writeBytes(opts.historyJSON, data); err != nil {
			return nil, fmt.Errorf("write trend JSON %q: %w", opts.historyJSON, err)
		}
	}
	return result.Report, nil
}

func writeBytes(path string, data []byte) error {
	return util.WriteFileWithDirs(path, data, 0o644)
}

// configureLogging routes slog to stderr, or to a state-dir log file when the
// terminal is owned by the UI. The returned cleanup closes the log file.
func configureLogging(ui, verbose bool) func() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	if !ui {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return func() {}
	}

	discard := func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})))
	}

	logPath := resolveLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create log directory for %s: %v\n", logPath, err)
		discard()
		return func() {}
	}
	if info, err := os.Lstat(logPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		fmt.Fprintf(os.Stderr, "warning: refusing to log to symlink %s\n", logPath)
		discard()
		return func() {}
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open log file %s: %v\n", logPath, err)
		discard()
		return func() {}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))
	return func() { _ = logFile.Close() }
}

func resolveLogPath() string {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, "facet", "facet.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "facet.log"
	}
	return filepath.Join(home, ".local", "state", "facet", "facet.log")
}
