package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"facet/internal/core/config"
	apperrors "facet/internal/core/errors"
	"facet/internal/core/ports"
	"facet/internal/data/history"
	"facet/internal/engine/parser"
	"facet/internal/shared/observability"
	"facet/internal/shared/util"
)

var (
	_ ports.ProjectionService = (*projectionService)(nil)
	_ ports.WatchService      = (*watchService)(nil)
	_ ports.CodeParser        = (*parser.Parser)(nil)
	_ ports.HistoryStore      = (*history.Adapter)(nil)
)

// projectionService adapts App to the ports.ProjectionService contract
// consumed by the driving adapters.
type projectionService struct {
	app *App
}

// NewProjectionService wraps an app in its service contract.
func NewProjectionService(app *App) ports.ProjectionService {
	return &projectionService{app: app}
}

// ProjectionService returns the app behind the ports contract.
func (a *App) ProjectionService() ports.ProjectionService {
	return NewProjectionService(a)
}

// RunScan parses the requested paths, or the configured watch paths when
// none are given, and reports the resulting projection counts.
func (s *projectionService) RunScan(ctx context.Context, req ports.ScanRequest) (ports.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "projectionService.RunScan", trace.WithAttributes())
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.ScanResult{}, err
	}
	if s.app == nil {
		return ports.ScanResult{}, fmt.Errorf("app is required")
	}
	if s.app.Config == nil {
		return ports.ScanResult{}, fmt.Errorf("config is required")
	}

	paths := uniqueScanRoots(req.Paths)
	var filesScanned int
	var warnings []string

	if len(paths) == 0 {
		if err := s.app.InitialScan(ctx); err != nil {
			return ports.ScanResult{}, apperrors.AddContext(err, apperrors.CtxOperation, "initial_scan")
		}
		filesScanned = s.app.Project.FileCount()
	} else {
		files, err := s.app.ScanDirectories(paths, s.app.Config.Exclude.Dirs, s.app.Config.Exclude.Files)
		if err != nil {
			return ports.ScanResult{}, apperrors.AddContext(err, apperrors.CtxOperation, "scan_directories")
		}
		for i, filePath := range files {
			if err := ctx.Err(); err != nil {
				return ports.ScanResult{}, err
			}
			if err := s.app.ProcessFile(filePath); err != nil {
				warnings = append(warnings, fmt.Sprintf("process %s: %v", filePath, err))
			}
			if i%100 == 0 {
				if util.GetHeapAllocMB() > uint64(s.app.Config.Performance.MaxHeapMB) {
					s.app.PruneCache(20)
				}
			}
		}
		filesScanned = len(files)
	}

	proj, err := s.app.ProjectClasses(ctx)
	if err != nil {
		return ports.ScanResult{}, err
	}

	return ports.ScanResult{
		FilesScanned: filesScanned,
		Declarations: proj.DeclCount,
		Classes:      len(proj.Rows),
		Warnings:     warnings,
	}, nil
}

func (s *projectionService) InspectClass(ctx context.Context, qualifiedName string) (ports.ClassInspection, error) {
	if err := ctx.Err(); err != nil {
		return ports.ClassInspection{}, err
	}
	if s.app == nil {
		return ports.ClassInspection{}, fmt.Errorf("app is required")
	}
	return s.app.InspectClass(ctx, qualifiedName)
}

// CaptureHistoryTrend projects the current state, stores it as a
// snapshot and builds a trend report over the loaded window.
func (s *projectionService) CaptureHistoryTrend(ctx context.Context, historyStore ports.HistoryStore, req ports.HistoryTrendRequest) (ports.HistoryTrendResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.HistoryTrendResult{}, err
	}
	if s.app == nil {
		return ports.HistoryTrendResult{}, fmt.Errorf("app is required")
	}
	if historyStore == nil {
		return ports.HistoryTrendResult{}, fmt.Errorf("history store is required")
	}

	projectKey := strings.TrimSpace(req.ProjectKey)
	if projectKey == "" {
		projectKey = "default"
	}
	window := req.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	projectRoot := strings.TrimSpace(req.ProjectRoot)
	if projectRoot == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectRoot = cwd
		}
	}

	proj, err := s.app.ProjectClasses(ctx)
	if err != nil {
		return ports.HistoryTrendResult{}, err
	}

	snapshot := s.app.buildSnapshot(proj, projectRoot, 0)
	if err := historyStore.SaveSnapshot(projectKey, snapshot); err != nil {
		return ports.HistoryTrendResult{}, fmt.Errorf("save history snapshot: %w", err)
	}
	observability.SnapshotsSavedTotal.Inc()

	snapshots, err := historyStore.LoadSnapshots(projectKey, req.Since)
	if err != nil {
		return ports.HistoryTrendResult{}, fmt.Errorf("load history snapshots: %w", err)
	}

	result := ports.HistoryTrendResult{
		SnapshotSaved:      true,
		SnapshotsEvaluated: len(snapshots),
		LatestClassCount:   snapshot.ClassCount,
		LatestSkippedCount: snapshot.SkippedCount,
		LatestErrorCount:   snapshot.ErrorCount,
	}
	if len(snapshots) == 0 {
		return result, nil
	}

	trend, err := history.BuildTrendReport(snapshots, window)
	if err != nil {
		return ports.HistoryTrendResult{}, fmt.Errorf("build trend report: %w", err)
	}
	result.Report = &trend
	return result, nil
}

func (s *projectionService) WatchService() ports.WatchService {
	return &watchService{app: s.app}
}

func (s *projectionService) SummarySnapshot(ctx context.Context) (ports.SummarySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return ports.SummarySnapshot{}, err
	}
	if s.app == nil {
		return ports.SummarySnapshot{}, fmt.Errorf("app is required")
	}

	proj, err := s.app.ProjectClasses(ctx)
	if err != nil {
		return ports.SummarySnapshot{}, err
	}

	stats := s.app.Project.Stubs().Stats()
	return ports.SummarySnapshot{
		FileCount:       s.app.Project.FileCount(),
		DeclCount:       proj.DeclCount,
		ClassCount:      len(proj.Rows),
		LocalCount:      proj.LocalCount,
		DeprecatedCount: proj.DeprecatedCount,
		StubHits:        stats.Hits,
		StubMisses:      stats.Misses,
		Classes:         summarizeRows(proj.Rows),
		Skipped:         skippedDecls(proj.Skipped),
		ParseFailures:   append([]ports.ParseFailure(nil), proj.ParseFailures...),
	}, nil
}

func (s *projectionService) PrintSummary(ctx context.Context, req ports.SummaryPrintRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	snap := req.Snapshot
	s.app.PrintSummary(snap.FileCount, snap.DeclCount, req.Duration, snap.Classes, snap.Skipped, snap.ParseFailures)
	return nil
}

// SyncOutputs regenerates the artifacts for the requested formats. An
// empty format list means every configured target.
func (s *projectionService) SyncOutputs(ctx context.Context, req ports.SyncOutputsRequest) (ports.SyncOutputsResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.SyncOutputsResult{}, err
	}
	if s.app == nil {
		return ports.SyncOutputsResult{}, fmt.Errorf("app is required")
	}
	if s.app.Config == nil {
		return ports.SyncOutputsResult{}, fmt.Errorf("config is required")
	}

	formats := formatSet(req.Formats)
	for format := range formats {
		switch format {
		case "tsv", "markdown", "stubs":
		default:
			return ports.SyncOutputsResult{}, fmt.Errorf("unsupported output format %q (expected tsv, markdown or stubs)", format)
		}
	}

	proj, err := s.app.ProjectClasses(ctx)
	if err != nil {
		return ports.SyncOutputsResult{}, err
	}

	// Narrow the configured targets to the requested formats for the
	// duration of this sync.
	original := s.app.Config.Output
	filtered := original
	if len(formats) > 0 {
		if !formats["tsv"] {
			filtered.TSV = ""
		}
		if !formats["markdown"] {
			filtered.Markdown = ""
			filtered.UpdateMarkdown = nil
		}
		if !formats["stubs"] {
			filtered.StubsDir = ""
		}
	}
	s.app.Config.Output = filtered
	defer func() { s.app.Config.Output = original }()

	targets, err := s.app.resolveOutputTargets()
	if err != nil {
		return ports.SyncOutputsResult{}, err
	}
	if err := s.app.GenerateOutputs(ctx, proj); err != nil {
		return ports.SyncOutputsResult{}, err
	}

	var written []string
	if targets.TSV != "" {
		written = append(written, targets.TSV)
	}
	if targets.Markdown != "" {
		written = append(written, targets.Markdown)
	}
	if targets.StubsDir != "" {
		written = append(written, targets.StubsDir)
	}
	for _, injection := range filtered.UpdateMarkdown {
		written = append(written, config.ResolveRelative(targets.ProjectRoot, injection.File))
	}
	return ports.SyncOutputsResult{Written: uniqueStrings(written)}, nil
}

func (s *projectionService) GenerateMarkdownReport(ctx context.Context, req ports.MarkdownReportRequest) (ports.MarkdownReportResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.MarkdownReportResult{}, err
	}
	if s.app == nil {
		return ports.MarkdownReportResult{}, fmt.Errorf("app is required")
	}
	req.WriteFile = req.WriteFile || strings.TrimSpace(req.Path) != ""
	return s.app.GenerateMarkdownReport(ctx, req)
}

// Close releases the watcher and history resources held by the app.
func (s *projectionService) Close(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.Close(ctx)
}

// Unwrap exposes the underlying app to adapters that need direct access.
func (s *projectionService) Unwrap() *App {
	return s.app
}

type watchService struct {
	app *App
}

func (w *watchService) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.app == nil {
		return fmt.Errorf("app is required")
	}
	return w.app.StartWatcher()
}

func (w *watchService) CurrentUpdate(ctx context.Context) (ports.WatchUpdate, error) {
	if err := ctx.Err(); err != nil {
		return ports.WatchUpdate{}, err
	}
	if w.app == nil {
		return ports.WatchUpdate{}, fmt.Errorf("app is required")
	}
	update, err := w.app.CurrentUpdate(ctx)
	if err != nil {
		return ports.WatchUpdate{}, err
	}
	return toWatchUpdate(update), nil
}

// Subscribe registers handler for future updates. The subscription ends
// when ctx is cancelled.
func (w *watchService) Subscribe(ctx context.Context, handler func(ports.WatchUpdate)) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if w.app == nil {
		return fmt.Errorf("app is required")
	}
	w.app.SetUpdateHandler(func(update Update) {
		if ctx.Err() != nil {
			return
		}
		handler(toWatchUpdate(update))
	})
	return nil
}

func toWatchUpdate(update Update) ports.WatchUpdate {
	return ports.WatchUpdate{
		Classes:         append([]ports.ClassSummary(nil), update.Classes...),
		Skipped:         append([]ports.SkippedDecl(nil), update.Skipped...),
		ParseFailures:   append([]ports.ParseFailure(nil), update.ParseFailures...),
		FileCount:       update.FileCount,
		ClassCount:      update.ClassCount,
		DeprecatedCount: update.DeprecatedCount,
	}
}

func formatSet(formats []string) map[string]bool {
	set := make(map[string]bool, len(formats))
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}
		set[format] = true
	}
	return set
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	return unique
}
