// Package app wires the parser, the project index and the output
// generators into one application core shared by the CLI, the TUI and
// the observability server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"facet/internal/core/config"
	"facet/internal/core/ports"
	"facet/internal/core/watcher"
	"facet/internal/data/history"
	"facet/internal/engine/parser"
	"facet/internal/engine/project"
	"facet/internal/shared/observability"
	"facet/internal/shared/util"
)

// Update is the payload pushed to subscribers after every projection
// pass. Slices are owned by the receiver and never mutated afterwards.
type Update struct {
	Classes         []ports.ClassSummary
	Skipped         []ports.SkippedDecl
	ParseFailures   []ports.ParseFailure
	FileCount       int
	ClassCount      int
	DeprecatedCount int
}

// App owns the mutable projection state for one watched project.
type App struct {
	Config  *config.Config
	Parser  *parser.Parser
	Project *project.Project

	excludeDirGlobs  []glob.Glob
	excludeFileGlobs []glob.Glob

	// limiter paces rebuilds triggered by file events; nil means unlimited.
	limiter *util.Limiter

	history     *history.Store
	projectKey  string
	projectRoot string

	activeWatcher *watcher.Watcher

	updateMu sync.RWMutex
	onUpdate func(Update)

	failuresMu     sync.RWMutex
	failuresByFile map[string]string
}

// New builds an App from a validated config. Exclude patterns are
// compiled once here so the scan and watch paths share them.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	dirGlobs, err := compileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return nil, err
	}

	var limiter *util.Limiter
	if cfg.Watch.RebuildsPerSecond > 0 {
		limiter = util.NewLimiter(cfg.Watch.RebuildsPerSecond, 1)
	}

	proj := project.New(project.Options{
		StubCacheSize:       cfg.Cache.Stubs,
		DeprecatedNames:     cfg.Projection.DeprecatedNames,
		BuiltinPathPrefixes: cfg.Projection.BuiltinPrefixes,
	})

	return &App{
		Config:           cfg,
		Parser:           parser.NewParser(),
		Project:          proj,
		excludeDirGlobs:  dirGlobs,
		excludeFileGlobs: fileGlobs,
		limiter:          limiter,
		failuresByFile:   make(map[string]string),
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// AttachHistory hands the app an open snapshot store. The app captures a
// snapshot after every watch update; the caller keeps ownership of the
// store until Close.
func (a *App) AttachHistory(store *history.Store, projectKey, projectRoot string) {
	a.history = store
	a.projectKey = projectKey
	a.projectRoot = projectRoot
}

// SetUpdateHandler registers the callback invoked after each projection
// pass. Only one handler is active at a time.
func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// CurrentUpdate runs a fresh projection pass and returns it in the same
// shape the watch callback delivers.
func (a *App) CurrentUpdate(ctx context.Context) (Update, error) {
	proj, err := a.ProjectClasses(ctx)
	if err != nil {
		return Update{}, err
	}
	return a.updateFromProjection(proj), nil
}

func (a *App) updateFromProjection(proj *Projection) Update {
	return Update{
		Classes:         summarizeRows(proj.Rows),
		Skipped:         skippedDecls(proj.Skipped),
		ParseFailures:   append([]ports.ParseFailure(nil), proj.ParseFailures...),
		FileCount:       a.Project.FileCount(),
		ClassCount:      len(proj.Rows),
		DeprecatedCount: proj.DeprecatedCount,
	}
}

// StartWatcher begins watching the configured paths and re-projecting on
// changes. It returns immediately; events arrive on watcher goroutines.
func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Exclude.Dirs, a.Config.Exclude.Files, a.HandleChanges)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	a.activeWatcher = w
	return w.Watch(a.Config.WatchPaths)
}

// HandleChanges is the debounced watcher callback. It refreshes the
// changed files, re-projects the whole project and regenerates outputs.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))

	ctx := context.Background()
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, 1); err != nil {
			return
		}
	}
	start := time.Now()

	for _, path := range paths {
		if !a.Parser.IsSupportedPath(path) {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.Project.Remove(path)
			a.clearParseFailure(path)
			continue
		}
		if err := a.ProcessFile(path); err != nil {
			slog.Warn("failed to re-process file", "path", path, "error", err)
		}
	}

	proj, err := a.ProjectClasses(ctx)
	if err != nil {
		slog.Error("failed to project classes", "error", err)
		return
	}

	if err := a.GenerateOutputs(ctx, proj); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	duration := time.Since(start)
	a.PrintSummary(len(paths), proj.DeclCount, duration,
		summarizeRows(proj.Rows), skippedDecls(proj.Skipped), proj.ParseFailures)
	a.emitUpdate(a.updateFromProjection(proj))
	a.captureSnapshot(proj, duration)

	if a.Config.Alerts.Beep && (len(proj.ParseFailures) > 0 || len(proj.Skipped) > 0) {
		fmt.Print("\a")
	}
}

// captureSnapshot persists the pass to the attached history store. A
// failed save is logged, never fatal for the watch loop.
func (a *App) captureSnapshot(proj *Projection, duration time.Duration) {
	if a.history == nil {
		return
	}
	snapshot := a.buildSnapshot(proj, a.projectRoot, duration)
	if err := a.history.SaveSnapshot(a.projectKey, snapshot); err != nil {
		slog.Warn("failed to save history snapshot", "error", err)
		return
	}
	observability.SnapshotsSavedTotal.Inc()
}

func (a *App) buildSnapshot(proj *Projection, projectRoot string, duration time.Duration) history.Snapshot {
	stats := a.Project.Stubs().Stats()
	commitHash, commitTime := history.ResolveGitMetadata(projectRoot)
	return history.Snapshot{
		Timestamp:       time.Now().UTC(),
		CommitHash:      commitHash,
		CommitTimestamp: commitTime,
		FileCount:       a.Project.FileCount(),
		DeclCount:       proj.DeclCount,
		ClassCount:      len(proj.Rows),
		LocalCount:      proj.LocalCount,
		SkippedCount:    len(proj.Skipped),
		DeprecatedCount: proj.DeprecatedCount,
		ErrorCount:      len(proj.ParseFailures),
		StubHits:        stats.Hits,
		StubMisses:      stats.Misses,
		DurationMillis:  duration.Milliseconds(),
	}
}

func (a *App) recordParseFailure(path string, err error) {
	a.failuresMu.Lock()
	defer a.failuresMu.Unlock()
	a.failuresByFile[path] = err.Error()
}

func (a *App) clearParseFailure(path string) {
	a.failuresMu.Lock()
	defer a.failuresMu.Unlock()
	delete(a.failuresByFile, path)
}

func (a *App) parseFailures() []ports.ParseFailure {
	a.failuresMu.RLock()
	defer a.failuresMu.RUnlock()

	failures := make([]ports.ParseFailure, 0, len(a.failuresByFile))
	for file, message := range a.failuresByFile {
		failures = append(failures, ports.ParseFailure{File: file, Message: message})
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].File < failures[j].File })
	return failures
}

// PruneCache evicts roughly percentage percent of the stub cache and
// returns the number of dropped bundles.
func (a *App) PruneCache(percentage int) int {
	pruned := a.Project.Stubs().Prune(percentage)
	if pruned > 0 {
		slog.Debug("pruned stub cache", "entries", pruned)
	}
	return pruned
}

// Close stops the watcher and releases the history store if one is
// attached.
func (a *App) Close(ctx context.Context) error {
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			return fmt.Errorf("close watcher: %w", err)
		}
		a.activeWatcher = nil
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			return fmt.Errorf("close history store: %w", err)
		}
		a.history = nil
	}
	return ctx.Err()
}
