package ports

import (
	"context"
	"facet/internal/data/history"
	"facet/internal/engine/lang"
	"time"
)

// CodeParser abstracts source parsing and language-file support checks.
type CodeParser interface {
	ParseFile(path string, content []byte) (*lang.File, error)
	LoadFile(path string) (*lang.File, error)
	IsSupportedPath(path string) bool
	SupportedExtensions() []string
}

// HistoryStore abstracts snapshot persistence for trend/report workflows.
type HistoryStore interface {
	SaveSnapshot(projectKey string, snapshot history.Snapshot) error
	LoadSnapshots(projectKey string, since time.Time) ([]history.Snapshot, error)
}

// ScanRequest defines a scan operation request for driving adapters.
type ScanRequest struct {
	Paths []string
}

// ScanResult summarizes a completed scan operation.
type ScanResult struct {
	FilesScanned int
	Declarations int
	Classes      int
	Warnings     []string
}

// SyncOutputsRequest defines output synchronization input for driving adapters.
type SyncOutputsRequest struct {
	Formats []string
}

// SyncOutputsResult contains generated output paths.
type SyncOutputsResult struct {
	Written []string
}

// MarkdownReportRequest defines markdown report generation input.
type MarkdownReportRequest struct {
	Path      string
	WriteFile bool
	Verbosity string
}

// MarkdownReportResult contains markdown report generation results.
type MarkdownReportResult struct {
	Markdown string
	Path     string
	Written  bool
}

// ClassSummary is the compact per-class record shared with driving adapters.
type ClassSummary struct {
	QualifiedName string
	Package       string
	Kind          string
	Deprecated    bool
	Local         bool
	MethodCount   int
	FieldCount    int
	File          string
	Line          int
}

// SkippedDecl records a declaration that produced no class view.
type SkippedDecl struct {
	File   string
	Name   string
	Reason string
}

// ParseFailure records a file the parser could not ingest.
type ParseFailure struct {
	File    string
	Message string
}

// SummarySnapshot captures current projection state for driving adapters.
type SummarySnapshot struct {
	FileCount       int
	DeclCount       int
	ClassCount      int
	LocalCount      int
	DeprecatedCount int
	StubHits        int64
	StubMisses      int64
	Classes         []ClassSummary
	Skipped         []SkippedDecl
	ParseFailures   []ParseFailure
}

// SummaryPrintRequest captures terminal-summary rendering inputs.
type SummaryPrintRequest struct {
	Duration time.Duration
	Snapshot SummarySnapshot
}

// ClassInspection contains everything the single-class lookup surfaces.
type ClassInspection struct {
	Summary        ClassSummary
	Modifiers      []string
	TypeParameters []string
	SuperTypes     []string
	JavaStub       string
	SourceContext  string
}

// WatchUpdate contains state emitted to driving adapters during watch-mode updates.
type WatchUpdate struct {
	Classes         []ClassSummary
	Skipped         []SkippedDecl
	ParseFailures   []ParseFailure
	FileCount       int
	ClassCount      int
	DeprecatedCount int
}

// WatchService exposes watch lifecycle and updates for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	CurrentUpdate(ctx context.Context) (WatchUpdate, error)
	Subscribe(ctx context.Context, handler func(WatchUpdate)) error
}

// ProjectionService defines the driving-port surface over scan/projection use cases.
type ProjectionService interface {
	RunScan(ctx context.Context, req ScanRequest) (ScanResult, error)
	InspectClass(ctx context.Context, qualifiedName string) (ClassInspection, error)
	CaptureHistoryTrend(ctx context.Context, historyStore HistoryStore, req HistoryTrendRequest) (HistoryTrendResult, error)
	WatchService() WatchService
	SummarySnapshot(ctx context.Context) (SummarySnapshot, error)
	PrintSummary(ctx context.Context, req SummaryPrintRequest) error
	SyncOutputs(ctx context.Context, req SyncOutputsRequest) (SyncOutputsResult, error)
	GenerateMarkdownReport(ctx context.Context, req MarkdownReportRequest) (MarkdownReportResult, error)
}

// HistoryTrendRequest captures inputs needed to save a snapshot and compute trends.
type HistoryTrendRequest struct {
	ProjectKey  string
	ProjectRoot string
	Since       time.Time
	Window      time.Duration
}

// HistoryTrendResult contains the optional trend report and saved snapshot metadata.
type HistoryTrendResult struct {
	Report             *history.TrendReport
	SnapshotSaved      bool
	SnapshotsEvaluated int
	LatestClassCount   int
	LatestSkippedCount int
	LatestErrorCount   int
}
