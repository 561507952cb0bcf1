package history

import "time"

const SchemaVersion = 1

// Snapshot records one projection run over a watched source tree.
type Snapshot struct {
	SchemaVersion   int       `json:"schema_version"`
	RunID           string    `json:"run_id"`
	Timestamp       time.Time `json:"timestamp"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp,omitempty"`
	FileCount       int       `json:"file_count"`
	DeclCount       int       `json:"decl_count"`
	ClassCount      int       `json:"class_count"`
	LocalCount      int       `json:"local_count"`
	SkippedCount    int       `json:"skipped_count"`
	DeprecatedCount int       `json:"deprecated_count"`
	ErrorCount      int       `json:"error_count"`
	StubHits        int64     `json:"stub_hits"`
	StubMisses      int64     `json:"stub_misses"`
	DurationMillis  int64     `json:"duration_ms"`
}

type TrendPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	RunID           string    `json:"run_id,omitempty"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	FileCount       int       `json:"file_count"`
	DeclCount       int       `json:"decl_count"`
	ClassCount      int       `json:"class_count"`
	SkippedCount    int       `json:"skipped_count"`
	DeprecatedCount int       `json:"deprecated_count"`
	ErrorCount      int       `json:"error_count"`
	DeltaFiles      int       `json:"delta_files"`
	DeltaDecls      int       `json:"delta_decls"`
	DeltaClasses    int       `json:"delta_classes"`
	DeltaSkipped    int       `json:"delta_skipped"`
	DeltaDeprecated int       `json:"delta_deprecated"`
	DeltaErrors     int       `json:"delta_errors"`
	ClassGrowthPct  float64   `json:"class_growth_pct"`
	AvgErrors       float64   `json:"avg_errors"`
	AvgSkipped      float64   `json:"avg_skipped"`
	WindowHours     float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
