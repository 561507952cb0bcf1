package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	store, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)
	first := Snapshot{
		RunID:      "run-1",
		Timestamp:  base,
		FileCount:  8,
		DeclCount:  12,
		ClassCount: 10,
		ErrorCount: 1,
	}
	rewrite := Snapshot{
		RunID:      "run-1",
		Timestamp:  base,
		FileCount:  8,
		DeclCount:  14,
		ClassCount: 11,
		ErrorCount: 0,
	}
	second := Snapshot{
		RunID:           "run-2",
		Timestamp:       base.Add(2 * time.Hour),
		FileCount:       9,
		DeclCount:       15,
		ClassCount:      13,
		SkippedCount:    2,
		DeprecatedCount: 1,
		StubHits:        40,
		StubMisses:      3,
		DurationMillis:  120,
	}

	if err := store.SaveSnapshot("project-a", first); err != nil {
		t.Fatalf("save first snapshot: %v", err)
	}
	if err := store.SaveSnapshot("project-a", rewrite); err != nil {
		t.Fatalf("save rewritten snapshot: %v", err)
	}
	if err := store.SaveSnapshot("project-a", second); err != nil {
		t.Fatalf("save second snapshot: %v", err)
	}

	got, err := store.LoadSnapshots("project-a", base.Add(1*time.Hour))
	if err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot after since filter, got %d", len(got))
	}
	if got[0].ClassCount != 13 {
		t.Fatalf("expected class_count=13, got %d", got[0].ClassCount)
	}
	if got[0].StubHits != 40 || got[0].DurationMillis != 120 {
		t.Fatalf("expected cache/duration fields to roundtrip, got %+v", got[0])
	}

	// The same run id should have been upserted, not duplicated.
	all, err := store.LoadSnapshots("project-a", time.Time{})
	if err != nil {
		t.Fatalf("load all snapshots: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected deduplicated 2 snapshots, got %d", len(all))
	}
	if all[0].DeclCount != 14 || all[0].ErrorCount != 0 {
		t.Fatalf("expected upserted run-1, got %+v", all[0])
	}
}

func TestStore_SaveSnapshotAssignsRunID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.SaveSnapshot("", Snapshot{ClassCount: 1}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	rows, err := store.LoadSnapshots("default", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(rows))
	}
	if rows[0].RunID == "" {
		t.Fatal("expected a generated run id")
	}
	if rows[0].Timestamp.IsZero() {
		t.Fatal("expected a generated timestamp")
	}
	if rows[0].SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, rows[0].SchemaVersion)
	}
}

func TestStore_PrunesOldRuns(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), Options{KeepRuns: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		snap := Snapshot{
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			ClassCount: i,
		}
		if err := store.SaveSnapshot("project-a", snap); err != nil {
			t.Fatalf("save snapshot %d: %v", i, err)
		}
	}
	// Another project must not count against project-a's retention.
	if err := store.SaveSnapshot("project-b", Snapshot{Timestamp: base, ClassCount: 99}); err != nil {
		t.Fatal(err)
	}

	rows, err := store.LoadSnapshots("project-a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 retained runs, got %d", len(rows))
	}
	if rows[0].ClassCount != 2 || rows[2].ClassCount != 4 {
		t.Fatalf("expected the newest runs retained, got %+v", rows)
	}

	bRows, err := store.LoadSnapshots("project-b", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(bRows) != 1 {
		t.Fatalf("expected project-b untouched by pruning, got %d rows", len(bRows))
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	tmpDir := t.TempDir()
	_, err := Open(tmpDir, Options{})
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, Options{})
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	store, err := Open(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)
	snapshots := []Snapshot{
		{Timestamp: base, FileCount: 5, DeclCount: 9, ClassCount: 8, SkippedCount: 4, ErrorCount: 2},
		{Timestamp: base.Add(2 * time.Hour), FileCount: 8, DeclCount: 14, ClassCount: 12, SkippedCount: 2, ErrorCount: 1},
		{Timestamp: base.Add(25 * time.Hour), FileCount: 9, DeclCount: 16, ClassCount: 14, SkippedCount: 1, ErrorCount: 3},
	}

	report, err := BuildTrendReport(snapshots, 24*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.RunCount != 3 {
		t.Fatalf("expected run_count=3, got %d", report.RunCount)
	}
	if report.Points[1].DeltaClasses != 4 {
		t.Fatalf("expected delta_classes=4, got %d", report.Points[1].DeltaClasses)
	}
	if report.Points[2].DeltaErrors != 2 {
		t.Fatalf("expected delta_errors=2, got %d", report.Points[2].DeltaErrors)
	}
	if report.Points[1].ClassGrowthPct != 50 {
		t.Fatalf("expected class growth pct=50, got %v", report.Points[1].ClassGrowthPct)
	}
	// The 24h window at +25h reaches the +2h run but not the first one.
	if report.Points[2].AvgErrors != 2 {
		t.Fatalf("expected window-limited avg_errors=2, got %v", report.Points[2].AvgErrors)
	}
	if report.Points[1].AvgSkipped != 3 {
		t.Fatalf("expected avg_skipped=3, got %v", report.Points[1].AvgSkipped)
	}
}

func TestBuildTrendReport_RequiresSnapshots(t *testing.T) {
	if _, err := BuildTrendReport(nil, time.Hour); err == nil {
		t.Fatal("expected error for empty snapshot list")
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
}

func TestStore_SaveLoadSnapshots_ProjectIsolation(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)
	if err := store.SaveSnapshot("project-a", Snapshot{Timestamp: base, ClassCount: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSnapshot("project-b", Snapshot{Timestamp: base, ClassCount: 2}); err != nil {
		t.Fatal(err)
	}

	aRows, err := store.LoadSnapshots("project-a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(aRows) != 1 || aRows[0].ClassCount != 1 {
		t.Fatalf("unexpected project-a rows: %+v", aRows)
	}

	bRows, err := store.LoadSnapshots("project-b", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(bRows) != 1 || bRows[0].ClassCount != 2 {
		t.Fatalf("unexpected project-b rows: %+v", bRows)
	}
}
