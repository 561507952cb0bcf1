package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facet/internal/core/config"
	apperrors "facet/internal/core/errors"
	"facet/internal/ui/report"
)

const mainSource = `package com.example.app

@Deprecated("use Replacement")
class Legacy {
    fun work(): Int = 1
}

class Service : Greeter {
    val repo: String = "r"

    fun greet(name: String): String = name
}

interface Greeter {
    fun greet(name: String): String
}

object Registry
`

const extraSource = `package com.example.extra

class Widget {
    fun render(): String = "w"
}
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testApp(t *testing.T, tmpDir string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.WatchPaths = []string{tmpDir}
	cfg.Paths.ProjectRoot = tmpDir
	terminal := false
	cfg.Alerts.Terminal = &terminal

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func findRow(rows []report.ClassRow, qualifiedName string) (report.ClassRow, bool) {
	for _, row := range rows {
		if row.QualifiedName == qualifiedName {
			return row, true
		}
	}
	return report.ClassRow{}, false
}

func TestApp(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.kt", mainSource)

	a := testApp(t, tmpDir)
	ctx := context.Background()

	if err := a.InitialScan(ctx); err != nil {
		t.Fatalf("InitialScan failed: %v", err)
	}
	if got := a.Project.FileCount(); got != 1 {
		t.Fatalf("Expected 1 file, got %d", got)
	}

	proj, err := a.ProjectClasses(ctx)
	if err != nil {
		t.Fatalf("ProjectClasses failed: %v", err)
	}
	if proj.DeclCount != 4 {
		t.Errorf("Expected 4 declarations, got %d", proj.DeclCount)
	}
	if len(proj.ParseFailures) != 0 {
		t.Errorf("Unexpected parse failures: %+v", proj.ParseFailures)
	}

	legacy, ok := findRow(proj.Rows, "com.example.app.Legacy")
	if !ok {
		t.Fatalf("Legacy row missing, rows: %+v", proj.Rows)
	}
	if !legacy.Deprecated || legacy.Kind != "class" {
		t.Errorf("Unexpected Legacy row: %+v", legacy)
	}
	if proj.DeprecatedCount != 1 {
		t.Errorf("Expected 1 deprecated class, got %d", proj.DeprecatedCount)
	}

	greeter, ok := findRow(proj.Rows, "com.example.app.Greeter")
	if !ok || greeter.Kind != "interface" {
		t.Errorf("Unexpected Greeter row: %+v", greeter)
	}
	if registry, ok := findRow(proj.Rows, "com.example.app.Registry"); !ok || registry.Kind != "object" {
		t.Errorf("Unexpected Registry row: %+v", registry)
	}

	service, ok := findRow(proj.Rows, "com.example.app.Service")
	if !ok {
		t.Fatal("Service row missing")
	}
	if service.MethodCount == 0 {
		t.Errorf("Expected methods on Service, got %+v", service)
	}
	if len(service.SuperTypes) != 1 || service.SuperTypes[0] != "Greeter" {
		t.Errorf("Unexpected Service supertypes: %v", service.SuperTypes)
	}

	if err := a.GenerateOutputs(ctx, proj); err != nil {
		t.Fatalf("GenerateOutputs failed: %v", err)
	}
	tsvPath := filepath.Join(tmpDir, "classes.tsv")
	data, err := os.ReadFile(tsvPath)
	if err != nil {
		t.Fatalf("TSV file was not generated: %v", err)
	}
	if !strings.Contains(string(data), "com.example.app.Service") {
		t.Error("TSV output missing Service row")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "classes.md")); os.IsNotExist(err) {
		t.Error("Markdown file was not generated")
	}
	stubPath := filepath.Join(tmpDir, "stubs", "com", "example", "app", "Legacy.java")
	if _, err := os.Stat(stubPath); os.IsNotExist(err) {
		t.Errorf("Stub file was not generated at %s", stubPath)
	}

	// Re-processing the same file must not duplicate anything.
	a.HandleChanges([]string{filepath.Join(tmpDir, "main.kt")})
	if got := a.Project.FileCount(); got != 1 {
		t.Errorf("Expected 1 file after re-process, got %d", got)
	}
}

func TestApp_HandleChangesRemovesDeletedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.kt", mainSource)
	extraPath := writeSource(t, tmpDir, "extra.kt", extraSource)

	a := testApp(t, tmpDir)
	ctx := context.Background()
	if err := a.InitialScan(ctx); err != nil {
		t.Fatalf("InitialScan failed: %v", err)
	}
	if got := a.Project.FileCount(); got != 2 {
		t.Fatalf("Expected 2 files, got %d", got)
	}

	if err := os.Remove(extraPath); err != nil {
		t.Fatal(err)
	}
	a.HandleChanges([]string{extraPath})

	if got := a.Project.FileCount(); got != 1 {
		t.Errorf("Expected 1 file after removal, got %d", got)
	}
	proj, err := a.ProjectClasses(ctx)
	if err != nil {
		t.Fatalf("ProjectClasses failed: %v", err)
	}
	if _, ok := findRow(proj.Rows, "com.example.extra.Widget"); ok {
		t.Error("Widget row survived file removal")
	}
}

func TestApp_ParseFailureTracking(t *testing.T) {
	tmpDir := t.TempDir()
	notKotlin := writeSource(t, tmpDir, "notes.txt", "not kotlin")

	a := testApp(t, tmpDir)

	if err := a.ProcessFile(notKotlin); err == nil {
		t.Fatal("Expected error for unsupported file")
	}
	failures := a.parseFailures()
	if len(failures) != 1 || failures[0].File != notKotlin {
		t.Fatalf("Unexpected failures: %+v", failures)
	}

	health := a.Health()
	if health.Status != "degraded" {
		t.Errorf("Expected degraded health, got %q", health.Status)
	}

	a.clearParseFailure(notKotlin)
	if got := a.Health(); got.Status != "up" {
		t.Errorf("Expected health up after clear, got %q", got.Status)
	}
}

func TestApp_ScanDirectoriesExcludes(t *testing.T) {
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	buildDir := filepath.Join(tmpDir, "build")
	for _, dir := range []string{srcDir, buildDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	keep := writeSource(t, srcDir, "a.kt", mainSource)
	writeSource(t, buildDir, "gen.kt", mainSource)
	writeSource(t, srcDir, "skip_me.kt", mainSource)
	writeSource(t, srcDir, "readme.md", "# docs")

	a := testApp(t, tmpDir)

	files, err := a.ScanDirectories([]string{tmpDir}, []string{"build"}, []string{"skip_*"})
	if err != nil {
		t.Fatalf("ScanDirectories failed: %v", err)
	}
	if len(files) != 1 || files[0] != keep {
		t.Errorf("Expected only %s, got %v", keep, files)
	}

	if _, err := a.ScanDirectories([]string{tmpDir}, []string{"["}, nil); err == nil {
		t.Error("Expected error for invalid exclude pattern")
	}
}

func TestApp_InspectClass(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.kt", mainSource)

	a := testApp(t, tmpDir)
	ctx := context.Background()
	if err := a.InitialScan(ctx); err != nil {
		t.Fatalf("InitialScan failed: %v", err)
	}

	inspection, err := a.InspectClass(ctx, "com.example.app.Service")
	if err != nil {
		t.Fatalf("InspectClass failed: %v", err)
	}
	if inspection.Summary.QualifiedName != "com.example.app.Service" {
		t.Errorf("Unexpected summary: %+v", inspection.Summary)
	}
	hasPublic := false
	for _, kw := range inspection.Modifiers {
		if kw == "public" {
			hasPublic = true
		}
	}
	if !hasPublic {
		t.Errorf("Expected public modifier, got %v", inspection.Modifiers)
	}
	if !strings.Contains(inspection.JavaStub, "class Service") {
		t.Errorf("Java stub missing class declaration:\n%s", inspection.JavaStub)
	}
	if !strings.Contains(inspection.SourceContext, "class Service") {
		t.Errorf("Source context missing declaration line:\n%s", inspection.SourceContext)
	}

	if _, err := a.InspectClass(ctx, "com.example.app.Missing"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
	if _, err := a.InspectClass(ctx, "   "); !apperrors.IsCode(err, apperrors.CodeValidationError) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestApp_UpdateMarkdownInjection(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.kt", mainSource)
	readme := filepath.Join(tmpDir, "README.md")
	content := "# Demo\n\n<!-- facet:projection:start -->\nstale\n<!-- facet:projection:end -->\n"
	if err := os.WriteFile(readme, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	a := testApp(t, tmpDir)
	a.Config.Output.UpdateMarkdown = []config.SummaryInjection{{File: "README.md", Marker: "projection"}}

	ctx := context.Background()
	if err := a.InitialScan(ctx); err != nil {
		t.Fatalf("InitialScan failed: %v", err)
	}
	proj, err := a.ProjectClasses(ctx)
	if err != nil {
		t.Fatalf("ProjectClasses failed: %v", err)
	}
	if err := a.GenerateOutputs(ctx, proj); err != nil {
		t.Fatalf("GenerateOutputs failed: %v", err)
	}

	updated, err := os.ReadFile(readme)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(updated), "stale") {
		t.Error("Injection left stale content in place")
	}
	if !strings.Contains(string(updated), "**Projection summary**") {
		t.Errorf("Injection missing summary block:\n%s", updated)
	}
}

func TestMetricLeaders(t *testing.T) {
	scores := map[string]int{"a": 3, "b": 5, "c": 5, "d": 1}
	leaders := metricLeaders(scores, 3, 2)
	want := []string{"b(5)", "c(5)", "a(3)"}
	if len(leaders) != len(want) {
		t.Fatalf("Expected %v, got %v", want, leaders)
	}
	for i := range want {
		if leaders[i] != want[i] {
			t.Errorf("Leader %d: expected %s, got %s", i, want[i], leaders[i])
		}
	}
	if got := metricLeaders(map[string]int{"x": 1}, 3, 5); len(got) != 0 {
		t.Errorf("Expected no leaders below threshold, got %v", got)
	}
}
