package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"facet/internal/core/config"
	"facet/internal/core/ports"
	"facet/internal/shared/observability"
	"facet/internal/shared/util"
	"facet/internal/shared/version"
	"facet/internal/ui/report"
)

type outputTargets struct {
	ProjectRoot string
	OutputRoot  string
	TSV         string
	Markdown    string
	StubsDir    string
}

func (a *App) resolvePaths() (config.ResolvedPaths, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.ResolvedPaths{}, fmt.Errorf("resolve working directory: %w", err)
	}
	return config.ResolvePaths(a.Config, cwd)
}

// resolveOutputTargets maps the configured output files to absolute
// paths. An empty configured path disables that target.
func (a *App) resolveOutputTargets() (outputTargets, error) {
	resolved, err := a.resolvePaths()
	if err != nil {
		return outputTargets{}, err
	}

	targets := outputTargets{
		ProjectRoot: resolved.ProjectRoot,
		OutputRoot:  resolved.OutputRoot,
	}
	if path := strings.TrimSpace(a.Config.Output.TSV); path != "" {
		targets.TSV = config.ResolveRelative(resolved.OutputRoot, path)
	}
	if path := strings.TrimSpace(a.Config.Output.Markdown); path != "" {
		targets.Markdown = config.ResolveRelative(resolved.OutputRoot, path)
	}
	if strings.TrimSpace(a.Config.Output.StubsDir) != "" {
		targets.StubsDir = resolved.StubsDir
	}
	return targets, nil
}

// GenerateOutputs writes every enabled artifact for the given pass: the
// TSV table, the markdown report, the Java stub tree and the configured
// markdown injections.
func (a *App) GenerateOutputs(ctx context.Context, proj *Projection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		observability.ProjectionDuration.WithLabelValues("outputs").Observe(time.Since(start).Seconds())
	}()

	targets, err := a.resolveOutputTargets()
	if err != nil {
		return err
	}

	if targets.TSV != "" {
		tsv, err := report.NewTSVGenerator().Generate(proj.Rows)
		if err != nil {
			return fmt.Errorf("generate TSV output: %w", err)
		}
		if len(proj.Skipped) > 0 {
			block, err := report.NewTSVGenerator().GenerateSkipped(proj.Skipped)
			if err != nil {
				return fmt.Errorf("generate skipped TSV block: %w", err)
			}
			tsv = strings.TrimRight(tsv, "\n") + "\n\n" + strings.TrimRight(block, "\n") + "\n"
		}
		if err := writeArtifact(targets.TSV, tsv); err != nil {
			return fmt.Errorf("write TSV output %q: %w", targets.TSV, err)
		}
	}

	if targets.Markdown != "" {
		md, err := a.renderMarkdown(proj, targets.ProjectRoot, a.Config.Output.Report.Verbosity)
		if err != nil {
			return err
		}
		if err := writeArtifact(targets.Markdown, md); err != nil {
			return fmt.Errorf("write markdown output %q: %w", targets.Markdown, err)
		}
	}

	if targets.StubsDir != "" {
		gen := report.NewStubsGenerator(a.Config.Output.VerifyEnabled())
		for _, root := range proj.Stubs {
			files, err := gen.Generate(root)
			if err != nil {
				return fmt.Errorf("render stub for %q: %w", root.Path, err)
			}
			for _, sf := range files {
				path := filepath.Join(targets.StubsDir, sf.Path)
				if err := writeArtifact(path, sf.Content); err != nil {
					return fmt.Errorf("write stub %q: %w", path, err)
				}
			}
		}
	}

	summary := summaryBlock(a.Project.FileCount(), proj)
	for _, injection := range a.Config.Output.UpdateMarkdown {
		target := config.ResolveRelative(targets.ProjectRoot, injection.File)
		if err := report.InjectSummary(target, injection.Marker, summary); err != nil {
			return fmt.Errorf("inject summary into %q with marker %q: %w", injection.File, injection.Marker, err)
		}
	}

	return nil
}

func (a *App) renderMarkdown(proj *Projection, projectRoot, verbosity string) (string, error) {
	md, err := report.NewMarkdownGenerator().Generate(report.MarkdownReportData{
		TotalFiles:  a.Project.FileCount(),
		TotalDecls:  proj.DeclCount,
		ParseErrors: len(proj.ParseFailures),
		Classes:     proj.Rows,
		Skipped:     proj.Skipped,
	}, report.MarkdownReportOptions{
		ProjectName:         filepath.Base(projectRoot),
		ProjectRoot:         projectRoot,
		Version:             version.Version,
		GeneratedAt:         time.Now().UTC(),
		Verbosity:           verbosity,
		TableOfContents:     a.Config.Output.Report.TableOfContentsEnabled(),
		CollapsibleSections: a.Config.Output.Report.CollapsibleSectionsEnabled(),
	})
	if err != nil {
		return "", fmt.Errorf("generate markdown report: %w", err)
	}
	return md, nil
}

// summaryBlock renders the short status block injected between markdown
// markers in files like the project README.
func summaryBlock(fileCount int, proj *Projection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Projection summary** (%s)\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Files: %d\n", fileCount)
	fmt.Fprintf(&b, "- Declarations: %d\n", proj.DeclCount)
	fmt.Fprintf(&b, "- Classes: %d (%d local)\n", len(proj.Rows), proj.LocalCount)
	fmt.Fprintf(&b, "- Deprecated: %d\n", proj.DeprecatedCount)
	fmt.Fprintf(&b, "- Skipped: %d\n", len(proj.Skipped))
	fmt.Fprintf(&b, "- Parse errors: %d\n", len(proj.ParseFailures))
	return b.String()
}

func writeArtifact(path, content string) error {
	return util.WriteStringWithDirs(path, content, 0o644)
}

// GenerateMarkdownReport renders the markdown report on demand. The
// report is written when the request names a path, when WriteFile is
// set, or when the config has a markdown target.
func (a *App) GenerateMarkdownReport(ctx context.Context, req ports.MarkdownReportRequest) (ports.MarkdownReportResult, error) {
	proj, err := a.ProjectClasses(ctx)
	if err != nil {
		return ports.MarkdownReportResult{}, err
	}

	resolved, err := a.resolvePaths()
	if err != nil {
		return ports.MarkdownReportResult{}, err
	}

	verbosity := strings.TrimSpace(req.Verbosity)
	if verbosity == "" {
		verbosity = a.Config.Output.Report.Verbosity
	}
	md, err := a.renderMarkdown(proj, resolved.ProjectRoot, verbosity)
	if err != nil {
		return ports.MarkdownReportResult{}, err
	}

	outPath := strings.TrimSpace(req.Path)
	if outPath == "" {
		outPath = strings.TrimSpace(a.Config.Output.Markdown)
	}
	if outPath != "" {
		outPath = config.ResolveRelative(resolved.OutputRoot, outPath)
	}

	result := ports.MarkdownReportResult{Markdown: md, Path: outPath}
	if req.WriteFile {
		if outPath == "" {
			return ports.MarkdownReportResult{}, fmt.Errorf("markdown report path is required to write the report")
		}
		if err := writeArtifact(outPath, md); err != nil {
			return ports.MarkdownReportResult{}, fmt.Errorf("write markdown report %q: %w", outPath, err)
		}
		result.Written = true
	}
	return result, nil
}
