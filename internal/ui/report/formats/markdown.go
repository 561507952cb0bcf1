package formats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type MarkdownReportData struct {
	TotalFiles  int
	TotalDecls  int
	ParseErrors int

	Classes []ClassRow
	Skipped []SkippedRow
}

type MarkdownReportOptions struct {
	ProjectName         string
	ProjectRoot         string
	Version             string
	GeneratedAt         time.Time
	Verbosity           string
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(data MarkdownReportData, opts MarkdownReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	verbosity := normalizeReportVerbosity(opts.Verbosity)
	deprecated := deprecatedRows(data.Classes)

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Class Projection Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Projection Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Executive Summary](#executive-summary)\n")
		b.WriteString("- [Classes by Package](#classes-by-package)\n")
		if len(deprecated) > 0 {
			b.WriteString("- [Deprecated Classes](#deprecated-classes)\n")
		}
		b.WriteString("- [Skipped Declarations](#skipped-declarations)\n")
		b.WriteString("\n")
	}

	localCount := 0
	for _, row := range data.Classes {
		if row.Local {
			localCount++
		}
	}

	b.WriteString("## Executive Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Total Files | %d |\n", data.TotalFiles))
	b.WriteString(fmt.Sprintf("| Total Declarations | %d |\n", data.TotalDecls))
	b.WriteString(fmt.Sprintf("| Projected Classes | %d |\n", len(data.Classes)))
	b.WriteString(fmt.Sprintf("| Local Classes | %d |\n", localCount))
	b.WriteString(fmt.Sprintf("| Deprecated Classes | %d |\n", len(deprecated)))
	b.WriteString(fmt.Sprintf("| Skipped Declarations | %d |\n", len(data.Skipped)))
	b.WriteString(fmt.Sprintf("| Files With Parse Errors | %d |\n\n", data.ParseErrors))

	m.writeClasses(&b, data.Classes, opts.ProjectRoot, opts.CollapsibleSections, verbosity)
	if len(deprecated) > 0 {
		m.writeDeprecated(&b, deprecated, opts.ProjectRoot, opts.CollapsibleSections)
	}
	m.writeSkipped(&b, data.Skipped, opts.ProjectRoot, opts.CollapsibleSections)

	return b.String(), nil
}

func (m *MarkdownGenerator) writeClasses(b *strings.Builder, rows []ClassRow, projectRoot string, collapsible bool, verbosity string) {
	b.WriteString("## Classes by Package\n")
	if len(rows) == 0 {
		b.WriteString("No classes projected.\n\n")
		return
	}

	byPackage := make(map[string][]ClassRow)
	for _, row := range rows {
		byPackage[row.Package] = append(byPackage[row.Package], row)
	}
	packages := make([]string, 0, len(byPackage))
	for pkg := range byPackage {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)

	for _, pkg := range packages {
		group := byPackage[pkg]
		sort.Slice(group, func(i, j int) bool { return group[i].QualifiedName < group[j].QualifiedName })

		b.WriteString("### `" + nonEmpty(pkg, "(default package)") + "`\n")
		rendered := make([]string, 0, len(group))
		for _, row := range group {
			name := "`" + row.Name + "`"
			if row.Deprecated {
				name = "~~`" + row.Name + "`~~"
			}
			if verbosity == "summary" {
				rendered = append(rendered, fmt.Sprintf("| %s | %s |\n", name, row.Kind))
				continue
			}
			rendered = append(rendered, fmt.Sprintf(
				"| %s | %s | %s | %s | %s | %d m / %d f | `%s:%d` |\n",
				name,
				row.Kind,
				joinOrDash(row.Modifiers),
				joinOrDash(row.TypeParams),
				joinOrDash(row.SuperTypes),
				row.MethodCount,
				row.FieldCount,
				relPath(projectRoot, row.File),
				row.Line,
			))
		}
		if verbosity == "summary" {
			m.writeTableWithCollapse(
				b,
				"Class details",
				collapsible,
				len(rendered) > 15,
				[]string{"| Class | Kind |\n", "| --- | --- |\n"},
				rendered,
			)
			continue
		}
		m.writeTableWithCollapse(
			b,
			"Class details",
			collapsible,
			len(rendered) > 15,
			[]string{"| Class | Kind | Modifiers | Type Params | Supertypes | Members | Location |\n", "| --- | --- | --- | --- | --- | --- | --- |\n"},
			rendered,
		)
	}
}

func (m *MarkdownGenerator) writeDeprecated(b *strings.Builder, rows []ClassRow, projectRoot string, collapsible bool) {
	b.WriteString("## Deprecated Classes\n")
	rendered := make([]string, 0, len(rows))
	for _, row := range rows {
		rendered = append(rendered, fmt.Sprintf(
			"| `%s` | `%s:%d` |\n",
			row.QualifiedName,
			relPath(projectRoot, row.File),
			row.Line,
		))
	}
	m.writeTableWithCollapse(
		b,
		"Deprecated class details",
		collapsible,
		len(rendered) > 10,
		[]string{"| Qualified Name | Location |\n", "| --- | --- |\n"},
		rendered,
	)
}

func (m *MarkdownGenerator) writeSkipped(b *strings.Builder, rows []SkippedRow, projectRoot string, collapsible bool) {
	b.WriteString("## Skipped Declarations\n")
	if len(rows) == 0 {
		b.WriteString("No declarations skipped.\n\n")
		return
	}
	rendered := make([]string, 0, len(rows))
	for _, row := range rows {
		rendered = append(rendered, fmt.Sprintf(
			"| `%s` | `%s` | %s |\n",
			row.Name,
			relPath(projectRoot, row.File),
			row.Reason,
		))
	}
	m.writeTableWithCollapse(
		b,
		"Skipped declaration details",
		collapsible,
		len(rendered) > 15,
		[]string{"| Declaration | File | Reason |\n", "| --- | --- | --- |\n"},
		rendered,
	)
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func deprecatedRows(rows []ClassRow) []ClassRow {
	var out []ClassRow
	for _, row := range rows {
		if row.Deprecated {
			out = append(out, row)
		}
	}
	return out
}
