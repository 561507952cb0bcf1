package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	apperrors "facet/internal/core/errors"
	"facet/internal/core/ports"
	"facet/internal/engine/lang"
	"facet/internal/engine/stub"
	"facet/internal/engine/view"
	"facet/internal/shared/observability"
	"facet/internal/ui/report"
)

// Projection is the result of one full pass over the project: a row per
// viewable class, a skip record per declaration without a view, and the
// stub bundles backing the Java sources.
type Projection struct {
	Rows    []report.ClassRow
	Skipped []report.SkippedRow
	Stubs   []*stub.FileStub

	DeclCount       int
	LocalCount      int
	DeprecatedCount int

	ParseFailures []ports.ParseFailure
}

// ProjectClasses walks every non-builtin file in the project and builds
// the class view for each declaration. Declarations that cannot carry a
// view become skip rows instead of errors.
func (a *App) ProjectClasses(ctx context.Context) (*Projection, error) {
	start := time.Now()
	defer func() {
		observability.ProjectionDuration.WithLabelValues("pass").Observe(time.Since(start).Seconds())
	}()

	proj := &Projection{}
	a.Project.EachFile(func(f *lang.File) {
		if ctx.Err() != nil || f.Builtin {
			return
		}
		a.projectFile(f, proj)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proj.ParseFailures = a.parseFailures()
	observability.ProjectedClasses.Set(float64(len(proj.Rows)))
	return proj, nil
}

func (a *App) projectFile(f *lang.File, proj *Projection) {
	f.Walk(func(d *lang.Declaration) {
		proj.DeclCount++

		v, err := view.For(a.Project, d)
		if err != nil {
			proj.Skipped = append(proj.Skipped, report.SkippedRow{
				File: f.Path, Name: declDisplayName(d), Reason: err.Error(),
			})
			return
		}
		if v == nil {
			proj.Skipped = append(proj.Skipped, report.SkippedRow{
				File: f.Path, Name: declDisplayName(d), Reason: "no predictable binary name",
			})
			return
		}

		row, err := a.classRow(v, d, f)
		if err != nil {
			proj.Skipped = append(proj.Skipped, report.SkippedRow{
				File: f.Path, Name: declDisplayName(d), Reason: err.Error(),
			})
			return
		}
		proj.Rows = append(proj.Rows, row)
		if row.Local {
			proj.LocalCount++
		}
		if row.Deprecated {
			proj.DeprecatedCount++
		}
	})

	for _, d := range f.Declarations {
		bundle, err := a.Project.Stubs().Bundle(d)
		if err != nil {
			slog.Warn("failed to build stub bundle", "path", f.Path, "declaration", d.Name, "error", err)
			continue
		}
		proj.Stubs = append(proj.Stubs, bundle.Root)
	}
}

func (a *App) classRow(v *view.ClassView, d *lang.Declaration, f *lang.File) (report.ClassRow, error) {
	methods, err := v.Methods()
	if err != nil {
		return report.ClassRow{}, err
	}
	fields, err := v.Fields()
	if err != nil {
		return report.ClassRow{}, err
	}

	params := v.TypeParameters()
	typeParams := make([]string, 0, len(params))
	for _, tp := range params {
		typeParams = append(typeParams, tp.Name)
	}
	superTypes := make([]string, 0, len(d.SuperTypes))
	for _, st := range d.SuperTypes {
		superTypes = append(superTypes, st.Name)
	}

	return report.ClassRow{
		QualifiedName: v.QualifiedName(),
		Package:       f.Package,
		Name:          v.Name(),
		Kind:          d.Kind.String(),
		Modifiers:     v.ModifierKeywords(),
		TypeParams:    typeParams,
		SuperTypes:    superTypes,
		Deprecated:    v.Deprecated(),
		Local:         d.Local(),
		MethodCount:   len(methods),
		FieldCount:    len(fields),
		File:          f.Path,
		Line:          d.Location.Line,
	}, nil
}

func declDisplayName(d *lang.Declaration) string {
	if d.Anonymous() {
		return "<anonymous>"
	}
	return d.Name
}

// InspectClass resolves a qualified name to its class view and returns
// the full projection detail, including the rendered Java stub and the
// source lines mentioning the class.
func (a *App) InspectClass(ctx context.Context, qualifiedName string) (ports.ClassInspection, error) {
	if err := ctx.Err(); err != nil {
		return ports.ClassInspection{}, err
	}
	qualifiedName = strings.TrimSpace(qualifiedName)
	if qualifiedName == "" {
		return ports.ClassInspection{}, apperrors.New(apperrors.CodeValidationError, "qualified class name is required")
	}

	decl := a.Project.FindDeclaration(qualifiedName)
	if decl == nil {
		err := apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("class %q is not projected", qualifiedName))
		return ports.ClassInspection{}, apperrors.AddContext(err, apperrors.CtxClass, qualifiedName)
	}

	v, err := view.For(a.Project, decl)
	if err != nil {
		return ports.ClassInspection{}, err
	}
	if v == nil {
		err := apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("class %q has no view", qualifiedName))
		return ports.ClassInspection{}, apperrors.AddContext(err, apperrors.CtxClass, qualifiedName)
	}

	row, err := a.classRow(v, decl, decl.File)
	if err != nil {
		return ports.ClassInspection{}, err
	}

	inspection := ports.ClassInspection{
		Summary:        summarizeRow(row),
		Modifiers:      append([]string(nil), row.Modifiers...),
		TypeParameters: append([]string(nil), row.TypeParams...),
		SuperTypes:     append([]string(nil), row.SuperTypes...),
	}

	outermost, err := lang.Outermost(decl)
	if err != nil {
		return ports.ClassInspection{}, err
	}
	bundle, err := a.Project.Stubs().Bundle(outermost)
	if err != nil {
		return ports.ClassInspection{}, fmt.Errorf("build stub bundle for %q: %w", qualifiedName, err)
	}
	inspection.JavaStub = stub.RenderJavaFile(bundle.Root)

	if content, readErr := os.ReadFile(decl.File.Path); readErr == nil {
		inspection.SourceContext = formatClassContext(report.GetClassContext(v.Name(), decl.File.Path, content))
	}

	return inspection, nil
}

func formatClassContext(cc report.ClassContext) string {
	if len(cc.Snippets) == 0 {
		return ""
	}
	var b strings.Builder
	for i, snippet := range cc.Snippets {
		if i > 0 {
			b.WriteString("...\n")
		}
		for _, line := range snippet.Context {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func summarizeRow(row report.ClassRow) ports.ClassSummary {
	return ports.ClassSummary{
		QualifiedName: row.QualifiedName,
		Package:       row.Package,
		Kind:          row.Kind,
		Deprecated:    row.Deprecated,
		Local:         row.Local,
		MethodCount:   row.MethodCount,
		FieldCount:    row.FieldCount,
		File:          row.File,
		Line:          row.Line,
	}
}

func summarizeRows(rows []report.ClassRow) []ports.ClassSummary {
	summaries := make([]ports.ClassSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summarizeRow(row))
	}
	return summaries
}

func skippedDecls(rows []report.SkippedRow) []ports.SkippedDecl {
	decls := make([]ports.SkippedDecl, 0, len(rows))
	for _, row := range rows {
		decls = append(decls, ports.SkippedDecl{File: row.File, Name: row.Name, Reason: row.Reason})
	}
	return decls
}
