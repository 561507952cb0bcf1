package formats

import (
	"fmt"
	"strings"
)

// ClassRow is one projected class flattened for report output.
type ClassRow struct {
	QualifiedName string
	Package       string
	Name          string
	Kind          string
	Modifiers     []string
	TypeParams    []string
	SuperTypes    []string
	Deprecated    bool
	Local         bool
	MethodCount   int
	FieldCount    int
	File          string
	Line          int
}

// SkippedRow records a declaration the projector produced no view for.
type SkippedRow struct {
	File   string
	Name   string
	Reason string
}

type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

func (t *TSVGenerator) Generate(rows []ClassRow) (string, error) {
	var buf strings.Builder

	buf.WriteString("QualifiedName\tPackage\tKind\tModifiers\tTypeParams\tSuperTypes\tDeprecated\tLocal\tMethods\tFields\tFile\tLine\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%t\t%t\t%d\t%d\t%s\t%d\n",
			row.QualifiedName,
			row.Package,
			row.Kind,
			strings.Join(row.Modifiers, ","),
			strings.Join(row.TypeParams, ","),
			strings.Join(row.SuperTypes, ","),
			row.Deprecated,
			row.Local,
			row.MethodCount,
			row.FieldCount,
			row.File,
			row.Line,
		))
	}

	return buf.String(), nil
}

func (t *TSVGenerator) GenerateSkipped(rows []SkippedRow) (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tFile\tDeclaration\tReason\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("skipped\t%s\t%s\t%s\n",
			row.File,
			row.Name,
			row.Reason,
		))
	}

	return buf.String(), nil
}
