package report

import (
	"facet/internal/ui/report/formats"
)

type TSVGenerator = formats.TSVGenerator
type MarkdownGenerator = formats.MarkdownGenerator
type StubsGenerator = formats.StubsGenerator

type ClassRow = formats.ClassRow
type SkippedRow = formats.SkippedRow
type StubFile = formats.StubFile
type MarkdownReportData = formats.MarkdownReportData
type MarkdownReportOptions = formats.MarkdownReportOptions

func NewTSVGenerator() *TSVGenerator {
	return formats.NewTSVGenerator()
}

func NewMarkdownGenerator() *MarkdownGenerator {
	return formats.NewMarkdownGenerator()
}

func NewStubsGenerator(verify bool) *StubsGenerator {
	return formats.NewStubsGenerator(verify)
}
