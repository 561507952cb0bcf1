package report

import (
	"bytes"
	"strings"
)

const contextRadius = 5 // ±5 lines around each occurrence

// ClassContext is the source context shown when a single class is
// inspected from the command line.
type ClassContext struct {
	// Class is the queried short class name.
	Class string
	// File is the source file that was searched.
	File string
	// Snippets are each individual usage site found in the file.
	Snippets []Snippet
}

// Snippet represents a single occurrence of a class name with surrounding
// source lines.
type Snippet struct {
	// Line is the 1-indexed line number of the occurrence.
	Line int
	// Context is the surrounding source lines, centred on the match.
	// Each entry has the format "<linenum>: <source>".
	Context []string
}

// GetClassContext scans file content for occurrences of the class's short
// name and returns each occurrence with ±contextRadius lines of source.
// The search is a case-sensitive word-boundary match.
func GetClassContext(class, filePath string, content []byte) ClassContext {
	ctx := ClassContext{Class: class, File: filePath}
	if class == "" || len(content) == 0 {
		return ctx
	}

	lines := splitLines(content)
	for i, line := range lines {
		if !containsSymbol(line, class) {
			continue
		}
		ctx.Snippets = append(ctx.Snippets, Snippet{
			Line:    i + 1,
			Context: buildContext(lines, i, contextRadius),
		})
	}
	return ctx
}

// containsSymbol returns true if line contains symbol as a word-boundary
// match, so "Handler" does not match inside "EventHandler".
func containsSymbol(line, symbol string) bool {
	idx := strings.Index(line, symbol)
	if idx < 0 {
		return false
	}
	before := idx > 0 && isIdentChar(rune(line[idx-1]))
	after := idx+len(symbol) < len(line) && isIdentChar(rune(line[idx+len(symbol)]))
	return !before && !after
}

func isIdentChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

// buildContext returns ±radius lines around the hit, formatted as
// "<linenum>: <source>".
func buildContext(lines []string, hitIdx, radius int) []string {
	start := hitIdx - radius
	if start < 0 {
		start = 0
	}
	end := hitIdx + radius + 1
	if end > len(lines) {
		end = len(lines)
	}

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, formatContextLine(i+1, lines[i]))
	}
	return out
}

func formatContextLine(lineNum int, source string) string {
	var b strings.Builder
	b.Grow(8 + len(source))
	b.WriteString(formatLineNum(lineNum))
	b.WriteString(": ")
	b.WriteString(source)
	return b.String()
}

// formatLineNum right-aligns the number to 6 digits so snippets line up.
func formatLineNum(n int) string {
	s := strings.Repeat(" ", 6)
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if len(digits) == 0 {
		digits = []byte{'0'}
	}
	pad := 6 - len(digits)
	if pad < 0 {
		pad = 0
	}
	return s[:pad] + string(digits)
}

// splitLines splits content on newlines, preserving empty lines.
func splitLines(content []byte) []string {
	raw := bytes.Split(content, []byte("\n"))
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = string(b)
	}
	// Trim trailing empty line that Split adds for a final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
