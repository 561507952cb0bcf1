package cli

import (
	"fmt"
	"strings"
)

const stubPreviewLines = 12

func renderHelp(m model) string {
	if m.mode == panelClasses {
		if m.showDetails {
			return statusStyle.Render("  j/k: scroll stub | o: open source | esc: close | tab: issues | q: quit")
		}
		return statusStyle.Render("  enter: inspect | /: filter | tab: issues | t: trend | q: quit")
	}
	return statusStyle.Render("  /: filter | tab: classes | t: trend | q: quit")
}

func renderClassPanel(m model) string {
	if m.showDetails {
		return m.classList.View() + "\n" + renderClassDetails(m)
	}
	return m.classList.View() + "\n" + renderClassSummary(m)
}

func renderClassSummary(m model) string {
	selected, ok := m.classList.SelectedItem().(item)
	if !ok {
		return statusStyle.Render("No classes projected yet.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Selected Class"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s\n", selected.title)
	fmt.Fprintf(&b, "  %s\n", selected.desc)
	b.WriteString(statusStyle.Render("  enter: full inspection"))
	return b.String()
}

func renderClassDetails(m model) string {
	if m.detailsErr != nil {
		return errorStyle.Render(fmt.Sprintf("Inspection failed: %v", m.detailsErr))
	}
	if m.details == nil {
		return statusStyle.Render("No class inspected.")
	}
	details := *m.details

	var b strings.Builder
	b.WriteString(titleStyle.Render("Class Inspection"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Class: %s\n", details.Summary.QualifiedName)
	kind := details.Summary.Kind
	if details.Summary.Local {
		kind += " (local)"
	}
	fmt.Fprintf(&b, "  Kind: %s\n", kind)
	fmt.Fprintf(&b, "  Source: %s:%d\n", details.Summary.File, details.Summary.Line)
	if len(details.Modifiers) > 0 {
		fmt.Fprintf(&b, "  Modifiers: %s\n", strings.Join(details.Modifiers, " "))
	}
	if len(details.SuperTypes) > 0 {
		fmt.Fprintf(&b, "  Supertypes: %s\n", strings.Join(details.SuperTypes, ", "))
	}
	if details.Summary.Deprecated {
		b.WriteString("  " + warnStyle.Render("Deprecated") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStubPreview(details.JavaStub, m.stubOffset))
	return b.String()
}

func renderStubPreview(stub string, offset int) string {
	stub = strings.TrimRight(stub, "\n")
	if stub == "" {
		return statusStyle.Render("  No stub rendered.") + "\n"
	}
	lines := strings.Split(stub, "\n")
	if offset > len(lines)-1 {
		offset = len(lines) - 1
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + stubPreviewLines
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  Java stub (lines %d-%d of %d):\n", offset+1, end, len(lines))
	for _, line := range lines[offset:end] {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String()
}

func maxStubOffset(stub string) int {
	lines := strings.Split(strings.TrimRight(stub, "\n"), "\n")
	offset := len(lines) - stubPreviewLines
	if offset < 0 {
		return 0
	}
	return offset
}

func renderTrendOverlay(m model) string {
	if m.trendReport == nil || len(m.trendReport.Points) == 0 {
		return statusStyle.Render("Trend overlay unavailable (enable --history to capture snapshots).")
	}
	trend := *m.trendReport
	latest := trend.Points[len(trend.Points)-1]

	var b strings.Builder
	b.WriteString(titleStyle.Render("Trend Overlay"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Window: %s | Runs: %d\n", trend.Window, trend.RunCount)
	fmt.Fprintf(&b, "  Classes: %d (%+d, %.1f%%)\n", latest.ClassCount, latest.DeltaClasses, latest.ClassGrowthPct)
	fmt.Fprintf(&b, "  Skipped: %d (%+d) | Errors: %d (%+d)\n",
		latest.SkippedCount, latest.DeltaSkipped, latest.ErrorCount, latest.DeltaErrors)
	fmt.Fprintf(&b, "  Averages: %.1f errors, %.1f skipped per run", latest.AvgErrors, latest.AvgSkipped)
	return b.String()
}
