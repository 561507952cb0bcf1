package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"facet/internal/core/ports"
)

// PrintSummary prints the terminal digest after a pass. fileCount is the
// number of changed or scanned files that triggered the pass.
func (a *App) PrintSummary(fileCount, declCount int, duration time.Duration,
	classes []ports.ClassSummary, skipped []ports.SkippedDecl, failures []ports.ParseFailure) {
	if !a.Config.Alerts.TerminalEnabled() {
		return
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Update: %d files, %d declarations in %v\n", fileCount, declCount, duration)

	if len(failures) > 0 {
		fmt.Printf("⚠️  FOUND %d FILES WITH PARSE ERRORS:\n", len(failures))
		for _, failure := range failures {
			fmt.Printf("   %s: %s\n", failure.File, failure.Message)
		}
	} else {
		fmt.Println("✅ All files parsed.")
	}

	if len(skipped) > 0 {
		fmt.Printf("❓ SKIPPED %d DECLARATIONS:\n", len(skipped))
		for _, s := range skipped {
			fmt.Printf("   %s in %s (%s)\n", s.Name, s.File, s.Reason)
		}
	} else {
		fmt.Println("✅ No declarations skipped.")
	}

	var deprecated []ports.ClassSummary
	for _, class := range classes {
		if class.Deprecated {
			deprecated = append(deprecated, class)
		}
	}
	if len(deprecated) > 0 {
		fmt.Printf("🧹 FOUND %d DEPRECATED CLASSES:\n", len(deprecated))
		for _, class := range deprecated {
			fmt.Printf("   %s in %s:%d\n", class.QualifiedName, class.File, class.Line)
		}
	} else {
		fmt.Println("✅ No deprecated classes found.")
	}

	fmt.Println("📊 Projection Metrics:")
	packages := make(map[string]int)
	widths := make(map[string]int)
	for _, class := range classes {
		packages[packageLabel(class.Package)]++
		widths[class.QualifiedName] = class.MethodCount + class.FieldCount
	}
	if leaders := metricLeaders(packages, 3, 1); len(leaders) > 0 {
		fmt.Printf("   Largest packages: %s\n", strings.Join(leaders, ", "))
	}
	if leaders := metricLeaders(widths, 3, 5); len(leaders) > 0 {
		fmt.Printf("   🔥 Widest classes: %s\n", strings.Join(leaders, ", "))
	}

	fmt.Println(strings.Repeat("-", 40))
}

// FormatClassInspection renders a single-class lookup as terminal text.
func FormatClassInspection(inspection ports.ClassInspection) string {
	summary := inspection.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "Class: %s\n", summary.QualifiedName)
	kind := summary.Kind
	if summary.Local {
		kind += " (local)"
	}
	fmt.Fprintf(&b, "Kind: %s\n", kind)
	fmt.Fprintf(&b, "Package: %s\n", packageLabel(summary.Package))
	fmt.Fprintf(&b, "Source: %s:%d\n", summary.File, summary.Line)
	if len(inspection.Modifiers) > 0 {
		fmt.Fprintf(&b, "Modifiers: %s\n", strings.Join(inspection.Modifiers, " "))
	}
	if len(inspection.TypeParameters) > 0 {
		fmt.Fprintf(&b, "Type parameters: %s\n", strings.Join(inspection.TypeParameters, ", "))
	}
	if len(inspection.SuperTypes) > 0 {
		fmt.Fprintf(&b, "Supertypes: %s\n", strings.Join(inspection.SuperTypes, ", "))
	}
	fmt.Fprintf(&b, "Members: %d methods, %d fields\n", summary.MethodCount, summary.FieldCount)
	if summary.Deprecated {
		b.WriteString("Deprecated: yes\n")
	}

	if stub := strings.TrimRight(inspection.JavaStub, "\n"); stub != "" {
		b.WriteString("\nJava stub:\n")
		b.WriteString(stub)
		b.WriteString("\n")
	}
	if srcContext := strings.TrimRight(inspection.SourceContext, "\n"); srcContext != "" {
		b.WriteString("\nSource context:\n")
		b.WriteString(srcContext)
		b.WriteString("\n")
	}
	return b.String()
}

func packageLabel(pkg string) string {
	if pkg == "" {
		return "(default)"
	}
	return pkg
}

type scoredLabel struct {
	label string
	score int
}

// metricLeaders returns the top scoring labels as "label(score)" strings,
// highest first, names breaking ties.
func metricLeaders(scores map[string]int, limit, minScore int) []string {
	entries := make([]scoredLabel, 0, len(scores))
	for label, score := range scores {
		if score < minScore {
			continue
		}
		entries = append(entries, scoredLabel{label: label, score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].label < entries[j].label
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	leaders := make([]string, 0, len(entries))
	for _, entry := range entries {
		leaders = append(leaders, fmt.Sprintf("%s(%d)", entry.label, entry.score))
	}
	return leaders
}
