package formats

import (
	"testing"
)

func TestRelPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		root     string
		path     string
		expected string
	}{
		{name: "Inside", root: "/repo", path: "/repo/src/Main.kt", expected: "src/Main.kt"},
		{name: "EmptyRoot", root: "", path: "/repo/src/Main.kt", expected: "/repo/src/Main.kt"},
		{name: "EmptyPath", root: "/repo", path: "", expected: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := relPath(tc.root, tc.path); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestJoinOrDash(t *testing.T) {
	t.Parallel()

	if got := joinOrDash(nil); got != "-" {
		t.Fatalf("expected dash for empty list, got %q", got)
	}
	if got := joinOrDash([]string{"open", "inner"}); got != "`open, inner`" {
		t.Fatalf("expected joined list, got %q", got)
	}
}

func TestNormalizeReportVerbosity(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":         "standard",
		"SUMMARY":  "summary",
		"detailed": "detailed",
		"bogus":    "standard",
	}
	for input, expected := range cases {
		if got := normalizeReportVerbosity(input); got != expected {
			t.Fatalf("normalize %q: expected %q, got %q", input, expected, got)
		}
	}
}
