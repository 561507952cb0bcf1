package report

import (
	"strings"
	"testing"
	"time"

	"facet/internal/data/history"
)

func TestRenderTrendTSV(t *testing.T) {
	report := history.TrendReport{
		SchemaVersion: 1,
		Since:         time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		Until:         time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
		Window:        "24h0m0s",
		RunCount:      1,
		Points: []history.TrendPoint{
			{
				Timestamp:       time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
				RunID:           "run-1",
				CommitHash:      "abc123",
				FileCount:       15,
				DeclCount:       24,
				ClassCount:      22,
				SkippedCount:    2,
				DeprecatedCount: 1,
				ErrorCount:      1,
				AvgErrors:       1,
				AvgSkipped:      2,
				WindowHours:     24,
			},
		},
	}

	out, err := RenderTrendTSV(report)
	if err != nil {
		t.Fatalf("render tsv: %v", err)
	}

	body := string(out)
	if !strings.Contains(body, "Timestamp\tRun\tCommit\tFiles") {
		t.Fatalf("missing header in output: %s", body)
	}
	if !strings.Contains(body, "run-1\tabc123\t15\t24\t22\t2\t1\t1\t0\t0\t0\t0\t0\t0\t0.00\t1.00\t2.00\t24.00") {
		t.Fatalf("missing row values in output: %s", body)
	}
}

func TestRenderTrendJSON(t *testing.T) {
	report := history.TrendReport{
		SchemaVersion: 1,
		RunCount:      2,
	}

	out, err := RenderTrendJSON(report)
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if !strings.Contains(string(out), "\"run_count\": 2") {
		t.Fatalf("missing run_count in json: %s", string(out))
	}
}
