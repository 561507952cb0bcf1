package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"facet/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tCommit\tFiles\tDecls\tClasses\tSkipped\tDeprecated\tErrors\tDeltaFiles\tDeltaDecls\tDeltaClasses\tDeltaSkipped\tDeltaDeprecated\tDeltaErrors\tClassGrowthPct\tAvgErrors\tAvgSkipped\tWindowHours\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			point.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.CommitHash,
			point.FileCount,
			point.DeclCount,
			point.ClassCount,
			point.SkippedCount,
			point.DeprecatedCount,
			point.ErrorCount,
			point.DeltaFiles,
			point.DeltaDecls,
			point.DeltaClasses,
			point.DeltaSkipped,
			point.DeltaDeprecated,
			point.DeltaErrors,
			point.ClassGrowthPct,
			point.AvgErrors,
			point.AvgSkipped,
			point.WindowHours,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
