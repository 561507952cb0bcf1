package history

import (
	"fmt"
	"math"
	"time"
)

func BuildTrendReport(snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:       current.Timestamp,
			RunID:           current.RunID,
			CommitHash:      current.CommitHash,
			FileCount:       current.FileCount,
			DeclCount:       current.DeclCount,
			ClassCount:      current.ClassCount,
			SkippedCount:    current.SkippedCount,
			DeprecatedCount: current.DeprecatedCount,
			ErrorCount:      current.ErrorCount,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaDecls = current.DeclCount - prev.DeclCount
			point.DeltaClasses = current.ClassCount - prev.ClassCount
			point.DeltaSkipped = current.SkippedCount - prev.SkippedCount
			point.DeltaDeprecated = current.DeprecatedCount - prev.DeprecatedCount
			point.DeltaErrors = current.ErrorCount - prev.ErrorCount
			if prev.ClassCount > 0 {
				point.ClassGrowthPct = (float64(point.DeltaClasses) / float64(prev.ClassCount)) * 100
			}
		}

		avgErrors, avgSkipped := movingAverages(snapshots, i, window)
		point.AvgErrors = round2(avgErrors)
		point.AvgSkipped = round2(avgSkipped)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverages(snapshots []Snapshot, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(snapshots[index].ErrorCount), float64(snapshots[index].SkippedCount)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	var errorsTotal int
	var skippedTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		errorsTotal += snapshots[i].ErrorCount
		skippedTotal += snapshots[i].SkippedCount
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(errorsTotal) / float64(count), float64(skippedTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
