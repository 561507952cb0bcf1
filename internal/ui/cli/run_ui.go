package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"facet/internal/core/ports"
	"facet/internal/data/history"
)

// runUI drives the interactive terminal session until the user quits.
func runUI(ctx context.Context, projection ports.ProjectionService, watch ports.WatchService, trend *history.TrendReport) int {
	m := initialModel(projection, trend)
	p := tea.NewProgram(m, tea.WithAltScreen())

	sendUpdate := func(update ports.WatchUpdate) {
		p.Send(updateMsg{
			classes:    update.Classes,
			skipped:    update.Skipped,
			failures:   update.ParseFailures,
			fileCount:  update.FileCount,
			classCount: update.ClassCount,
		})
	}

	if err := watch.Subscribe(ctx, sendUpdate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: subscribe to updates: %v\n", err)
		return 1
	}

	// Seed the UI with the state from the initial scan.
	go func() {
		update, err := watch.CurrentUpdate(ctx)
		if err != nil {
			return
		}
		sendUpdate(update)
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: run UI: %v\n", err)
		return 1
	}
	return 0
}
