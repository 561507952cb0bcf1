package app

import (
	"fmt"
	"time"
)

// HealthStatus is the payload served on the observability endpoint.
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health reports per-component state. Outstanding parse failures or a
// missing history store degrade the status without taking it down.
func (a *App) Health() HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	status.Components["project"] = fmt.Sprintf("ok (%d files)", a.Project.FileCount())
	status.Components["stub_cache"] = fmt.Sprintf("ok (%d bundles)", a.Project.Stubs().Len())

	if failures := a.parseFailures(); len(failures) > 0 {
		status.Components["parser"] = fmt.Sprintf("%d files failing to parse", len(failures))
		status.Status = "degraded"
	} else {
		status.Components["parser"] = "ok"
	}

	switch {
	case a.history != nil:
		status.Components["history"] = "ok"
	case a.Config.History.Enabled:
		status.Components["history"] = "enabled but not attached"
		status.Status = "degraded"
	default:
		status.Components["history"] = "disabled"
	}

	return status
}
