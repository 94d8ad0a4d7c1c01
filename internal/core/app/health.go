package app

import (
	"context"
	"fmt"
	"os"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "up" unless the collection is unreachable or the last run
// had failing roles.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	cfg, paths, store := s.app.snapshot()
	if info, err := os.Stat(paths.CollectionRoot); err != nil || !info.IsDir() {
		status.Status = "degraded"
		status.Components["collection"] = "missing: " + paths.CollectionRoot
	} else {
		status.Components["collection"] = "ok"
	}

	switch {
	case store != nil:
		status.Components["history"] = "ok"
	case cfg.History.Enabled:
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	if last, ok := s.app.LastRun(); ok {
		status.Components["last_run"] = fmt.Sprintf("%s (%d ok, %d failed)", last.RunID, last.RolesProcessed, last.RolesFailed)
		if last.RolesFailed > 0 {
			status.Status = "degraded"
		}
	} else {
		status.Components["last_run"] = "none"
	}

	return status
}
