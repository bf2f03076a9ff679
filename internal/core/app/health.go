package app

import (
	"context"
	"fmt"
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

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	status.Components["cache"] = fmt.Sprintf("%s (%d open contexts)", s.app.Config.Cache.Mode, s.app.registry.Len())

	state := s.app.LastState()
	if state == nil {
		status.Status = "starting"
		status.Components["build"] = "no build yet"
		return status
	}
	errorUnits := len(state.ErrorUnits())
	status.Components["build"] = fmt.Sprintf("ok (%d units, %d classes)", len(state.Units()), len(state.ClassFileMap()))
	if errorUnits > 0 {
		status.Status = "degraded"
		status.Components["build"] = fmt.Sprintf("%d of %d units have errors", errorUnits, len(state.Units()))
	}
	return status
}
