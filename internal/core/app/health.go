package app

import (
	"context"
	"fmt"
	"time"

	"inlinelog/internal/shared/observability"
	"inlinelog/internal/shared/util"
)

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status: "up",
		Checks: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	// Parser
	if s.app.parser != nil {
		status.Checks["parser"] = fmt.Sprintf("ok (%d extensions)", len(s.app.loader.SupportedExtensions()))
		for _, ps := range s.app.parser.PoolStats() {
			status.Checks["parser_pool_"+ps.Language] = fmt.Sprintf("%d leased, %d created", ps.Leased, ps.Created)
		}
	} else {
		status.Status = "degraded"
		status.Checks["parser"] = "missing"
	}

	// Fetch cache
	if s.app.cache == nil {
		status.Checks["fetch"] = "disabled"
	} else {
		status.Checks["fetch"] = fmt.Sprintf("ok (%d cached)", s.app.cache.Len())
	}

	// Cache store
	if s.app.store != nil {
		if err := s.app.store.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Checks["cache_store"] = "unreachable: " + err.Error()
		} else {
			status.Checks["cache_store"] = "ok"
		}
	}

	status.Checks["sessions"] = fmt.Sprintf("%d open", s.app.SessionCount())
	stats := util.ReadRuntimeStats()
	status.Checks["runtime"] = fmt.Sprintf("%d MB heap, %d goroutines", stats.HeapAllocMB, stats.Goroutines)

	return status
}
