// cmd/worker-manager/workers.go
package main

import (
	"fmt"
	"time"

	"solar-pumping-workers/internal/common/camunda"
	"solar-pumping-workers/internal/common/config"
	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/common/observability"
	"solar-pumping-workers/internal/service"
	"solar-pumping-workers/pkg/registry"

	cs "solar-pumping-workers/internal/workers/sizing/compute-sizing"
	hp "solar-pumping-workers/internal/workers/sizing/hourly-production"
	lh "solar-pumping-workers/internal/workers/sizing/list-history"
)

// registerWorkers opens a job worker for every enabled task type.
func registerWorkers(
	cfg *config.Config,
	zeebe *camunda.Client,
	svc *service.SizingService,
	reg *registry.ActivityRegistry,
	obs *observability.Observability,
	log logger.Logger,
) ([]*camunda.CamundaWorker, error) {
	var workers []*camunda.CamundaWorker
	start := func(taskType string, maxJobsActive int, timeout time.Duration, handler camunda.JobHandler) {
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, maxJobsActive, timeout, handler, log))
	}

	if c := cs.FromAppConfig(cfg); c.Enabled {
		handler, err := cs.NewHandler(cs.HandlerOptions{
			Config: c, Service: svc, Registry: reg, Observability: obs, Logger: log,
		})
		if err != nil {
			return nil, fmt.Errorf("compute-sizing handler: %w", err)
		}
		start(cs.TaskType, c.MaxJobsActive, c.Timeout, handler)
	}

	if c := hp.FromAppConfig(cfg); c.Enabled {
		handler, err := hp.NewHandler(hp.HandlerOptions{
			Config: c, Service: svc, Registry: reg, Logger: log,
		})
		if err != nil {
			return nil, fmt.Errorf("hourly-production handler: %w", err)
		}
		start(hp.TaskType, c.MaxJobsActive, c.Timeout, handler)
	}

	if c := lh.FromAppConfig(cfg); c.Enabled {
		handler, err := lh.NewHandler(lh.HandlerOptions{
			Config: c, Service: svc, Registry: reg, Logger: log,
		})
		if err != nil {
			return nil, fmt.Errorf("list-history handler: %w", err)
		}
		start(lh.TaskType, c.MaxJobsActive, c.Timeout, handler)
	}

	return workers, nil
}
