package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/usecase"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// SLAMonitorWorker periodically sweeps every tenant's open incidents against
// their SLA deadlines. The sweep is a safety net behind the per-incident
// timers: breach recording is idempotent, so checking an incident twice is
// harmless.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type SLAMonitorWorker struct {
	repo     interfaces.Repository
	incident *usecase.IncidentUseCase
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSLAMonitorWorker creates a new worker for SLA deadline sweeps
func NewSLAMonitorWorker(repo interfaces.Repository, incident *usecase.IncidentUseCase, interval time.Duration) *SLAMonitorWorker {
	return &SLAMonitorWorker{
		repo:     repo,
		incident: incident,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop. Does not block server startup.
func (w *SLAMonitorWorker) Start(ctx context.Context) error {
	logging.Default().Info("SLA monitor worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *SLAMonitorWorker) Stop() {
	logging.Default().Info("SLA monitor worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("SLA monitor worker stopped")
}

func (w *SLAMonitorWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				logging.Default().Error("SLA sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("SLA monitor worker context cancelled")
			return
		}
	}
}

// Sweep runs a single pass over all tenants' open incidents
func (w *SLAMonitorWorker) Sweep(ctx context.Context) error {
	startTime := time.Now()

	tenants, err := w.repo.Incident().Tenants(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list tenants")
	}

	checked, breached := 0, 0
	for _, tenant := range tenants {
		n, b, err := w.sweepTenant(ctx, tenant)
		if err != nil {
			logging.From(ctx).Error("tenant SLA sweep failed",
				"tenant_id", tenant, "error", err.Error())
			continue
		}
		checked += n
		breached += b
	}

	if breached > 0 || checked > 0 {
		logging.From(ctx).Debug("SLA sweep completed",
			"tenants", len(tenants),
			"checked", checked,
			"breached", breached,
			"duration", time.Since(startTime).String())
	}
	return nil
}

func (w *SLAMonitorWorker) sweepTenant(ctx context.Context, tenant types.TenantID) (checked, breached int, err error) {
	open, err := w.repo.Incident().ListOpen(ctx, tenant)
	if err != nil {
		return 0, 0, goerr.Wrap(err, "failed to list open incidents", goerr.V("tenant_id", tenant))
	}

	for _, inc := range open {
		result, err := w.incident.CheckSLA(ctx, tenant, inc.ID)
		if err != nil {
			logging.From(ctx).Error("SLA check failed",
				"tenant_id", tenant, "incident_id", inc.ID, "error", err.Error())
			continue
		}
		checked++
		if result.AckBreached || result.ResolveBreached {
			breached++
		}
	}
	return checked, breached, nil
}
