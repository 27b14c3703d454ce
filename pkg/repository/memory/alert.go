package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

type alertRepository struct {
	mu     sync.RWMutex
	alerts map[types.TenantID]map[types.AlertID]*model.PagerAlert
}

func newAlertRepository() *alertRepository {
	return &alertRepository{
		alerts: make(map[types.TenantID]map[types.AlertID]*model.PagerAlert),
	}
}

func (r *alertRepository) ensureTenant(tenant types.TenantID) {
	if _, exists := r.alerts[tenant]; !exists {
		r.alerts[tenant] = make(map[types.AlertID]*model.PagerAlert)
	}
}

func (r *alertRepository) Create(ctx context.Context, tenant types.TenantID, alert *model.PagerAlert) (*model.PagerAlert, error) {
	if err := tenant.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid tenant")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTenant(tenant)

	created := alert.Clone()
	if created.ID == "" {
		created.ID = types.NewAlertID()
	}
	created.TenantID = tenant

	r.alerts[tenant][created.ID] = created
	return created.Clone(), nil
}

func (r *alertRepository) Get(ctx context.Context, tenant types.TenantID, id types.AlertID) (*model.PagerAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, exists := r.alerts[tenant]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
	}

	alert, exists := ws[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
	}

	return alert.Clone(), nil
}

func (r *alertRepository) GetActive(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.PagerAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, exists := r.alerts[tenant]
	if !exists {
		return nil, nil
	}

	for _, alert := range ws {
		if alert.IncidentID == incidentID && alert.Active() {
			return alert.Clone(), nil
		}
	}
	return nil, nil
}

func (r *alertRepository) ListByIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) ([]*model.PagerAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, exists := r.alerts[tenant]
	if !exists {
		return []*model.PagerAlert{}, nil
	}

	alerts := make([]*model.PagerAlert, 0)
	for _, alert := range ws {
		if alert.IncidentID == incidentID {
			alerts = append(alerts, alert.Clone())
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].SentAt.Equal(alerts[j].SentAt) {
			return alerts[i].StepIndex < alerts[j].StepIndex
		}
		return alerts[i].SentAt.Before(alerts[j].SentAt)
	})

	return alerts, nil
}

func (r *alertRepository) Update(ctx context.Context, tenant types.TenantID, alert *model.PagerAlert) (*model.PagerAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, exists := r.alerts[tenant]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", alert.ID))
	}

	if _, exists := ws[alert.ID]; !exists {
		return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", alert.ID))
	}

	updated := alert.Clone()
	r.alerts[tenant][updated.ID] = updated
	return updated.Clone(), nil
}
