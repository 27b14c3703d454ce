package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

type incidentRepository struct {
	mu        sync.RWMutex
	incidents map[types.TenantID]map[types.IncidentID]*model.Incident
	nextID    map[types.TenantID]types.IncidentID
}

func newIncidentRepository() *incidentRepository {
	return &incidentRepository{
		incidents: make(map[types.TenantID]map[types.IncidentID]*model.Incident),
		nextID:    make(map[types.TenantID]types.IncidentID),
	}
}

func (r *incidentRepository) ensureTenant(tenant types.TenantID) {
	if _, exists := r.incidents[tenant]; !exists {
		r.incidents[tenant] = make(map[types.IncidentID]*model.Incident)
	}
	if _, exists := r.nextID[tenant]; !exists {
		r.nextID[tenant] = 1
	}
}

func (r *incidentRepository) Create(ctx context.Context, tenant types.TenantID, inc *model.Incident) (*model.Incident, error) {
	if err := tenant.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid tenant")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTenant(tenant)

	created := inc.Clone()
	created.ID = r.nextID[tenant]
	created.TenantID = tenant
	created.UpdatedAt = time.Now().UTC()
	r.nextID[tenant]++

	r.incidents[tenant][created.ID] = created
	return created.Clone(), nil
}

func (r *incidentRepository) Get(ctx context.Context, tenant types.TenantID, id types.IncidentID) (*model.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, exists := r.incidents[tenant]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "incident not found", goerr.V("id", id))
	}

	inc, exists := ws[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "incident not found", goerr.V("id", id))
	}

	return inc.Clone(), nil
}

func (r *incidentRepository) List(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, exists := r.incidents[tenant]
	if !exists {
		return []*model.Incident{}, nil
	}

	incidents := make([]*model.Incident, 0, len(ws))
	for _, inc := range ws {
		incidents = append(incidents, inc.Clone())
	}

	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].ID < incidents[j].ID
	})

	return incidents, nil
}

func (r *incidentRepository) ListOpen(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error) {
	all, err := r.List(ctx, tenant)
	if err != nil {
		return nil, err
	}

	open := make([]*model.Incident, 0, len(all))
	for _, inc := range all {
		if !inc.Status.IsSettled() {
			open = append(open, inc)
		}
	}
	return open, nil
}

func (r *incidentRepository) Update(ctx context.Context, tenant types.TenantID, inc *model.Incident) (*model.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, exists := r.incidents[tenant]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "incident not found", goerr.V("id", inc.ID))
	}

	existing, exists := ws[inc.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "incident not found", goerr.V("id", inc.ID))
	}

	if len(inc.Timeline) < len(existing.Timeline) {
		return nil, goerr.New("timeline is append-only",
			goerr.V("id", inc.ID),
			goerr.V("stored", len(existing.Timeline)),
			goerr.V("incoming", len(inc.Timeline)))
	}

	updated := inc.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.incidents[tenant][updated.ID] = updated
	return updated.Clone(), nil
}

func (r *incidentRepository) Tenants(ctx context.Context) ([]types.TenantID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenants := make([]types.TenantID, 0, len(r.incidents))
	for t := range r.incidents {
		tenants = append(tenants, t)
	}

	sort.Slice(tenants, func(i, j int) bool { return tenants[i] < tenants[j] })
	return tenants, nil
}
