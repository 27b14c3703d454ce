package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

type postmortemRepository struct {
	mu          sync.RWMutex
	postmortems map[types.TenantID]map[types.PostmortemID]*model.Postmortem
	byIncident  map[types.TenantID]map[types.IncidentID]types.PostmortemID
}

func newPostmortemRepository() *postmortemRepository {
	return &postmortemRepository{
		postmortems: make(map[types.TenantID]map[types.PostmortemID]*model.Postmortem),
		byIncident:  make(map[types.TenantID]map[types.IncidentID]types.PostmortemID),
	}
}

func (r *postmortemRepository) ensureTenant(tenant types.TenantID) {
	if _, exists := r.postmortems[tenant]; !exists {
		r.postmortems[tenant] = make(map[types.PostmortemID]*model.Postmortem)
	}
	if _, exists := r.byIncident[tenant]; !exists {
		r.byIncident[tenant] = make(map[types.IncidentID]types.PostmortemID)
	}
}

func (r *postmortemRepository) Create(ctx context.Context, tenant types.TenantID, pm *model.Postmortem) (*model.Postmortem, error) {
	if err := tenant.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid tenant")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTenant(tenant)

	if existingID, exists := r.byIncident[tenant][pm.IncidentID]; exists {
		return nil, goerr.New("postmortem already exists for incident",
			goerr.V("incident_id", pm.IncidentID),
			goerr.V("postmortem_id", existingID))
	}

	created := pm.Clone()
	if created.ID == "" {
		created.ID = types.NewPostmortemID()
	}
	created.TenantID = tenant
	created.CreatedAt = time.Now().UTC()

	r.postmortems[tenant][created.ID] = created
	r.byIncident[tenant][created.IncidentID] = created.ID
	return created.Clone(), nil
}

func (r *postmortemRepository) Get(ctx context.Context, tenant types.TenantID, id types.PostmortemID) (*model.Postmortem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, exists := r.postmortems[tenant]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "postmortem not found", goerr.V("id", id))
	}

	pm, exists := ws[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "postmortem not found", goerr.V("id", id))
	}

	return pm.Clone(), nil
}

func (r *postmortemRepository) GetByIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.Postmortem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, exists := r.byIncident[tenant]
	if !exists {
		return nil, nil
	}

	id, exists := ids[incidentID]
	if !exists {
		return nil, nil
	}

	return r.postmortems[tenant][id].Clone(), nil
}

func (r *postmortemRepository) Update(ctx context.Context, tenant types.TenantID, pm *model.Postmortem) (*model.Postmortem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, exists := r.postmortems[tenant]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "postmortem not found", goerr.V("id", pm.ID))
	}

	existing, exists := ws[pm.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "postmortem not found", goerr.V("id", pm.ID))
	}

	updated := pm.Clone()
	updated.CreatedAt = existing.CreatedAt

	r.postmortems[tenant][updated.ID] = updated
	return updated.Clone(), nil
}
