package interfaces

import (
	"context"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// IncidentRepository defines the interface for Incident data access. Every
// call is scoped by tenant; a repository never returns data across tenants.
type IncidentRepository interface {
	// Create persists a new incident with an auto-generated per-tenant ID
	Create(ctx context.Context, tenant types.TenantID, inc *model.Incident) (*model.Incident, error)

	// Get retrieves an incident by ID
	Get(ctx context.Context, tenant types.TenantID, id types.IncidentID) (*model.Incident, error)

	// List retrieves all incidents of the tenant
	List(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error)

	// ListOpen retrieves incidents that are not resolved or closed
	ListOpen(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error)

	// Update replaces the stored incident. The caller holds the incident's
	// lock; timeline entries may only be appended, never rewritten.
	Update(ctx context.Context, tenant types.TenantID, inc *model.Incident) (*model.Incident, error)

	// Tenants returns all tenant IDs that own at least one incident
	Tenants(ctx context.Context) ([]types.TenantID, error)
}
