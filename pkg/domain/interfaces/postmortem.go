package interfaces

import (
	"context"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// PostmortemRepository defines the interface for Postmortem data access
type PostmortemRepository interface {
	// Create persists a new postmortem. At most one exists per incident.
	Create(ctx context.Context, tenant types.TenantID, pm *model.Postmortem) (*model.Postmortem, error)

	// Get retrieves a postmortem by ID
	Get(ctx context.Context, tenant types.TenantID, id types.PostmortemID) (*model.Postmortem, error)

	// GetByIncident retrieves the postmortem of an incident, or nil when
	// none has been generated yet.
	GetByIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.Postmortem, error)

	// Update replaces the stored postmortem (action item status changes only)
	Update(ctx context.Context, tenant types.TenantID, pm *model.Postmortem) (*model.Postmortem, error)
}
