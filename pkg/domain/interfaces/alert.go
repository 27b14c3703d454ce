package interfaces

import (
	"context"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// AlertRepository defines the interface for PagerAlert data access.
// Alerts are retained for audit; there is no delete operation.
type AlertRepository interface {
	// Create persists a new pager alert
	Create(ctx context.Context, tenant types.TenantID, alert *model.PagerAlert) (*model.PagerAlert, error)

	// Get retrieves an alert by ID
	Get(ctx context.Context, tenant types.TenantID, id types.AlertID) (*model.PagerAlert, error)

	// GetActive returns the pending alert of the incident, or nil when no
	// alert is pending.
	GetActive(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.PagerAlert, error)

	// ListByIncident returns the full alert history of the incident in send order
	ListByIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) ([]*model.PagerAlert, error)

	// Update replaces the stored alert
	Update(ctx context.Context, tenant types.TenantID, alert *model.PagerAlert) (*model.PagerAlert, error)
}
