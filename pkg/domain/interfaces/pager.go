package interfaces

import (
	"context"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// Pager drives the escalation chain for incidents. The incident use case
// calls it on create, SLA breach and resolution; the HTTP layer calls
// Acknowledge.
type Pager interface {
	// Trigger starts the escalation chain at step 0
	Trigger(ctx context.Context, inc *model.Incident) error

	// Acknowledge marks the active alert acknowledged and stops its timer
	Acknowledge(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, responder string) (*model.PagerAlert, error)

	// EscalateNow advances the chain immediately, bypassing the pending
	// step timer (SLA breach path).
	EscalateNow(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, reason model.EscalationReason) error

	// Cancel stops the pending escalation timer of the incident and settles
	// its active alert. Called when the incident resolves.
	Cancel(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) error
}
