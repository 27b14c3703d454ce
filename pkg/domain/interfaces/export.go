package interfaces

import (
	"context"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// AuditExporter writes an immutable snapshot of an incident's full record
// (incident, timeline, alert history) to external storage when it resolves.
type AuditExporter interface {
	ExportIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) error
}
