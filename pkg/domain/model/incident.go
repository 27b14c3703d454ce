package model

import (
	"time"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// Incident represents one tracked problem from detection to closure.
// The timeline is append-only; deadlines are fixed at creation and never
// silently change.
type Incident struct {
	ID              types.IncidentID     `json:"id"`
	TenantID        types.TenantID       `json:"tenant_id"`
	Title           string               `json:"title"`
	Category        types.Category       `json:"category"`
	Priority        types.Priority       `json:"priority"`
	Status          types.IncidentStatus `json:"status"`
	Assignee        string               `json:"assignee,omitempty"`
	RelatedEntities []string             `json:"related_entities,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	AckDeadline     time.Time  `json:"ack_deadline"`
	ResolveDeadline time.Time  `json:"resolve_deadline"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Timeline []TimelineEvent `json:"timeline"`
}

// Append adds one event to the timeline. The timeline only ever grows.
func (i *Incident) Append(ev TimelineEvent) {
	i.Timeline = append(i.Timeline, ev)
}

// Acked reports whether the incident has been acknowledged
func (i *Incident) Acked() bool {
	return i.AcknowledgedAt != nil
}

// Clone returns a deep copy of the incident. Timeline events are immutable
// value types, so copying the slice header contents is sufficient.
func (i *Incident) Clone() *Incident {
	copied := *i

	copied.RelatedEntities = make([]string, len(i.RelatedEntities))
	copy(copied.RelatedEntities, i.RelatedEntities)

	copied.Timeline = make([]TimelineEvent, len(i.Timeline))
	copy(copied.Timeline, i.Timeline)

	if i.AcknowledgedAt != nil {
		t := *i.AcknowledgedAt
		copied.AcknowledgedAt = &t
	}
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		copied.ResolvedAt = &t
	}

	return &copied
}
