package model

import (
	"time"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// PostmortemSection is one ordered block of the postmortem document
type PostmortemSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ActionItem is a follow-up task extracted from the incident timeline. Its
// status is the only field that may change after generation.
type ActionItem struct {
	ID          types.ActionItemID     `json:"id"`
	Description string                 `json:"description"`
	SourceKind  types.EventKind        `json:"source_kind"`
	Status      types.ActionItemStatus `json:"status"`
}

// Postmortem is the structured retrospective derived from a resolved
// incident's timeline. Exactly one exists per incident.
type Postmortem struct {
	ID          types.PostmortemID  `json:"id"`
	TenantID    types.TenantID      `json:"tenant_id"`
	IncidentID  types.IncidentID    `json:"incident_id"`
	Sections    []PostmortemSection `json:"sections"`
	ActionItems []ActionItem        `json:"action_items"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Clone returns a deep copy of the postmortem
func (p *Postmortem) Clone() *Postmortem {
	copied := *p

	copied.Sections = make([]PostmortemSection, len(p.Sections))
	copy(copied.Sections, p.Sections)

	copied.ActionItems = make([]ActionItem, len(p.ActionItems))
	copy(copied.ActionItems, p.ActionItems)

	return &copied
}
