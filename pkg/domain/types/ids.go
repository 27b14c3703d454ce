package types

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// IncidentID identifies an incident within a tenant. IDs are sequential per
// tenant and assigned by the repository.
type IncidentID int64

// TenantID is the opaque isolation boundary identifier. It is validated
// upstream; the engine only checks presence and equality, never its content.
type TenantID string

// Validate checks that the tenant ID is present
func (t TenantID) Validate() error {
	if t == "" {
		return goerr.New("tenant ID is required")
	}
	return nil
}

// String returns the string representation of the tenant ID
func (t TenantID) String() string {
	return string(t)
}

// AlertID identifies a pager alert
type AlertID string

// NewAlertID generates a new random alert ID
func NewAlertID() AlertID {
	return AlertID(uuid.NewString())
}

// String returns the string representation of the alert ID
func (a AlertID) String() string {
	return string(a)
}

// PostmortemID identifies a postmortem document
type PostmortemID string

// NewPostmortemID generates a new random postmortem ID
func NewPostmortemID() PostmortemID {
	return PostmortemID(uuid.NewString())
}

// String returns the string representation of the postmortem ID
func (p PostmortemID) String() string {
	return string(p)
}

// ActionItemID identifies an action item within a postmortem
type ActionItemID string

// NewActionItemID generates a new random action item ID
func NewActionItemID() ActionItemID {
	return ActionItemID(uuid.NewString())
}

// String returns the string representation of the action item ID
func (a ActionItemID) String() string {
	return string(a)
}

// SystemActor is the actor recorded on timeline events emitted by the engine
// itself rather than by a user.
const SystemActor = "system"

// IncidentLockKey builds the keyed-lock key serializing all mutations of one
// incident. The use case layer and the pager share one lock set keyed by this.
func IncidentLockKey(tenant TenantID, id IncidentID) string {
	return fmt.Sprintf("incident/%s/%d", tenant, id)
}

// SLATimerKey builds the scheduler key for one of an incident's SLA deadline
// timers. Kind is "ack" or "resolve"; each incident has at most one pending
// timer per kind.
func SLATimerKey(kind string, tenant TenantID, id IncidentID) string {
	return fmt.Sprintf("sla/%s/%s/%d", kind, tenant, id)
}
