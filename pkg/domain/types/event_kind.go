package types

import "fmt"

// EventKind represents the type of a timeline event
type EventKind string

const (
	EventKindCreated             EventKind = "created"
	EventKindAssigned            EventKind = "assigned"
	EventKindStatusChanged       EventKind = "status_changed"
	EventKindContainmentAction   EventKind = "containment_action"
	EventKindPaged               EventKind = "paged"
	EventKindAcknowledged        EventKind = "acknowledged"
	EventKindEscalated           EventKind = "escalated"
	EventKindResolved            EventKind = "resolved"
	EventKindReopened            EventKind = "reopened"
	EventKindComment             EventKind = "comment"
	EventKindSLABreach           EventKind = "sla_breach"
	EventKindEscalationExhausted EventKind = "escalation_exhausted"
)

// AllEventKinds returns all valid timeline event kinds
func AllEventKinds() []EventKind {
	return []EventKind{
		EventKindCreated,
		EventKindAssigned,
		EventKindStatusChanged,
		EventKindContainmentAction,
		EventKindPaged,
		EventKindAcknowledged,
		EventKindEscalated,
		EventKindResolved,
		EventKindReopened,
		EventKindComment,
		EventKindSLABreach,
		EventKindEscalationExhausted,
	}
}

// IsValid checks if the event kind is valid
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindCreated,
		EventKindAssigned,
		EventKindStatusChanged,
		EventKindContainmentAction,
		EventKindPaged,
		EventKindAcknowledged,
		EventKindEscalated,
		EventKindResolved,
		EventKindReopened,
		EventKindComment,
		EventKindSLABreach,
		EventKindEscalationExhausted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the event kind
func (k EventKind) String() string {
	return string(k)
}

// ParseEventKind parses a string into an EventKind
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid event kind: %s", s)
	}
	return k, nil
}
