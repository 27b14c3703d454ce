package types

import "fmt"

// IncidentStatus represents the lifecycle state of an incident
type IncidentStatus string

const (
	IncidentStatusNew           IncidentStatus = "NEW"
	IncidentStatusAcknowledged  IncidentStatus = "ACKNOWLEDGED"
	IncidentStatusInvestigating IncidentStatus = "INVESTIGATING"
	IncidentStatusContained     IncidentStatus = "CONTAINED"
	IncidentStatusResolved      IncidentStatus = "RESOLVED"
	IncidentStatusClosed        IncidentStatus = "CLOSED"
)

// AllIncidentStatuses returns all valid incident statuses in lifecycle order
func AllIncidentStatuses() []IncidentStatus {
	return []IncidentStatus{
		IncidentStatusNew,
		IncidentStatusAcknowledged,
		IncidentStatusInvestigating,
		IncidentStatusContained,
		IncidentStatusResolved,
		IncidentStatusClosed,
	}
}

// IsValid checks if the incident status is valid
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusNew,
		IncidentStatusAcknowledged,
		IncidentStatusInvestigating,
		IncidentStatusContained,
		IncidentStatusResolved,
		IncidentStatusClosed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the normal lifecycle
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusClosed
}

// IsSettled reports whether the incident no longer needs paging
func (s IncidentStatus) IsSettled() bool {
	return s == IncidentStatusResolved || s == IncidentStatusClosed
}

// incidentTransitions is the closed transition table of the lifecycle state
// machine. Forward transitions are monotonic; reopening is the single explicit
// exception, moving a settled incident back to INVESTIGATING.
var incidentTransitions = map[IncidentStatus][]IncidentStatus{
	IncidentStatusNew:           {IncidentStatusAcknowledged},
	IncidentStatusAcknowledged:  {IncidentStatusInvestigating},
	IncidentStatusInvestigating: {IncidentStatusContained},
	IncidentStatusContained:     {IncidentStatusResolved},
	IncidentStatusResolved:      {IncidentStatusClosed, IncidentStatusInvestigating},
	IncidentStatusClosed:        {IncidentStatusInvestigating},
}

// CanTransition reports whether the status graph allows moving from s to next
func (s IncidentStatus) CanTransition(next IncidentStatus) bool {
	for _, allowed := range incidentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String returns the string representation of the incident status
func (s IncidentStatus) String() string {
	return string(s)
}

// ParseIncidentStatus parses a string into an IncidentStatus
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	status := IncidentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid incident status: %s", s)
	}
	return status, nil
}
