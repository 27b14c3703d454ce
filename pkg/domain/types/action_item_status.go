package types

import "fmt"

// ActionItemStatus represents the status of a postmortem action item
type ActionItemStatus string

const (
	ActionItemStatusOpen       ActionItemStatus = "OPEN"
	ActionItemStatusInProgress ActionItemStatus = "IN_PROGRESS"
	ActionItemStatusDone       ActionItemStatus = "DONE"
)

// AllActionItemStatuses returns all valid action item statuses
func AllActionItemStatuses() []ActionItemStatus {
	return []ActionItemStatus{
		ActionItemStatusOpen,
		ActionItemStatusInProgress,
		ActionItemStatusDone,
	}
}

// IsValid checks if the action item status is valid
func (s ActionItemStatus) IsValid() bool {
	switch s {
	case ActionItemStatusOpen,
		ActionItemStatusInProgress,
		ActionItemStatusDone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action item status
func (s ActionItemStatus) String() string {
	return string(s)
}

// ParseActionItemStatus parses a string into an ActionItemStatus
func ParseActionItemStatus(s string) (ActionItemStatus, error) {
	status := ActionItemStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid action item status: %s", s)
	}
	return status, nil
}
