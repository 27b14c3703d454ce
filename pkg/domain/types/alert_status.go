package types

import "fmt"

// AlertStatus represents the state of a pager alert
type AlertStatus string

const (
	AlertStatusPending      AlertStatus = "PENDING"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusEscalated    AlertStatus = "ESCALATED"
	AlertStatusResolved     AlertStatus = "RESOLVED"
	AlertStatusFailed       AlertStatus = "FAILED"
)

// AllAlertStatuses returns all valid alert statuses
func AllAlertStatuses() []AlertStatus {
	return []AlertStatus{
		AlertStatusPending,
		AlertStatusAcknowledged,
		AlertStatusEscalated,
		AlertStatusResolved,
		AlertStatusFailed,
	}
}

// IsValid checks if the alert status is valid
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusPending,
		AlertStatusAcknowledged,
		AlertStatusEscalated,
		AlertStatusResolved,
		AlertStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the alert status
func (s AlertStatus) String() string {
	return string(s)
}

// ParseAlertStatus parses a string into an AlertStatus
func ParseAlertStatus(s string) (AlertStatus, error) {
	status := AlertStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid alert status: %s", s)
	}
	return status, nil
}
