package types

import "fmt"

// Priority represents the urgency class of an incident
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// AllPriorities returns all valid priorities ordered from most to least urgent
func AllPriorities() []Priority {
	return []Priority{
		PriorityP1,
		PriorityP2,
		PriorityP3,
		PriorityP4,
	}
}

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityP1,
		PriorityP2,
		PriorityP3,
		PriorityP4:
		return true
	default:
		return false
	}
}

// Rank returns the numeric rank of the priority (1 for P1 through 4 for P4).
// Lower rank means more urgent. Returns 0 for invalid priorities.
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	case PriorityP4:
		return 4
	default:
		return 0
	}
}

// String returns the string representation of the priority
func (p Priority) String() string {
	return string(p)
}

// ParsePriority parses a string into a Priority
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}
