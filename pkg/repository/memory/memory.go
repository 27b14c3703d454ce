package memory

import (
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-memory repository used for development and tests
type Memory struct {
	incident   *incidentRepository
	alert      *alertRepository
	postmortem *postmortemRepository
}

var _ interfaces.Repository = &Memory{}

// New creates an empty in-memory repository
func New() *Memory {
	return &Memory{
		incident:   newIncidentRepository(),
		alert:      newAlertRepository(),
		postmortem: newPostmortemRepository(),
	}
}

func (m *Memory) Incident() interfaces.IncidentRepository {
	return m.incident
}

func (m *Memory) Alert() interfaces.AlertRepository {
	return m.alert
}

func (m *Memory) Postmortem() interfaces.PostmortemRepository {
	return m.postmortem
}

func (m *Memory) Close() error {
	return nil
}
