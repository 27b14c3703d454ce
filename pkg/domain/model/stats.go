package model

import (
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// IncidentStats is a read-only aggregation over one tenant's incident set
type IncidentStats struct {
	Total           int                          `json:"total"`
	ByStatus        map[types.IncidentStatus]int `json:"by_status"`
	ByPriority      map[types.Priority]int       `json:"by_priority"`
	ByCategory      map[types.Category]int       `json:"by_category"`
	AckBreaches     int                          `json:"ack_breaches"`
	ResolveBreaches int                          `json:"resolve_breaches"`
}

// NewIncidentStats returns a stats projection with all buckets initialized
func NewIncidentStats() *IncidentStats {
	s := &IncidentStats{
		ByStatus:   make(map[types.IncidentStatus]int),
		ByPriority: make(map[types.Priority]int),
		ByCategory: make(map[types.Category]int),
	}
	for _, st := range types.AllIncidentStatuses() {
		s.ByStatus[st] = 0
	}
	for _, p := range types.AllPriorities() {
		s.ByPriority[p] = 0
	}
	for _, c := range types.AllCategories() {
		s.ByCategory[c] = 0
	}
	return s
}
