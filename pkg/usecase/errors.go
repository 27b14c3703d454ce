package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrIncidentNotFound   = errors.New("incident not found")
	ErrPostmortemNotFound = errors.New("postmortem not found")
)

// Context keys for error values
const (
	TenantIDKey   = "tenant_id"
	IncidentIDKey = "incident_id"
)
