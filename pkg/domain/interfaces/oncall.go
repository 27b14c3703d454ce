package interfaces

import "time"

// OnCallResolver resolves the responder covering a role at a point in time
type OnCallResolver interface {
	Lookup(role string, t time.Time) (string, error)
}
