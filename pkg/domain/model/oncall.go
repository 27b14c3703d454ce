package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// OnCallShift is one time window during which a responder covers a role.
// A zero Start or End means the shift is open at that side.
type OnCallShift struct {
	Responder string
	Start     time.Time
	End       time.Time
}

// Covers reports whether the shift is active at t
func (s *OnCallShift) Covers(t time.Time) bool {
	if !s.Start.IsZero() && t.Before(s.Start) {
		return false
	}
	if !s.End.IsZero() && !t.Before(s.End) {
		return false
	}
	return true
}

// OnCallRotation maps a role to its ordered shifts plus a fallback responder
// used when no shift covers the lookup time.
type OnCallRotation struct {
	Role     string
	Fallback string
	Shifts   []OnCallShift
}

// Validate checks if the rotation is valid
func (r *OnCallRotation) Validate() error {
	if r.Role == "" {
		return goerr.New("rotation role is required")
	}
	if r.Fallback == "" && len(r.Shifts) == 0 {
		return goerr.New("rotation needs a fallback responder or at least one shift",
			goerr.V("role", r.Role))
	}
	for i, shift := range r.Shifts {
		if shift.Responder == "" {
			return goerr.New("shift responder is required",
				goerr.V("role", r.Role), goerr.V("shift", i))
		}
		if !shift.Start.IsZero() && !shift.End.IsZero() && !shift.Start.Before(shift.End) {
			return goerr.New("shift start must precede end",
				goerr.V("role", r.Role), goerr.V("shift", i))
		}
	}
	return nil
}

// OnCallSchedule is the read-only (role, point-in-time) → responder table
type OnCallSchedule struct {
	Rotations []OnCallRotation
}

// Validate checks every rotation and rejects duplicate roles
func (s *OnCallSchedule) Validate() error {
	seen := make(map[string]bool, len(s.Rotations))
	for i := range s.Rotations {
		r := &s.Rotations[i]
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.Role] {
			return goerr.New("duplicate rotation role", goerr.V("role", r.Role))
		}
		seen[r.Role] = true
	}
	return nil
}

// Lookup resolves the responder for a role at time t. The first covering
// shift wins; the rotation fallback is used when no shift covers t.
func (s *OnCallSchedule) Lookup(role string, t time.Time) (string, error) {
	for i := range s.Rotations {
		r := &s.Rotations[i]
		if r.Role != role {
			continue
		}
		for j := range r.Shifts {
			if r.Shifts[j].Covers(t) {
				return r.Shifts[j].Responder, nil
			}
		}
		if r.Fallback != "" {
			return r.Fallback, nil
		}
		return "", goerr.New("no responder on call for role", goerr.V("role", role), goerr.V("at", t))
	}
	return "", goerr.New("unknown on-call role", goerr.V("role", role))
}
