package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// SLATarget holds the acknowledgment and resolution bounds for one priority
type SLATarget struct {
	Ack     time.Duration
	Resolve time.Duration
}

// SLAConfig maps priorities to their SLA targets. The table is configuration:
// values are supplied at startup and validated, not baked into logic.
type SLAConfig struct {
	Targets map[types.Priority]SLATarget
}

// DefaultSLAConfig returns the standard SLA table used when no configuration
// file overrides it.
func DefaultSLAConfig() *SLAConfig {
	return &SLAConfig{
		Targets: map[types.Priority]SLATarget{
			types.PriorityP1: {Ack: 15 * time.Minute, Resolve: 4 * time.Hour},
			types.PriorityP2: {Ack: 30 * time.Minute, Resolve: 8 * time.Hour},
			types.PriorityP3: {Ack: 2 * time.Hour, Resolve: 24 * time.Hour},
			types.PriorityP4: {Ack: 8 * time.Hour, Resolve: 72 * time.Hour},
		},
	}
}

// Validate checks that every priority has a target, ack never exceeds
// resolve, and both bounds grow strictly looser from P1 to P4.
func (c *SLAConfig) Validate() error {
	var prev SLATarget
	for i, p := range types.AllPriorities() {
		target, ok := c.Targets[p]
		if !ok {
			return goerr.New("missing SLA target for priority", goerr.V("priority", p))
		}
		if target.Ack <= 0 || target.Resolve <= 0 {
			return goerr.New("SLA durations must be positive", goerr.V("priority", p))
		}
		if target.Ack > target.Resolve {
			return goerr.New("ack SLA must not exceed resolve SLA",
				goerr.V("priority", p), goerr.V("ack", target.Ack), goerr.V("resolve", target.Resolve))
		}
		if i > 0 {
			if target.Ack <= prev.Ack || target.Resolve <= prev.Resolve {
				return goerr.New("SLA targets must be strictly looser from P1 to P4",
					goerr.V("priority", p))
			}
		}
		prev = target
	}
	return nil
}

// Target returns the SLA target for the priority
func (c *SLAConfig) Target(p types.Priority) (SLATarget, error) {
	target, ok := c.Targets[p]
	if !ok {
		return SLATarget{}, goerr.Wrap(ErrInvalidPriority, "no SLA target configured", goerr.V("priority", p))
	}
	return target, nil
}

// Deadlines computes the fixed ack/resolve deadlines for an incident created
// at the given time.
func (c *SLAConfig) Deadlines(p types.Priority, createdAt time.Time) (ack, resolve time.Time, err error) {
	target, err := c.Target(p)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return createdAt.Add(target.Ack), createdAt.Add(target.Resolve), nil
}
