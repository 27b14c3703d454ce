package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// EscalationStep is one rung of an escalation chain: who to page, over which
// channel, and how long to wait for acknowledgment before moving on.
type EscalationStep struct {
	TargetRole string
	Timeout    time.Duration
	Channel    types.ChannelType
}

// Validate checks if the escalation step is valid
func (s *EscalationStep) Validate() error {
	if s.TargetRole == "" {
		return goerr.New("target role is required")
	}
	if s.Timeout <= 0 {
		return goerr.New("step timeout must be positive", goerr.V("timeout", s.Timeout))
	}
	if !s.Channel.IsValid() {
		return goerr.New("invalid channel", goerr.V("channel", s.Channel))
	}
	return nil
}

// EscalationPolicy is an ordered chain of escalation steps selected by the
// incident's category and priority. Policies are read-only configuration.
type EscalationPolicy struct {
	ID         string
	Categories []types.Category
	Priorities []types.Priority
	Steps      []EscalationStep
}

// Validate checks if the escalation policy is valid
func (p *EscalationPolicy) Validate() error {
	if p.ID == "" {
		return goerr.New("policy ID is required")
	}
	if len(p.Steps) == 0 {
		return goerr.New("policy must have at least one step", goerr.V("id", p.ID))
	}
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return goerr.Wrap(err, "invalid escalation step", goerr.V("id", p.ID), goerr.V("step", i))
		}
	}
	for _, c := range p.Categories {
		if !c.IsValid() {
			return goerr.New("invalid category selector", goerr.V("id", p.ID), goerr.V("category", c))
		}
	}
	for _, pr := range p.Priorities {
		if !pr.IsValid() {
			return goerr.New("invalid priority selector", goerr.V("id", p.ID), goerr.V("priority", pr))
		}
	}
	return nil
}

// Matches reports whether the policy applies to the given category and
// priority. Empty selector lists match everything.
func (p *EscalationPolicy) Matches(category types.Category, priority types.Priority) bool {
	if len(p.Categories) > 0 {
		found := false
		for _, c := range p.Categories {
			if c == category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(p.Priorities) > 0 {
		found := false
		for _, pr := range p.Priorities {
			if pr == priority {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PolicyBook holds all configured escalation policies in declaration order.
// The first matching policy wins; the last policy acts as the default when it
// carries no selectors.
type PolicyBook struct {
	Policies []EscalationPolicy
}

// Validate checks every policy and requires at least one catch-all
func (b *PolicyBook) Validate() error {
	if len(b.Policies) == 0 {
		return goerr.New("at least one escalation policy is required")
	}
	seen := make(map[string]bool, len(b.Policies))
	for i := range b.Policies {
		p := &b.Policies[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return goerr.New("duplicate policy ID", goerr.V("id", p.ID))
		}
		seen[p.ID] = true
	}

	last := &b.Policies[len(b.Policies)-1]
	if len(last.Categories) > 0 || len(last.Priorities) > 0 {
		return goerr.New("last policy must be a catch-all (no category/priority selectors)",
			goerr.V("id", last.ID))
	}
	return nil
}

// Lookup returns the first policy matching the category and priority
func (b *PolicyBook) Lookup(category types.Category, priority types.Priority) *EscalationPolicy {
	for i := range b.Policies {
		if b.Policies[i].Matches(category, priority) {
			return &b.Policies[i]
		}
	}
	return nil
}

// PagerAlert is one outstanding notification attempt tied to one escalation
// step. Superseded alerts are retained for audit, never deleted.
type PagerAlert struct {
	ID         types.AlertID     `json:"id"`
	TenantID   types.TenantID    `json:"tenant_id"`
	IncidentID types.IncidentID  `json:"incident_id"`
	PolicyID   string            `json:"policy_id"`
	StepIndex  int               `json:"step_index"`
	Responder  string            `json:"responder"`
	Role       string            `json:"role"`
	Channel    types.ChannelType `json:"channel"`
	Status     types.AlertStatus `json:"status"`
	SentAt     time.Time         `json:"sent_at"`
	AckedAt    *time.Time        `json:"acked_at,omitempty"`
	RetryCount int               `json:"retry_count"`
}

// Active reports whether the alert is still waiting for acknowledgment
func (a *PagerAlert) Active() bool {
	return a.Status == types.AlertStatusPending
}

// Clone returns a deep copy of the alert
func (a *PagerAlert) Clone() *PagerAlert {
	copied := *a
	if a.AckedAt != nil {
		t := *a.AckedAt
		copied.AckedAt = &t
	}
	return &copied
}
