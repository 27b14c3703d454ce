package model

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// EventDetail is the closed set of timeline event payloads. Each event kind
// has exactly one payload shape; open attribute maps are not allowed.
type EventDetail interface {
	Kind() types.EventKind
	Validate() error
}

// TimelineEvent is one immutable entry of an incident's append-only timeline.
// Kind always matches Detail.Kind().
type TimelineEvent struct {
	Timestamp time.Time
	Actor     string
	Kind      types.EventKind
	Detail    EventDetail
}

// NewTimelineEvent builds a timeline event from a detail payload, validating
// the payload and deriving the kind tag from it.
func NewTimelineEvent(ts time.Time, actor string, detail EventDetail) (TimelineEvent, error) {
	if detail == nil {
		return TimelineEvent{}, goerr.New("timeline event detail is required")
	}
	if err := detail.Validate(); err != nil {
		return TimelineEvent{}, goerr.Wrap(err, "invalid timeline event detail", goerr.V("kind", detail.Kind()))
	}
	if actor == "" {
		actor = types.SystemActor
	}
	return TimelineEvent{
		Timestamp: ts,
		Actor:     actor,
		Kind:      detail.Kind(),
		Detail:    detail,
	}, nil
}

// CreatedDetail records the initial detection of an incident
type CreatedDetail struct {
	Title           string         `json:"title"`
	Priority        types.Priority `json:"priority"`
	Category        types.Category `json:"category"`
	RelatedEntities []string       `json:"related_entities,omitempty"`
}

func (d CreatedDetail) Kind() types.EventKind { return types.EventKindCreated }

func (d CreatedDetail) Validate() error {
	if d.Title == "" {
		return goerr.New("title is required")
	}
	if !d.Priority.IsValid() {
		return goerr.New("invalid priority", goerr.V("priority", d.Priority))
	}
	if !d.Category.IsValid() {
		return goerr.New("invalid category", goerr.V("category", d.Category))
	}
	return nil
}

// AssignedDetail records an assignee change
type AssignedDetail struct {
	Assignee string `json:"assignee"`
}

func (d AssignedDetail) Kind() types.EventKind { return types.EventKindAssigned }

func (d AssignedDetail) Validate() error {
	if d.Assignee == "" {
		return goerr.New("assignee is required")
	}
	return nil
}

// StatusChangedDetail records a lifecycle transition
type StatusChangedDetail struct {
	From types.IncidentStatus `json:"from"`
	To   types.IncidentStatus `json:"to"`
}

func (d StatusChangedDetail) Kind() types.EventKind { return types.EventKindStatusChanged }

func (d StatusChangedDetail) Validate() error {
	if !d.From.IsValid() || !d.To.IsValid() {
		return goerr.New("invalid status in transition", goerr.V("from", d.From), goerr.V("to", d.To))
	}
	return nil
}

// ContainmentActionDetail records a containment measure taken by a responder
type ContainmentActionDetail struct {
	Description string `json:"description"`
}

func (d ContainmentActionDetail) Kind() types.EventKind { return types.EventKindContainmentAction }

func (d ContainmentActionDetail) Validate() error {
	if d.Description == "" {
		return goerr.New("description is required")
	}
	return nil
}

// PagedDetail records one page sent to a responder
type PagedDetail struct {
	Responder string            `json:"responder"`
	Role      string            `json:"role"`
	StepIndex int               `json:"step_index"`
	Channel   types.ChannelType `json:"channel"`
	AlertID   types.AlertID     `json:"alert_id"`
	Retries   int               `json:"retries,omitempty"`
}

func (d PagedDetail) Kind() types.EventKind { return types.EventKindPaged }

func (d PagedDetail) Validate() error {
	if d.Responder == "" {
		return goerr.New("responder is required")
	}
	if !d.Channel.IsValid() {
		return goerr.New("invalid channel", goerr.V("channel", d.Channel))
	}
	if d.StepIndex < 0 {
		return goerr.New("step index must not be negative", goerr.V("step_index", d.StepIndex))
	}
	return nil
}

// AcknowledgedDetail records a responder acknowledging the active alert
type AcknowledgedDetail struct {
	Responder string        `json:"responder"`
	StepIndex int           `json:"step_index"`
	AlertID   types.AlertID `json:"alert_id"`
}

func (d AcknowledgedDetail) Kind() types.EventKind { return types.EventKindAcknowledged }

func (d AcknowledgedDetail) Validate() error {
	if d.Responder == "" {
		return goerr.New("responder is required")
	}
	return nil
}

// EscalationReason explains why an escalation step was advanced
type EscalationReason string

const (
	EscalationReasonTimeout        EscalationReason = "timeout"
	EscalationReasonSLABreach      EscalationReason = "sla_breach"
	EscalationReasonChannelFailure EscalationReason = "channel_failure"
	EscalationReasonManual         EscalationReason = "manual"
)

// EscalatedDetail records advancing to the next escalation step
type EscalatedDetail struct {
	FromStep int              `json:"from_step"`
	ToStep   int              `json:"to_step"`
	Reason   EscalationReason `json:"reason"`
}

func (d EscalatedDetail) Kind() types.EventKind { return types.EventKindEscalated }

func (d EscalatedDetail) Validate() error {
	if d.FromStep < 0 || d.ToStep < 0 {
		return goerr.New("step indexes must not be negative")
	}
	switch d.Reason {
	case EscalationReasonTimeout, EscalationReasonSLABreach, EscalationReasonChannelFailure, EscalationReasonManual:
		return nil
	default:
		return goerr.New("invalid escalation reason", goerr.V("reason", d.Reason))
	}
}

// ResolvedDetail records the resolution of an incident
type ResolvedDetail struct {
	Note string `json:"note,omitempty"`
}

func (d ResolvedDetail) Kind() types.EventKind { return types.EventKindResolved }

func (d ResolvedDetail) Validate() error { return nil }

// ReopenedDetail records a settled incident returning to investigation
type ReopenedDetail struct {
	Reason string `json:"reason,omitempty"`
}

func (d ReopenedDetail) Kind() types.EventKind { return types.EventKindReopened }

func (d ReopenedDetail) Validate() error { return nil }

// CommentDetail records a free-form responder note. FollowUp marks comments
// that the postmortem generator extracts as action items.
type CommentDetail struct {
	Body     string `json:"body"`
	FollowUp bool   `json:"follow_up,omitempty"`
}

func (d CommentDetail) Kind() types.EventKind { return types.EventKindComment }

func (d CommentDetail) Validate() error {
	if d.Body == "" {
		return goerr.New("comment body is required")
	}
	return nil
}

// SLAKind names which SLA deadline was breached
type SLAKind string

const (
	SLAKindAck     SLAKind = "ack"
	SLAKindResolve SLAKind = "resolve"
)

// SLABreachDetail records a missed SLA deadline
type SLABreachDetail struct {
	Breach   SLAKind   `json:"breach"`
	Deadline time.Time `json:"deadline"`
}

func (d SLABreachDetail) Kind() types.EventKind { return types.EventKindSLABreach }

func (d SLABreachDetail) Validate() error {
	if d.Breach != SLAKindAck && d.Breach != SLAKindResolve {
		return goerr.New("invalid SLA breach kind", goerr.V("breach", d.Breach))
	}
	return nil
}

// EscalationExhaustedDetail records that every escalation step timed out
// without acknowledgment. Emitted at most once per escalation episode.
type EscalationExhaustedDetail struct {
	Steps         int    `json:"steps"`
	LastResponder string `json:"last_responder,omitempty"`
}

func (d EscalationExhaustedDetail) Kind() types.EventKind {
	return types.EventKindEscalationExhausted
}

func (d EscalationExhaustedDetail) Validate() error {
	if d.Steps <= 0 {
		return goerr.New("steps must be positive", goerr.V("steps", d.Steps))
	}
	return nil
}

type timelineEventJSON struct {
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor"`
	Kind      types.EventKind `json:"kind"`
	Detail    json.RawMessage `json:"detail"`
}

// MarshalJSON encodes the event with a kind tag and the kind-specific payload
func (e TimelineEvent) MarshalJSON() ([]byte, error) {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal event detail", goerr.V("kind", e.Kind))
	}
	return json.Marshal(timelineEventJSON{
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Kind:      e.Kind,
		Detail:    detail,
	})
}

// UnmarshalJSON decodes the kind tag first and dispatches to the matching
// payload type. Unknown kinds are rejected.
func (e *TimelineEvent) UnmarshalJSON(data []byte) error {
	var raw timelineEventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "failed to unmarshal timeline event")
	}

	detail, err := unmarshalDetail(raw.Kind, raw.Detail)
	if err != nil {
		return err
	}

	e.Timestamp = raw.Timestamp
	e.Actor = raw.Actor
	e.Kind = raw.Kind
	e.Detail = detail
	return nil
}

func unmarshalDetail(kind types.EventKind, data json.RawMessage) (EventDetail, error) {
	decode := func(v EventDetail) (EventDetail, error) {
		if len(data) > 0 {
			if err := json.Unmarshal(data, v); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal event detail", goerr.V("kind", kind))
			}
		}
		return v, nil
	}

	switch kind {
	case types.EventKindCreated:
		d, err := decode(&CreatedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*CreatedDetail), nil
	case types.EventKindAssigned:
		d, err := decode(&AssignedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*AssignedDetail), nil
	case types.EventKindStatusChanged:
		d, err := decode(&StatusChangedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*StatusChangedDetail), nil
	case types.EventKindContainmentAction:
		d, err := decode(&ContainmentActionDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*ContainmentActionDetail), nil
	case types.EventKindPaged:
		d, err := decode(&PagedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*PagedDetail), nil
	case types.EventKindAcknowledged:
		d, err := decode(&AcknowledgedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*AcknowledgedDetail), nil
	case types.EventKindEscalated:
		d, err := decode(&EscalatedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*EscalatedDetail), nil
	case types.EventKindResolved:
		d, err := decode(&ResolvedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*ResolvedDetail), nil
	case types.EventKindReopened:
		d, err := decode(&ReopenedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*ReopenedDetail), nil
	case types.EventKindComment:
		d, err := decode(&CommentDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*CommentDetail), nil
	case types.EventKindSLABreach:
		d, err := decode(&SLABreachDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*SLABreachDetail), nil
	case types.EventKindEscalationExhausted:
		d, err := decode(&EscalationExhaustedDetail{})
		if err != nil {
			return nil, err
		}
		return *d.(*EscalationExhaustedDetail), nil
	default:
		return nil, goerr.New("unknown event kind", goerr.V("kind", kind))
	}
}
