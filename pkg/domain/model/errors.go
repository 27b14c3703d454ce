package model

import "errors"

// Domain rule sentinels. Use cases and services wrap these with goerr so
// callers can match with errors.Is while keeping structured context.
var (
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrTenantMismatch      = errors.New("tenant mismatch")
	ErrNoActiveAlert       = errors.New("no active pager alert")
	ErrIncidentNotResolved = errors.New("incident is not resolved")
	ErrUnknownActionItem   = errors.New("unknown action item")

	// ErrChannelUnavailable marks a transient notification transport failure.
	// It is retried with bounded backoff within an escalation step.
	ErrChannelUnavailable = errors.New("notification channel unavailable")

	// ErrEscalationExhausted marks the terminal condition of an escalation
	// chain that ran out of steps without acknowledgment. It is surfaced,
	// never retried.
	ErrEscalationExhausted = errors.New("escalation chain exhausted")
)
