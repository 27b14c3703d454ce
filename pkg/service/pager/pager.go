package pager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/metrics"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/scheduler"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/async"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/errutil"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/lock"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// Engine drives escalation chains. One pending step timer exists per incident
// at any moment; timers re-validate the incident at fire time under the shared
// per-incident lock, so a resolution or acknowledgment always beats a timer
// that fires in the same instant.
//
// Public methods acquire the incident lock themselves. Callers must not hold
// it when calling in.
type Engine struct {
	repo     interfaces.Repository
	notifier interfaces.Notifier
	oncall   interfaces.OnCallResolver
	policies *model.PolicyBook
	sched    *scheduler.Scheduler
	locks    *lock.Keyed
	clock    interfaces.Clock

	maxNotifyRetries int
	retryBackoff     time.Duration
}

var _ interfaces.Pager = &Engine{}

type Option func(*Engine)

// WithClock replaces the time source
func WithClock(clock interfaces.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithNotifyRetries sets how many times a failed delivery is retried within
// one escalation step before the step is abandoned as a channel failure.
func WithNotifyRetries(n int, backoff time.Duration) Option {
	return func(e *Engine) {
		e.maxNotifyRetries = n
		e.retryBackoff = backoff
	}
}

func New(repo interfaces.Repository, notifier interfaces.Notifier, oncall interfaces.OnCallResolver, policies *model.PolicyBook, sched *scheduler.Scheduler, locks *lock.Keyed, opts ...Option) *Engine {
	e := &Engine{
		repo:             repo,
		notifier:         notifier,
		oncall:           oncall,
		policies:         policies,
		sched:            sched,
		locks:            locks,
		clock:            scheduler.RealClock{},
		maxNotifyRetries: 2,
		retryBackoff:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func timerKey(tenant types.TenantID, id types.IncidentID) string {
	return fmt.Sprintf("escalation/%s/%d", tenant, id)
}

// Trigger starts the escalation chain at step 0. Paging runs detached so the
// caller's request is not held up by notification transport latency.
func (e *Engine) Trigger(ctx context.Context, inc *model.Incident) error {
	policy := e.policies.Lookup(inc.Category, inc.Priority)
	if policy == nil {
		return goerr.New("no escalation policy matches incident",
			goerr.V("category", inc.Category),
			goerr.V("priority", inc.Priority),
		)
	}

	tenant := inc.TenantID
	incidentID := inc.ID
	async.Dispatch(ctx, func(ctx context.Context) error {
		return e.pageStep(ctx, tenant, incidentID, policy, 0)
	})
	return nil
}

// pageStep pages the responder of one escalation step and arms its timeout
// timer. The pending alert is recorded before dispatch so concurrent
// escalation requests see the step in flight instead of restarting the chain.
// Delivery failure after retries advances the chain immediately.
func (e *Engine) pageStep(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, policy *model.EscalationPolicy, stepIndex int) error {
	if stepIndex >= len(policy.Steps) {
		return e.exhaust(ctx, tenant, incidentID, policy)
	}
	step := policy.Steps[stepIndex]

	responder, err := e.oncall.Lookup(step.TargetRole, e.clock.Now())
	if err != nil {
		logging.From(ctx).Warn("on-call lookup failed, skipping step",
			"role", step.TargetRole,
			"step", stepIndex,
			"error", err,
		)
		return e.advance(ctx, tenant, incidentID, policy, stepIndex, "", model.EscalationReasonChannelFailure)
	}

	inc, alert, err := e.openStep(ctx, tenant, incidentID, policy, stepIndex, step, responder)
	if err != nil || alert == nil {
		return err
	}

	// Delivery happens outside the incident lock.
	notifyErr := e.notifyWithRetry(ctx, responder, inc, step.Channel)

	unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))
	defer unlock()

	alert, err = e.repo.Alert().Get(ctx, tenant, alert.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to reload alert", goerr.V("alert_id", alert.ID))
	}
	if !alert.Active() {
		// Acknowledged, escalated or settled while the page was in flight.
		return nil
	}

	inc, err = e.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		return goerr.Wrap(err, "failed to reload incident", goerr.V("incident_id", incidentID))
	}
	if inc.Status.IsSettled() || inc.Acked() {
		return nil
	}

	if notifyErr != nil {
		alert.Status = types.AlertStatusFailed
		alert.RetryCount = e.maxNotifyRetries
		if _, err := e.repo.Alert().Update(ctx, tenant, alert); err != nil {
			return goerr.Wrap(err, "failed to record failed alert", goerr.V("alert_id", alert.ID))
		}
		errutil.Handle(ctx, notifyErr, "page delivery failed, escalating past channel")
		return e.advanceLocked(ctx, tenant, incidentID, policy, stepIndex, alert.Responder, model.EscalationReasonChannelFailure)
	}

	ev, err := model.NewTimelineEvent(e.clock.Now(), types.SystemActor, model.PagedDetail{
		Responder: responder,
		Role:      step.TargetRole,
		StepIndex: stepIndex,
		Channel:   step.Channel,
		AlertID:   alert.ID,
		Retries:   alert.RetryCount,
	})
	if err != nil {
		return err
	}
	inc.Append(ev)
	if _, err := e.repo.Incident().Update(ctx, tenant, inc); err != nil {
		return goerr.Wrap(err, "failed to record paged event", goerr.V("incident_id", incidentID))
	}

	fireAt := e.clock.Now().Add(step.Timeout)
	e.sched.Schedule(timerKey(tenant, incidentID), fireAt, func(ctx context.Context) {
		e.handleTimeout(ctx, tenant, incidentID, policy, stepIndex, alert.ID)
	})

	logging.From(ctx).Info("responder paged",
		"tenant_id", tenant,
		"incident_id", incidentID,
		"step", stepIndex,
		"responder", responder,
		"channel", step.Channel,
		"timeout_at", fireAt,
	)
	return nil
}

// openStep records one step's pending alert under the incident lock. Returns a
// nil alert when the chain is already dead and nothing should be paged.
func (e *Engine) openStep(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, policy *model.EscalationPolicy, stepIndex int, step model.EscalationStep, responder string) (*model.Incident, *model.PagerAlert, error) {
	unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))
	defer unlock()

	inc, err := e.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load incident", goerr.V("incident_id", incidentID))
	}
	if inc.Status.IsSettled() || inc.Acked() {
		return nil, nil, nil
	}

	alert := &model.PagerAlert{
		TenantID:   tenant,
		IncidentID: incidentID,
		PolicyID:   policy.ID,
		StepIndex:  stepIndex,
		Responder:  responder,
		Role:       step.TargetRole,
		Channel:    step.Channel,
		Status:     types.AlertStatusPending,
		SentAt:     e.clock.Now(),
	}
	alert, err = e.repo.Alert().Create(ctx, tenant, alert)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to record pager alert", goerr.V("incident_id", incidentID))
	}
	return inc, alert, nil
}

// notifyWithRetry delivers one page with bounded backoff. Only transient
// channel failures are retried.
func (e *Engine) notifyWithRetry(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error {
	backoff := e.retryBackoff
	var lastErr error

	for attempt := 0; attempt <= e.maxNotifyRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return goerr.Wrap(ctx.Err(), "notification canceled")
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err := e.notifier.Notify(ctx, responder, inc, channel)
		metrics.ObservePage(channel, err)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, model.ErrChannelUnavailable) {
			return err
		}
	}
	return lastErr
}

// handleTimeout is the step timer callback. It re-validates at fire time:
// an incident that was acknowledged or settled while the timer was in flight
// is left alone.
func (e *Engine) handleTimeout(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, policy *model.EscalationPolicy, stepIndex int, alertID types.AlertID) {
	err := func() error {
		unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))
		defer unlock()

		inc, err := e.repo.Incident().Get(ctx, tenant, incidentID)
		if err != nil {
			return goerr.Wrap(err, "failed to reload incident", goerr.V("incident_id", incidentID))
		}
		if inc.Status.IsSettled() || inc.Acked() {
			return nil
		}

		alert, err := e.repo.Alert().Get(ctx, tenant, alertID)
		if err != nil {
			return goerr.Wrap(err, "failed to load timed-out alert", goerr.V("alert_id", alertID))
		}
		if !alert.Active() {
			return nil
		}

		return e.advanceLocked(ctx, tenant, incidentID, policy, stepIndex, alert.Responder, model.EscalationReasonTimeout)
	}()
	if err != nil {
		errutil.Handle(ctx, err, "escalation timeout handling failed")
	}
}

// advance acquires the incident lock and moves the chain past stepIndex
func (e *Engine) advance(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, policy *model.EscalationPolicy, stepIndex int, lastResponder string, reason model.EscalationReason) error {
	unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))
	defer unlock()
	return e.advanceLocked(ctx, tenant, incidentID, policy, stepIndex, lastResponder, reason)
}

// advanceLocked marks the active alert escalated and pages the next step, or
// exhausts the chain when no step remains. Caller holds the incident lock.
func (e *Engine) advanceLocked(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, policy *model.EscalationPolicy, stepIndex int, lastResponder string, reason model.EscalationReason) error {
	now := e.clock.Now()
	nextStep := stepIndex + 1
	exhausted := nextStep >= len(policy.Steps)

	if active, err := e.repo.Alert().GetActive(ctx, tenant, incidentID); err != nil {
		return goerr.Wrap(err, "failed to load active alert", goerr.V("incident_id", incidentID))
	} else if active != nil {
		// The last unanswered alert is a delivery failure, not a handoff.
		if exhausted {
			active.Status = types.AlertStatusFailed
		} else {
			active.Status = types.AlertStatusEscalated
		}
		if _, err := e.repo.Alert().Update(ctx, tenant, active); err != nil {
			return goerr.Wrap(err, "failed to settle escalated alert", goerr.V("alert_id", active.ID))
		}
	}

	if exhausted {
		return e.exhaustLocked(ctx, tenant, incidentID, policy, lastResponder)
	}

	inc, err := e.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		return goerr.Wrap(err, "failed to reload incident", goerr.V("incident_id", incidentID))
	}
	ev, err := model.NewTimelineEvent(now, types.SystemActor, model.EscalatedDetail{
		FromStep: stepIndex,
		ToStep:   nextStep,
		Reason:   reason,
	})
	if err != nil {
		return err
	}
	inc.Append(ev)
	if _, err := e.repo.Incident().Update(ctx, tenant, inc); err != nil {
		return goerr.Wrap(err, "failed to record escalation event", goerr.V("incident_id", incidentID))
	}
	metrics.ObserveEscalation(string(reason))

	// Page the next rung outside the lock.
	async.Dispatch(ctx, func(ctx context.Context) error {
		return e.pageStep(ctx, tenant, incidentID, policy, nextStep)
	})
	return nil
}

// exhaust acquires the incident lock and records chain exhaustion
func (e *Engine) exhaust(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, policy *model.EscalationPolicy) error {
	unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))
	defer unlock()
	return e.exhaustLocked(ctx, tenant, incidentID, policy, "")
}

// exhaustLocked records that the chain ran out of steps without an
// acknowledgment. Emitted at most once: a second call finds the event already
// present and returns without appending.
func (e *Engine) exhaustLocked(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, policy *model.EscalationPolicy, lastResponder string) error {
	inc, err := e.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		return goerr.Wrap(err, "failed to reload incident", goerr.V("incident_id", incidentID))
	}
	if inc.Status.IsSettled() || inc.Acked() {
		return nil
	}
	if hasExhaustedEvent(inc) {
		return nil
	}

	ev, err := model.NewTimelineEvent(e.clock.Now(), types.SystemActor, model.EscalationExhaustedDetail{
		Steps:         len(policy.Steps),
		LastResponder: lastResponder,
	})
	if err != nil {
		return err
	}
	inc.Append(ev)
	if _, err := e.repo.Incident().Update(ctx, tenant, inc); err != nil {
		return goerr.Wrap(err, "failed to record exhaustion event", goerr.V("incident_id", incidentID))
	}

	metrics.ObserveEscalationExhausted()
	errutil.Handle(ctx, goerr.Wrap(model.ErrEscalationExhausted, "escalation chain exhausted without acknowledgment",
		goerr.V("tenant_id", tenant),
		goerr.V("incident_id", incidentID),
		goerr.V("policy_id", policy.ID),
		goerr.V("steps", len(policy.Steps)),
	), "escalation exhausted")
	return nil
}

func hasExhaustedEvent(inc *model.Incident) bool {
	for i := len(inc.Timeline) - 1; i >= 0; i-- {
		switch inc.Timeline[i].Kind {
		case types.EventKindEscalationExhausted:
			return true
		case types.EventKindReopened:
			// A reopen starts a fresh escalation episode.
			return false
		}
	}
	return false
}

// Acknowledge marks the active alert acknowledged, stops its timer and stamps
// the incident's acknowledgment time. A NEW incident is promoted to
// ACKNOWLEDGED.
func (e *Engine) Acknowledge(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, responder string) (*model.PagerAlert, error) {
	unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))
	defer unlock()

	alert, err := e.repo.Alert().GetActive(ctx, tenant, incidentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load active alert", goerr.V("incident_id", incidentID))
	}
	if alert == nil {
		return nil, goerr.Wrap(model.ErrNoActiveAlert, "nothing to acknowledge",
			goerr.V("tenant_id", tenant),
			goerr.V("incident_id", incidentID),
		)
	}

	e.sched.Cancel(timerKey(tenant, incidentID))
	e.sched.Cancel(types.SLATimerKey(string(model.SLAKindAck), tenant, incidentID))

	now := e.clock.Now()
	alert.Status = types.AlertStatusAcknowledged
	alert.AckedAt = &now
	if alert, err = e.repo.Alert().Update(ctx, tenant, alert); err != nil {
		return nil, goerr.Wrap(err, "failed to settle acknowledged alert", goerr.V("alert_id", alert.ID))
	}

	inc, err := e.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reload incident", goerr.V("incident_id", incidentID))
	}

	ev, err := model.NewTimelineEvent(now, responder, model.AcknowledgedDetail{
		Responder: responder,
		StepIndex: alert.StepIndex,
		AlertID:   alert.ID,
	})
	if err != nil {
		return nil, err
	}
	inc.Append(ev)

	if !inc.Acked() {
		inc.AcknowledgedAt = &now
		metrics.ObserveAckLatency(now.Sub(inc.CreatedAt))
	}
	if inc.Status == types.IncidentStatusNew {
		ev, err := model.NewTimelineEvent(now, responder, model.StatusChangedDetail{
			From: types.IncidentStatusNew,
			To:   types.IncidentStatusAcknowledged,
		})
		if err != nil {
			return nil, err
		}
		inc.Status = types.IncidentStatusAcknowledged
		inc.Append(ev)
	}

	if _, err := e.repo.Incident().Update(ctx, tenant, inc); err != nil {
		return nil, goerr.Wrap(err, "failed to record acknowledgment", goerr.V("incident_id", incidentID))
	}

	logging.From(ctx).Info("alert acknowledged",
		"tenant_id", tenant,
		"incident_id", incidentID,
		"alert_id", alert.ID,
		"responder", responder,
	)
	return alert, nil
}

// EscalateNow advances the chain immediately, bypassing the pending step
// timer. Used on SLA breach. A chain that never started is started at step 0.
func (e *Engine) EscalateNow(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, reason model.EscalationReason) error {
	unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))

	inc, err := e.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		unlock()
		return goerr.Wrap(err, "failed to reload incident", goerr.V("incident_id", incidentID))
	}
	if inc.Status.IsSettled() || inc.Acked() {
		unlock()
		return nil
	}

	policy := e.policies.Lookup(inc.Category, inc.Priority)
	if policy == nil {
		unlock()
		return goerr.New("no escalation policy matches incident",
			goerr.V("category", inc.Category),
			goerr.V("priority", inc.Priority),
		)
	}

	alert, err := e.repo.Alert().GetActive(ctx, tenant, incidentID)
	if err != nil {
		unlock()
		return goerr.Wrap(err, "failed to load active alert", goerr.V("incident_id", incidentID))
	}

	if alert == nil {
		unlock()
		// No pending step. Start the chain unless it already ran dry.
		if hasExhaustedEvent(inc) {
			return nil
		}
		async.Dispatch(ctx, func(ctx context.Context) error {
			return e.pageStep(ctx, tenant, incidentID, policy, 0)
		})
		return nil
	}

	e.sched.Cancel(timerKey(tenant, incidentID))
	err = e.advanceLocked(ctx, tenant, incidentID, policy, alert.StepIndex, alert.Responder, reason)
	unlock()
	return err
}

// Cancel stops the incident's escalation timer and settles its active alert.
// Called when the incident resolves; losing the race against a firing timer
// is fine because the timer re-validates and sees the settled incident.
func (e *Engine) Cancel(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) error {
	e.sched.Cancel(timerKey(tenant, incidentID))

	unlock := e.locks.Lock(types.IncidentLockKey(tenant, incidentID))
	defer unlock()

	alert, err := e.repo.Alert().GetActive(ctx, tenant, incidentID)
	if err != nil {
		return goerr.Wrap(err, "failed to load active alert", goerr.V("incident_id", incidentID))
	}
	if alert == nil {
		return nil
	}

	alert.Status = types.AlertStatusResolved
	if _, err := e.repo.Alert().Update(ctx, tenant, alert); err != nil {
		return goerr.Wrap(err, "failed to settle alert on resolution", goerr.V("alert_id", alert.ID))
	}
	return nil
}
