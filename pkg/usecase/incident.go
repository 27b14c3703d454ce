package usecase

import (
	"context"

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

// IncidentUseCase owns the incident lifecycle: creation, assignment, status
// transitions, comments, containment actions and SLA checks. Every mutation
// holds the incident's keyed lock, appends exactly one timeline event per
// change, and persists before the lock is released. Pager calls happen after
// the lock is dropped; the pager takes the lock itself.
type IncidentUseCase struct {
	repo     interfaces.Repository
	sla      *model.SLAConfig
	locks    *lock.Keyed
	clock    interfaces.Clock
	pager    interfaces.Pager
	exporter interfaces.AuditExporter
	sched    *scheduler.Scheduler
}

func NewIncidentUseCase(repo interfaces.Repository, sla *model.SLAConfig, locks *lock.Keyed, clock interfaces.Clock, exporter interfaces.AuditExporter, sched *scheduler.Scheduler) *IncidentUseCase {
	return &IncidentUseCase{
		repo:     repo,
		sla:      sla,
		locks:    locks,
		clock:    clock,
		exporter: exporter,
		sched:    sched,
	}
}

// SetPager wires the escalation engine after construction
func (uc *IncidentUseCase) SetPager(p interfaces.Pager) {
	uc.pager = p
}

// CreateIncidentInput carries the caller-supplied fields of a new incident
type CreateIncidentInput struct {
	Title           string
	Category        types.Category
	Priority        types.Priority
	RelatedEntities []string
	Actor           string
}

// Create opens a new incident in NEW, fixes its SLA deadlines from the
// creation instant, records the created event and starts the escalation chain.
func (uc *IncidentUseCase) Create(ctx context.Context, tenant types.TenantID, input CreateIncidentInput) (*model.Incident, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, goerr.New("incident title is required")
	}
	if !input.Priority.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidPriority, "unknown priority", goerr.V("priority", input.Priority))
	}
	if !input.Category.IsValid() {
		return nil, goerr.New("unknown category", goerr.V("category", input.Category))
	}

	now := uc.clock.Now()
	ackDeadline, resolveDeadline, err := uc.sla.Deadlines(input.Priority, now)
	if err != nil {
		return nil, err
	}

	inc := &model.Incident{
		TenantID:        tenant,
		Title:           input.Title,
		Category:        input.Category,
		Priority:        input.Priority,
		Status:          types.IncidentStatusNew,
		RelatedEntities: input.RelatedEntities,
		CreatedAt:       now,
		AckDeadline:     ackDeadline,
		ResolveDeadline: resolveDeadline,
	}

	ev, err := model.NewTimelineEvent(now, input.Actor, model.CreatedDetail{
		Title:           input.Title,
		Priority:        input.Priority,
		Category:        input.Category,
		RelatedEntities: input.RelatedEntities,
	})
	if err != nil {
		return nil, err
	}
	inc.Append(ev)

	created, err := uc.repo.Incident().Create(ctx, tenant, inc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create incident", goerr.V(TenantIDKey, tenant))
	}
	metrics.ObserveIncidentCreated(created.Priority, created.Category)

	logging.From(ctx).Info("incident created",
		"tenant_id", tenant,
		"incident_id", created.ID,
		"priority", created.Priority,
		"category", created.Category,
		"ack_deadline", created.AckDeadline,
		"resolve_deadline", created.ResolveDeadline,
	)

	uc.armSLATimers(created)

	if uc.pager != nil {
		if err := uc.pager.Trigger(ctx, created); err != nil {
			return nil, goerr.Wrap(err, "failed to start escalation chain", goerr.V(IncidentIDKey, created.ID))
		}
	}

	return created, nil
}

// armSLATimers schedules one deadline timer per SLA kind. The timer fires
// CheckSLA, which is idempotent, so a stale timer on an already settled
// incident is a no-op.
func (uc *IncidentUseCase) armSLATimers(inc *model.Incident) {
	if uc.sched == nil {
		return
	}
	tenant, id := inc.TenantID, inc.ID
	check := func(ctx context.Context) {
		if _, err := uc.CheckSLA(ctx, tenant, id); err != nil {
			errutil.Handle(ctx, err, "SLA deadline check failed")
		}
	}
	uc.sched.Schedule(types.SLATimerKey(string(model.SLAKindAck), tenant, id), inc.AckDeadline, check)
	uc.sched.Schedule(types.SLATimerKey(string(model.SLAKindResolve), tenant, id), inc.ResolveDeadline, check)
}

// CancelAckTimer drops the pending ack deadline timer. The pager calls this on
// the first acknowledgement.
func (uc *IncidentUseCase) CancelAckTimer(tenant types.TenantID, id types.IncidentID) {
	if uc.sched == nil {
		return
	}
	uc.sched.Cancel(types.SLATimerKey(string(model.SLAKindAck), tenant, id))
}

func (uc *IncidentUseCase) cancelSLATimers(tenant types.TenantID, id types.IncidentID) {
	if uc.sched == nil {
		return
	}
	uc.sched.Cancel(types.SLATimerKey(string(model.SLAKindAck), tenant, id))
	uc.sched.Cancel(types.SLATimerKey(string(model.SLAKindResolve), tenant, id))
}

// Get retrieves one incident of the tenant
func (uc *IncidentUseCase) Get(ctx context.Context, tenant types.TenantID, id types.IncidentID) (*model.Incident, error) {
	inc, err := uc.repo.Incident().Get(ctx, tenant, id)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrIncidentNotFound, "no such incident",
				goerr.V(TenantIDKey, tenant), goerr.V(IncidentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get incident", goerr.V(IncidentIDKey, id))
	}
	return inc, nil
}

// List retrieves all incidents of the tenant
func (uc *IncidentUseCase) List(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error) {
	incidents, err := uc.repo.Incident().List(ctx, tenant)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list incidents", goerr.V(TenantIDKey, tenant))
	}
	return incidents, nil
}

// ListOpen retrieves incidents that are not resolved or closed
func (uc *IncidentUseCase) ListOpen(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error) {
	incidents, err := uc.repo.Incident().ListOpen(ctx, tenant)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list open incidents", goerr.V(TenantIDKey, tenant))
	}
	return incidents, nil
}

// Timeline returns the append-only event history of the incident
func (uc *IncidentUseCase) Timeline(ctx context.Context, tenant types.TenantID, id types.IncidentID) ([]model.TimelineEvent, error) {
	inc, err := uc.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return inc.Timeline, nil
}

// Alerts returns the full pager alert history of the incident in send order
func (uc *IncidentUseCase) Alerts(ctx context.Context, tenant types.TenantID, id types.IncidentID) ([]*model.PagerAlert, error) {
	if _, err := uc.Get(ctx, tenant, id); err != nil {
		return nil, err
	}
	alerts, err := uc.repo.Alert().ListByIncident(ctx, tenant, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list alerts", goerr.V(IncidentIDKey, id))
	}
	return alerts, nil
}

// ExportAudit pushes the incident's audit snapshot to the configured exporter.
// Resolution exports run automatically; this is the on-demand path.
func (uc *IncidentUseCase) ExportAudit(ctx context.Context, tenant types.TenantID, id types.IncidentID) error {
	if uc.exporter == nil {
		return goerr.New("no audit exporter configured")
	}
	if _, err := uc.Get(ctx, tenant, id); err != nil {
		return err
	}
	if err := uc.exporter.ExportIncident(ctx, tenant, id); err != nil {
		return goerr.Wrap(err, "failed to export incident audit snapshot", goerr.V(IncidentIDKey, id))
	}
	return nil
}

// ActiveAlert returns the alert currently awaiting acknowledgment, or nil when
// no page is pending.
func (uc *IncidentUseCase) ActiveAlert(ctx context.Context, tenant types.TenantID, id types.IncidentID) (*model.PagerAlert, error) {
	if _, err := uc.Get(ctx, tenant, id); err != nil {
		return nil, err
	}
	alert, err := uc.repo.Alert().GetActive(ctx, tenant, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load active alert", goerr.V(IncidentIDKey, id))
	}
	return alert, nil
}

// mutate loads the incident under its lock, applies fn and persists the
// result. fn appends timeline events and adjusts fields; it must not touch
// other incidents.
func (uc *IncidentUseCase) mutate(ctx context.Context, tenant types.TenantID, id types.IncidentID, fn func(inc *model.Incident) error) (*model.Incident, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(types.IncidentLockKey(tenant, id))
	defer unlock()

	inc, err := uc.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if inc.TenantID != tenant {
		return nil, goerr.Wrap(model.ErrTenantMismatch, "incident belongs to another tenant",
			goerr.V(TenantIDKey, tenant), goerr.V(IncidentIDKey, id))
	}

	if err := fn(inc); err != nil {
		return nil, err
	}

	updated, err := uc.repo.Incident().Update(ctx, tenant, inc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update incident", goerr.V(IncidentIDKey, id))
	}
	return updated, nil
}

// Assign sets the incident's assignee and records the assignment
func (uc *IncidentUseCase) Assign(ctx context.Context, tenant types.TenantID, id types.IncidentID, assignee, actor string) (*model.Incident, error) {
	if assignee == "" {
		return nil, goerr.New("assignee is required")
	}

	return uc.mutate(ctx, tenant, id, func(inc *model.Incident) error {
		if inc.Status.IsTerminal() {
			return goerr.Wrap(model.ErrInvalidState, "cannot assign a closed incident",
				goerr.V("status", inc.Status))
		}

		ev, err := model.NewTimelineEvent(uc.clock.Now(), actor, model.AssignedDetail{Assignee: assignee})
		if err != nil {
			return err
		}
		inc.Assignee = assignee
		inc.Append(ev)
		return nil
	})
}

// UpdateStatus moves the incident along the lifecycle state machine. Moving
// into RESOLVED stamps the resolution time, stops paging and exports the
// audit snapshot; moving out of a settled state records a reopen.
func (uc *IncidentUseCase) UpdateStatus(ctx context.Context, tenant types.TenantID, id types.IncidentID, next types.IncidentStatus, actor, note string) (*model.Incident, error) {
	if !next.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "unknown status", goerr.V("status", next))
	}

	var resolved bool
	updated, err := uc.mutate(ctx, tenant, id, func(inc *model.Incident) error {
		from := inc.Status
		if !from.CanTransition(next) {
			return goerr.Wrap(model.ErrInvalidTransition, "transition not allowed",
				goerr.V("from", from), goerr.V("to", next))
		}

		now := uc.clock.Now()
		var detail model.EventDetail
		switch {
		case next == types.IncidentStatusResolved:
			detail = model.ResolvedDetail{Note: note}
			inc.ResolvedAt = &now
			resolved = true
		case from.IsSettled() && next == types.IncidentStatusInvestigating:
			detail = model.ReopenedDetail{Reason: note}
			inc.ResolvedAt = nil
		default:
			detail = model.StatusChangedDetail{From: from, To: next}
		}

		// A status-driven acknowledgment stops the ack clock just like one
		// coming through the pager.
		if next == types.IncidentStatusAcknowledged && !inc.Acked() {
			inc.AcknowledgedAt = &now
			metrics.ObserveAckLatency(now.Sub(inc.CreatedAt))
		}

		ev, err := model.NewTimelineEvent(now, actor, detail)
		if err != nil {
			return err
		}
		inc.Status = next
		inc.Append(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if next == types.IncidentStatusAcknowledged {
		uc.CancelAckTimer(tenant, id)
	}
	if resolved {
		uc.cancelSLATimers(tenant, id)
		if uc.pager != nil {
			if err := uc.pager.Cancel(ctx, tenant, id); err != nil {
				logging.From(ctx).Warn("failed to cancel escalation on resolve",
					"tenant_id", tenant, "incident_id", id, "error", err)
			}
		}
		if uc.exporter != nil {
			async.Dispatch(ctx, func(ctx context.Context) error {
				return uc.exporter.ExportIncident(ctx, tenant, id)
			})
		}
	}

	return updated, nil
}

// AddContainmentAction records a containment measure. Only incidents under
// active investigation or containment accept one.
func (uc *IncidentUseCase) AddContainmentAction(ctx context.Context, tenant types.TenantID, id types.IncidentID, description, actor string) (*model.Incident, error) {
	if description == "" {
		return nil, goerr.New("containment action description is required")
	}

	return uc.mutate(ctx, tenant, id, func(inc *model.Incident) error {
		switch inc.Status {
		case types.IncidentStatusInvestigating, types.IncidentStatusContained:
		default:
			return goerr.Wrap(model.ErrInvalidState, "containment actions require an investigation in progress",
				goerr.V("status", inc.Status))
		}

		ev, err := model.NewTimelineEvent(uc.clock.Now(), actor, model.ContainmentActionDetail{Description: description})
		if err != nil {
			return err
		}
		inc.Append(ev)
		return nil
	})
}

// AddComment appends a free-form note to the timeline. Comments marked as
// follow-ups become postmortem action items.
func (uc *IncidentUseCase) AddComment(ctx context.Context, tenant types.TenantID, id types.IncidentID, body string, followUp bool, actor string) (*model.Incident, error) {
	if body == "" {
		return nil, goerr.New("comment body is required")
	}

	return uc.mutate(ctx, tenant, id, func(inc *model.Incident) error {
		ev, err := model.NewTimelineEvent(uc.clock.Now(), actor, model.CommentDetail{Body: body, FollowUp: followUp})
		if err != nil {
			return err
		}
		inc.Append(ev)
		return nil
	})
}

// SLACheckResult reports which deadlines an SLA sweep found newly breached
type SLACheckResult struct {
	AckBreached     bool
	ResolveBreached bool
}

// CheckSLA compares the incident against its fixed deadlines and records a
// breach event for each deadline missed, at most once per deadline. Any breach
// signals the escalation engine immediately; the engine re-validates and
// no-ops on acknowledged or settled incidents.
func (uc *IncidentUseCase) CheckSLA(ctx context.Context, tenant types.TenantID, id types.IncidentID) (*SLACheckResult, error) {
	result := &SLACheckResult{}

	_, err := uc.mutate(ctx, tenant, id, func(inc *model.Incident) error {
		if inc.Status.IsSettled() {
			return nil
		}
		now := uc.clock.Now()

		if !inc.Acked() && now.After(inc.AckDeadline) && !hasBreachEvent(inc, model.SLAKindAck) {
			ev, err := model.NewTimelineEvent(now, types.SystemActor, model.SLABreachDetail{
				Breach:   model.SLAKindAck,
				Deadline: inc.AckDeadline,
			})
			if err != nil {
				return err
			}
			inc.Append(ev)
			metrics.ObserveSLABreach(string(model.SLAKindAck))
			result.AckBreached = true
		}

		if inc.ResolvedAt == nil && now.After(inc.ResolveDeadline) && !hasBreachEvent(inc, model.SLAKindResolve) {
			ev, err := model.NewTimelineEvent(now, types.SystemActor, model.SLABreachDetail{
				Breach:   model.SLAKindResolve,
				Deadline: inc.ResolveDeadline,
			})
			if err != nil {
				return err
			}
			inc.Append(ev)
			metrics.ObserveSLABreach(string(model.SLAKindResolve))
			result.ResolveBreached = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if (result.AckBreached || result.ResolveBreached) && uc.pager != nil {
		if err := uc.pager.EscalateNow(ctx, tenant, id, model.EscalationReasonSLABreach); err != nil {
			return nil, goerr.Wrap(err, "failed to escalate on SLA breach", goerr.V(IncidentIDKey, id))
		}
	}

	return result, nil
}

func hasBreachEvent(inc *model.Incident, kind model.SLAKind) bool {
	for _, ev := range inc.Timeline {
		if ev.Kind != types.EventKindSLABreach {
			continue
		}
		if detail, ok := ev.Detail.(model.SLABreachDetail); ok && detail.Breach == kind {
			return true
		}
	}
	return false
}
