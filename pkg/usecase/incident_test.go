package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/repository/memory"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/scheduler"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/usecase"
)

const testTenant = types.TenantID("tenant-a")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubPager struct {
	mu          sync.Mutex
	triggers    int
	escalations []model.EscalationReason
	cancels     int
}

func (p *stubPager) Trigger(ctx context.Context, inc *model.Incident) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.triggers++
	return nil
}

func (p *stubPager) Acknowledge(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, responder string) (*model.PagerAlert, error) {
	return nil, model.ErrNoActiveAlert
}

func (p *stubPager) EscalateNow(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID, reason model.EscalationReason) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.escalations = append(p.escalations, reason)
	return nil
}

func (p *stubPager) Cancel(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels++
	return nil
}

func (p *stubPager) snapshot() (int, []model.EscalationReason, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reasons := make([]model.EscalationReason, len(p.escalations))
	copy(reasons, p.escalations)
	return p.triggers, reasons, p.cancels
}

func newTestUseCases(t *testing.T) (*usecase.UseCases, *fakeClock, *stubPager) {
	t.Helper()

	clock := newFakeClock()
	pager := &stubPager{}
	uc := usecase.New(memory.New(), usecase.WithClock(clock))
	uc.SetPager(pager)
	return uc, clock, pager
}

func createTestIncident(t *testing.T, uc *usecase.UseCases, priority types.Priority) *model.Incident {
	t.Helper()

	inc, err := uc.Incident.Create(context.Background(), testTenant, usecase.CreateIncidentInput{
		Title:           "api error rate spike",
		Category:        types.CategoryInfrastructure,
		Priority:        priority,
		RelatedEntities: []string{"api-gateway"},
		Actor:           "monitor",
	})
	gt.NoError(t, err)
	return inc
}

func lastEvent(inc *model.Incident) model.TimelineEvent {
	return inc.Timeline[len(inc.Timeline)-1]
}

func countTimelineKind(inc *model.Incident, kind types.EventKind) int {
	n := 0
	for _, ev := range inc.Timeline {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestCreateFixesDeadlinesFromPriority(t *testing.T) {
	uc, clock, pager := newTestUseCases(t)
	inc := createTestIncident(t, uc, types.PriorityP1)

	gt.Value(t, inc.Status).Equal(types.IncidentStatusNew)
	gt.Value(t, inc.AckDeadline).Equal(clock.Now().Add(15 * time.Minute))
	gt.Value(t, inc.ResolveDeadline).Equal(clock.Now().Add(4 * time.Hour))
	gt.Value(t, len(inc.Timeline)).Equal(1)
	gt.Value(t, inc.Timeline[0].Kind).Equal(types.EventKindCreated)

	triggers, _, _ := pager.snapshot()
	gt.Value(t, triggers).Equal(1)
}

func TestCreateRejectsUnknownPriority(t *testing.T) {
	uc, _, _ := newTestUseCases(t)

	_, err := uc.Incident.Create(context.Background(), testTenant, usecase.CreateIncidentInput{
		Title:    "bad",
		Category: types.CategoryOther,
		Priority: types.Priority("P9"),
	})
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrInvalidPriority)).True()
}

func TestStatusTransitionChain(t *testing.T) {
	uc, _, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP2)

	chain := []types.IncidentStatus{
		types.IncidentStatusAcknowledged,
		types.IncidentStatusInvestigating,
		types.IncidentStatusContained,
		types.IncidentStatusResolved,
		types.IncidentStatusClosed,
	}
	for _, next := range chain {
		updated, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, next, "alice", "")
		gt.NoError(t, err)
		gt.Value(t, updated.Status).Equal(next)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	uc, _, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP3)

	for _, next := range []types.IncidentStatus{
		types.IncidentStatusInvestigating,
		types.IncidentStatusContained,
		types.IncidentStatusResolved,
		types.IncidentStatusClosed,
		types.IncidentStatusNew,
	} {
		_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, next, "alice", "")
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrInvalidTransition)).True()
	}

	// The incident is untouched after rejected transitions.
	stored, err := uc.Incident.Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, stored.Status).Equal(types.IncidentStatusNew)
	gt.Value(t, len(stored.Timeline)).Equal(1)
}

func TestResolveStampsTimeAndCancelsPaging(t *testing.T) {
	uc, clock, pager := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP2)

	for _, next := range []types.IncidentStatus{
		types.IncidentStatusAcknowledged,
		types.IncidentStatusInvestigating,
		types.IncidentStatusContained,
	} {
		_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, next, "alice", "")
		gt.NoError(t, err)
	}

	clock.Advance(time.Hour)
	updated, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, types.IncidentStatusResolved, "alice", "rolled back deploy")
	gt.NoError(t, err)
	gt.Value(t, updated.ResolvedAt).NotNil().Required()
	gt.Value(t, *updated.ResolvedAt).Equal(clock.Now())
	gt.Value(t, lastEvent(updated).Kind).Equal(types.EventKindResolved)

	_, _, cancels := pager.snapshot()
	gt.Value(t, cancels).Equal(1)
}

func TestReopenFromResolved(t *testing.T) {
	uc, _, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP2)

	for _, next := range []types.IncidentStatus{
		types.IncidentStatusAcknowledged,
		types.IncidentStatusInvestigating,
		types.IncidentStatusContained,
		types.IncidentStatusResolved,
	} {
		_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, next, "alice", "")
		gt.NoError(t, err)
	}

	reopened, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, types.IncidentStatusInvestigating, "bob", "regression")
	gt.NoError(t, err)
	gt.Value(t, reopened.Status).Equal(types.IncidentStatusInvestigating)
	gt.Value(t, reopened.ResolvedAt).Nil()
	gt.Value(t, lastEvent(reopened).Kind).Equal(types.EventKindReopened)
}

func TestContainmentActionRequiresInvestigation(t *testing.T) {
	uc, _, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP1)

	_, err := uc.Incident.AddContainmentAction(ctx, testTenant, inc.ID, "isolate host", "alice")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrInvalidState)).True()

	for _, next := range []types.IncidentStatus{
		types.IncidentStatusAcknowledged,
		types.IncidentStatusInvestigating,
	} {
		_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, next, "alice", "")
		gt.NoError(t, err)
	}

	updated, err := uc.Incident.AddContainmentAction(ctx, testTenant, inc.ID, "isolate host", "alice")
	gt.NoError(t, err)
	gt.Value(t, lastEvent(updated).Kind).Equal(types.EventKindContainmentAction)
}

func TestAssignClosedIncidentRejected(t *testing.T) {
	uc, _, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP4)

	updated, err := uc.Incident.Assign(ctx, testTenant, inc.ID, "alice", "ops-bot")
	gt.NoError(t, err)
	gt.Value(t, updated.Assignee).Equal("alice")

	for _, next := range []types.IncidentStatus{
		types.IncidentStatusAcknowledged,
		types.IncidentStatusInvestigating,
		types.IncidentStatusContained,
		types.IncidentStatusResolved,
	} {
		_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, next, "alice", "")
		gt.NoError(t, err)
	}

	// A resolved incident still accepts reassignment, e.g. for postmortem
	// ownership. Only CLOSED is terminal.
	_, err = uc.Incident.Assign(ctx, testTenant, inc.ID, "bob", "ops-bot")
	gt.NoError(t, err)

	_, err = uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, types.IncidentStatusClosed, "alice", "")
	gt.NoError(t, err)

	_, err = uc.Incident.Assign(ctx, testTenant, inc.ID, "carol", "ops-bot")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrInvalidState)).True()
}

func TestCheckSLARecordsAckBreachOnce(t *testing.T) {
	uc, clock, pager := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP1)

	// Before the deadline nothing happens.
	result, err := uc.Incident.CheckSLA(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, result.AckBreached).False()

	clock.Advance(16 * time.Minute)
	result, err = uc.Incident.CheckSLA(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, result.AckBreached).True()

	_, reasons, _ := pager.snapshot()
	gt.Array(t, reasons).Equal([]model.EscalationReason{model.EscalationReasonSLABreach})

	// The second sweep finds the breach already recorded.
	result, err = uc.Incident.CheckSLA(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, result.AckBreached).False()

	stored, err := uc.Incident.Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	breaches := 0
	for _, ev := range stored.Timeline {
		if ev.Kind == types.EventKindSLABreach {
			breaches++
		}
	}
	gt.Value(t, breaches).Equal(1)
}

func TestCheckSLARecordsResolveBreach(t *testing.T) {
	uc, clock, pager := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP1)

	clock.Advance(5 * time.Hour)
	result, err := uc.Incident.CheckSLA(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, result.AckBreached).True()
	gt.B(t, result.ResolveBreached).True()

	// One sweep, one escalation signal, even with both deadlines blown.
	_, reasons, _ := pager.snapshot()
	gt.Array(t, reasons).Equal([]model.EscalationReason{model.EscalationReasonSLABreach})
}

func TestResolveBreachAloneEscalates(t *testing.T) {
	uc, clock, pager := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP1)

	_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, types.IncidentStatusAcknowledged, "alice", "")
	gt.NoError(t, err)

	clock.Advance(5 * time.Hour)
	result, err := uc.Incident.CheckSLA(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, result.AckBreached).False()
	gt.B(t, result.ResolveBreached).True()

	_, reasons, _ := pager.snapshot()
	gt.Array(t, reasons).Equal([]model.EscalationReason{model.EscalationReasonSLABreach})
}

func TestStatusAcknowledgmentStopsAckClock(t *testing.T) {
	uc, clock, pager := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP1)

	updated, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, types.IncidentStatusAcknowledged, "alice", "")
	gt.NoError(t, err)
	gt.Value(t, updated.AcknowledgedAt).NotNil().Required()
	gt.Value(t, *updated.AcknowledgedAt).Equal(clock.Now())

	// Past the ack deadline a staffed incident must not breach or escalate.
	clock.Advance(16 * time.Minute)
	result, err := uc.Incident.CheckSLA(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, result.AckBreached).False()

	_, reasons, _ := pager.snapshot()
	gt.Value(t, len(reasons)).Equal(0)

	stored, err := uc.Incident.Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, countTimelineKind(stored, types.EventKindSLABreach)).Equal(0)
}

func TestLateAcknowledgmentAfterBreach(t *testing.T) {
	uc, clock, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP1)

	clock.Advance(20 * time.Minute)
	_, err := uc.Incident.CheckSLA(ctx, testTenant, inc.ID)
	gt.NoError(t, err)

	// A late transition to ACKNOWLEDGED is still allowed; the breach event
	// stays in the timeline.
	updated, err := uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, types.IncidentStatusAcknowledged, "alice", "")
	gt.NoError(t, err)
	gt.Value(t, updated.Status).Equal(types.IncidentStatusAcknowledged)

	found := false
	for _, ev := range updated.Timeline {
		if ev.Kind == types.EventKindSLABreach {
			found = true
		}
	}
	gt.B(t, found).True()
}

func TestSLATimersFollowLifecycle(t *testing.T) {
	clock := newFakeClock()
	sched := scheduler.New(scheduler.WithClock(clock))
	uc := usecase.New(memory.New(),
		usecase.WithClock(clock),
		usecase.WithScheduler(sched),
	)
	uc.SetPager(&stubPager{})
	ctx := context.Background()

	inc := createTestIncident(t, uc, types.PriorityP1)
	ackKey := types.SLATimerKey("ack", testTenant, inc.ID)
	resolveKey := types.SLATimerKey("resolve", testTenant, inc.ID)

	// Both deadline timers are armed at creation. Cancel reports whether an
	// entry was pending, which is all this test needs.
	gt.B(t, sched.Cancel(ackKey)).True()
	gt.B(t, sched.Cancel(resolveKey)).True()

	inc2 := createTestIncident(t, uc, types.PriorityP2)
	_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc2.ID, types.IncidentStatusAcknowledged, "alice", "")
	gt.NoError(t, err)

	// Acknowledgment drops the ack timer but keeps the resolve timer.
	gt.B(t, sched.Cancel(types.SLATimerKey("ack", testTenant, inc2.ID))).False()
	gt.B(t, sched.Cancel(types.SLATimerKey("resolve", testTenant, inc2.ID))).True()

	inc3 := createTestIncident(t, uc, types.PriorityP3)
	for _, next := range []types.IncidentStatus{
		types.IncidentStatusAcknowledged,
		types.IncidentStatusInvestigating,
		types.IncidentStatusContained,
		types.IncidentStatusResolved,
	} {
		_, err := uc.Incident.UpdateStatus(ctx, testTenant, inc3.ID, next, "alice", "")
		gt.NoError(t, err)
	}
	gt.B(t, sched.Cancel(types.SLATimerKey("ack", testTenant, inc3.ID))).False()
	gt.B(t, sched.Cancel(types.SLATimerKey("resolve", testTenant, inc3.ID))).False()
}

func TestTenantIsolation(t *testing.T) {
	uc, _, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP2)

	_, err := uc.Incident.Get(ctx, types.TenantID("tenant-b"), inc.ID)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, usecase.ErrIncidentNotFound)).True()

	_, err = uc.Incident.UpdateStatus(ctx, types.TenantID("tenant-b"), inc.ID, types.IncidentStatusAcknowledged, "mallory", "")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, usecase.ErrIncidentNotFound)).True()

	list, err := uc.Incident.List(ctx, types.TenantID("tenant-b"))
	gt.NoError(t, err)
	gt.Value(t, len(list)).Equal(0)
}

func TestTimelineOnlyGrows(t *testing.T) {
	uc, _, _ := newTestUseCases(t)
	ctx := context.Background()
	inc := createTestIncident(t, uc, types.PriorityP3)

	sizes := []int{len(inc.Timeline)}
	ops := []func() (*model.Incident, error){
		func() (*model.Incident, error) {
			return uc.Incident.UpdateStatus(ctx, testTenant, inc.ID, types.IncidentStatusAcknowledged, "alice", "")
		},
		func() (*model.Incident, error) {
			return uc.Incident.Assign(ctx, testTenant, inc.ID, "alice", "alice")
		},
		func() (*model.Incident, error) {
			return uc.Incident.AddComment(ctx, testTenant, inc.ID, "looking into it", false, "alice")
		},
	}

	for _, op := range ops {
		updated, err := op()
		gt.NoError(t, err)
		sizes = append(sizes, len(updated.Timeline))
	}

	for i := 1; i < len(sizes); i++ {
		gt.Value(t, sizes[i]).Equal(sizes[i-1] + 1)
	}
}
