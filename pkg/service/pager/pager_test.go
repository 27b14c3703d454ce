package pager_test

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
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/pager"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/scheduler"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/lock"
)

const testTenant = types.TenantID("tenant-a")

type stubNotifier struct {
	mu      sync.Mutex
	pages   []string
	failFor map[string]error
	paged   chan string
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{
		failFor: make(map[string]error),
		paged:   make(chan string, 16),
	}
}

func (n *stubNotifier) Notify(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error {
	n.mu.Lock()
	err := n.failFor[responder]
	if err == nil {
		n.pages = append(n.pages, responder)
	}
	n.mu.Unlock()

	if err == nil {
		n.paged <- responder
	}
	return err
}

func (n *stubNotifier) pagedResponders() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.pages))
	copy(out, n.pages)
	return out
}

type stubOnCall struct {
	byRole map[string]string
}

func (o *stubOnCall) Lookup(role string, t time.Time) (string, error) {
	if r, ok := o.byRole[role]; ok {
		return r, nil
	}
	return "", errors.New("no rotation for role")
}

func testPolicyBook(stepTimeout time.Duration) *model.PolicyBook {
	return &model.PolicyBook{
		Policies: []model.EscalationPolicy{
			{
				ID: "default",
				Steps: []model.EscalationStep{
					{TargetRole: "primary", Timeout: stepTimeout, Channel: types.ChannelWebhook},
					{TargetRole: "secondary", Timeout: stepTimeout, Channel: types.ChannelWebhook},
					{TargetRole: "manager", Timeout: stepTimeout, Channel: types.ChannelWebhook},
				},
			},
		},
	}
}

type testRig struct {
	repo     *memory.Memory
	notifier *stubNotifier
	engine   *pager.Engine
	sched    *scheduler.Scheduler
	cancel   context.CancelFunc
}

func newTestRig(t *testing.T, stepTimeout time.Duration) *testRig {
	t.Helper()

	repo := memory.New()
	notifier := newStubNotifier()
	oncall := &stubOnCall{byRole: map[string]string{
		"primary":   "alice",
		"secondary": "bob",
		"manager":   "carol",
	}}
	sched := scheduler.New()
	locks := lock.NewKeyed()

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)

	engine := pager.New(repo, notifier, oncall, testPolicyBook(stepTimeout), sched, locks,
		pager.WithNotifyRetries(1, 5*time.Millisecond),
	)

	t.Cleanup(func() {
		cancel()
		sched.Stop()
	})

	return &testRig{
		repo:     repo,
		notifier: notifier,
		engine:   engine,
		sched:    sched,
		cancel:   cancel,
	}
}

func createIncident(t *testing.T, repo *memory.Memory) *model.Incident {
	t.Helper()

	now := time.Now().UTC()
	inc := &model.Incident{
		Title:           "checkout latency spike",
		Category:        types.CategoryInfrastructure,
		Priority:        types.PriorityP1,
		Status:          types.IncidentStatusNew,
		CreatedAt:       now,
		AckDeadline:     now.Add(15 * time.Minute),
		ResolveDeadline: now.Add(4 * time.Hour),
	}
	created, err := repo.Incident().Create(context.Background(), testTenant, inc)
	gt.NoError(t, err)
	return created
}

func waitForPage(t *testing.T, n *stubNotifier, want string) {
	t.Helper()
	select {
	case got := <-n.paged:
		gt.Value(t, got).Equal(want)
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for page to %s", want)
	}
}

func countKind(inc *model.Incident, kind types.EventKind) int {
	n := 0
	for _, ev := range inc.Timeline {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestTriggerPagesFirstStep(t *testing.T) {
	rig := newTestRig(t, time.Hour)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "alice")

	// The paged event lands once delivery succeeds.
	gt.B(t, waitForCondition(3*time.Second, func() bool {
		stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
		if err != nil {
			return false
		}
		return countKind(stored, types.EventKindPaged) == 1
	})).True()

	alert, err := rig.repo.Alert().GetActive(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, alert).NotNil().Required()
	gt.Value(t, alert.Responder).Equal("alice")
	gt.Value(t, alert.StepIndex).Equal(0)
	gt.Value(t, alert.Status).Equal(types.AlertStatusPending)
}

func TestTimeoutEscalatesToNextStep(t *testing.T) {
	rig := newTestRig(t, 50*time.Millisecond)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "alice")
	waitForPage(t, rig.notifier, "bob")

	gt.B(t, waitForCondition(3*time.Second, func() bool {
		alert, err := rig.repo.Alert().GetActive(ctx, testTenant, inc.ID)
		return err == nil && alert != nil && alert.Responder == "bob"
	})).True()

	stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, countKind(stored, types.EventKindEscalated)).Equal(1)
}

func TestAcknowledgeStopsChain(t *testing.T) {
	rig := newTestRig(t, 100*time.Millisecond)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "alice")

	gt.B(t, waitForCondition(3*time.Second, func() bool {
		alert, err := rig.repo.Alert().GetActive(ctx, testTenant, inc.ID)
		return err == nil && alert != nil
	})).True()

	alert, err := rig.engine.Acknowledge(ctx, testTenant, inc.ID, "alice")
	gt.NoError(t, err)
	gt.Value(t, alert.Status).Equal(types.AlertStatusAcknowledged)
	gt.Value(t, alert.AckedAt).NotNil()

	// No further pages after acknowledgment.
	time.Sleep(300 * time.Millisecond)
	gt.Array(t, rig.notifier.pagedResponders()).Equal([]string{"alice"})

	stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, stored.Acked()).True()
	gt.Value(t, stored.Status).Equal(types.IncidentStatusAcknowledged)
	gt.Value(t, countKind(stored, types.EventKindAcknowledged)).Equal(1)
	gt.Value(t, countKind(stored, types.EventKindStatusChanged)).Equal(1)
}

func TestAcknowledgeAfterTimeoutEscalation(t *testing.T) {
	rig := newTestRig(t, 100*time.Millisecond)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "alice")
	waitForPage(t, rig.notifier, "bob")

	gt.B(t, waitForCondition(3*time.Second, func() bool {
		alert, err := rig.repo.Alert().GetActive(ctx, testTenant, inc.ID)
		return err == nil && alert != nil && alert.StepIndex == 1
	})).True()

	// Acknowledging the second rung settles its alert and stops the chain
	// before the manager step fires.
	alert, err := rig.engine.Acknowledge(ctx, testTenant, inc.ID, "bob")
	gt.NoError(t, err)
	gt.Value(t, alert.StepIndex).Equal(1)
	gt.Value(t, alert.Status).Equal(types.AlertStatusAcknowledged)

	time.Sleep(300 * time.Millisecond)
	gt.Array(t, rig.notifier.pagedResponders()).Equal([]string{"alice", "bob"})

	stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.B(t, stored.Acked()).True()
	gt.Value(t, countKind(stored, types.EventKindEscalationExhausted)).Equal(0)

	alerts, err := rig.repo.Alert().ListByIncident(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, len(alerts)).Equal(2)
	gt.Value(t, alerts[0].Status).Equal(types.AlertStatusEscalated)
	gt.Value(t, alerts[1].Status).Equal(types.AlertStatusAcknowledged)
}

func TestAcknowledgeWithoutActiveAlert(t *testing.T) {
	rig := newTestRig(t, time.Hour)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	_, err := rig.engine.Acknowledge(ctx, testTenant, inc.ID, "alice")
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrNoActiveAlert)).True()
}

func TestExhaustionRecordedOnce(t *testing.T) {
	rig := newTestRig(t, 30*time.Millisecond)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "alice")
	waitForPage(t, rig.notifier, "bob")
	waitForPage(t, rig.notifier, "carol")

	gt.B(t, waitForCondition(3*time.Second, func() bool {
		stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
		return err == nil && countKind(stored, types.EventKindEscalationExhausted) == 1
	})).True()

	// A manual escalation after exhaustion must not duplicate the event.
	gt.NoError(t, rig.engine.EscalateNow(ctx, testTenant, inc.ID, model.EscalationReasonSLABreach))
	time.Sleep(200 * time.Millisecond)

	stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, countKind(stored, types.EventKindEscalationExhausted)).Equal(1)
	gt.Value(t, countKind(stored, types.EventKindEscalated)).Equal(2)

	// Superseded steps are kept as escalated; the unanswered last step fails.
	alerts, err := rig.repo.Alert().ListByIncident(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, len(alerts)).Equal(3)
	gt.Value(t, alerts[0].Status).Equal(types.AlertStatusEscalated)
	gt.Value(t, alerts[1].Status).Equal(types.AlertStatusEscalated)
	gt.Value(t, alerts[2].Status).Equal(types.AlertStatusFailed)
}

func TestChannelFailureAdvancesChain(t *testing.T) {
	rig := newTestRig(t, time.Hour)
	rig.notifier.failFor["alice"] = model.ErrChannelUnavailable
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "bob")

	gt.B(t, waitForCondition(3*time.Second, func() bool {
		alert, err := rig.repo.Alert().GetActive(ctx, testTenant, inc.ID)
		return err == nil && alert != nil && alert.Responder == "bob"
	})).True()

	alerts, err := rig.repo.Alert().ListByIncident(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, len(alerts)).Equal(2)
	gt.Value(t, alerts[0].Status).Equal(types.AlertStatusFailed)
	gt.B(t, alerts[0].RetryCount > 0).True()
}

func TestEscalateNowBypassesTimer(t *testing.T) {
	rig := newTestRig(t, time.Hour)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "alice")

	gt.B(t, waitForCondition(3*time.Second, func() bool {
		alert, err := rig.repo.Alert().GetActive(ctx, testTenant, inc.ID)
		return err == nil && alert != nil
	})).True()

	gt.NoError(t, rig.engine.EscalateNow(ctx, testTenant, inc.ID, model.EscalationReasonSLABreach))
	waitForPage(t, rig.notifier, "bob")

	stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	for _, ev := range stored.Timeline {
		if ev.Kind == types.EventKindEscalated {
			detail := ev.Detail.(model.EscalatedDetail)
			gt.Value(t, detail.Reason).Equal(model.EscalationReasonSLABreach)
		}
	}
}

func TestCancelSettlesActiveAlert(t *testing.T) {
	rig := newTestRig(t, 100*time.Millisecond)
	ctx := context.Background()
	inc := createIncident(t, rig.repo)

	gt.NoError(t, rig.engine.Trigger(ctx, inc))
	waitForPage(t, rig.notifier, "alice")

	gt.B(t, waitForCondition(3*time.Second, func() bool {
		alert, err := rig.repo.Alert().GetActive(ctx, testTenant, inc.ID)
		return err == nil && alert != nil
	})).True()

	// Settle the incident, then cancel. The in-flight timer must not page
	// anyone else.
	stored, err := rig.repo.Incident().Get(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	now := time.Now().UTC()
	stored.Status = types.IncidentStatusResolved
	stored.ResolvedAt = &now
	_, err = rig.repo.Incident().Update(ctx, testTenant, stored)
	gt.NoError(t, err)

	gt.NoError(t, rig.engine.Cancel(ctx, testTenant, inc.ID))

	time.Sleep(300 * time.Millisecond)
	gt.Array(t, rig.notifier.pagedResponders()).Equal([]string{"alice"})

	alerts, err := rig.repo.Alert().ListByIncident(ctx, testTenant, inc.ID)
	gt.NoError(t, err)
	gt.Value(t, len(alerts)).Equal(1)
	gt.Value(t, alerts[0].Status).Equal(types.AlertStatusResolved)
}

func waitForCondition(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
