package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/repository/memory"
)

func newIncident(title string) *model.Incident {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return &model.Incident{
		Title:           title,
		Category:        types.CategorySecurity,
		Priority:        types.PriorityP2,
		Status:          types.IncidentStatusNew,
		CreatedAt:       now,
		AckDeadline:     now.Add(30 * time.Minute),
		ResolveDeadline: now.Add(8 * time.Hour),
		Timeline: []model.TimelineEvent{
			{
				Timestamp: now,
				Actor:     "alice",
				Kind:      types.EventKindCreated,
				Detail: model.CreatedDetail{
					Title:    title,
					Priority: types.PriorityP2,
					Category: types.CategorySecurity,
				},
			},
		},
	}
}

func TestIncidentIDsAreSequentialPerTenant(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	a1, err := repo.Incident().Create(ctx, "tenant-a", newIncident("first"))
	gt.NoError(t, err)
	a2, err := repo.Incident().Create(ctx, "tenant-a", newIncident("second"))
	gt.NoError(t, err)
	b1, err := repo.Incident().Create(ctx, "tenant-b", newIncident("other"))
	gt.NoError(t, err)

	gt.Value(t, a1.ID).Equal(types.IncidentID(1))
	gt.Value(t, a2.ID).Equal(types.IncidentID(2))
	gt.Value(t, b1.ID).Equal(types.IncidentID(1))
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	inc, err := repo.Incident().Create(ctx, "tenant-a", newIncident("secret"))
	gt.NoError(t, err)

	_, err = repo.Incident().Get(ctx, "tenant-b", inc.ID)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, memory.ErrNotFound)).True()

	list, err := repo.Incident().List(ctx, "tenant-b")
	gt.NoError(t, err)
	gt.Value(t, len(list)).Equal(0)
}

func TestUpdateRejectsTimelineTruncation(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	inc, err := repo.Incident().Create(ctx, "tenant-a", newIncident("guarded"))
	gt.NoError(t, err)

	inc.Append(model.TimelineEvent{
		Timestamp: time.Now().UTC(),
		Actor:     "alice",
		Kind:      types.EventKindComment,
		Detail:    model.CommentDetail{Body: "note"},
	})
	updated, err := repo.Incident().Update(ctx, "tenant-a", inc)
	gt.NoError(t, err)
	gt.Value(t, len(updated.Timeline)).Equal(2)

	truncated := updated.Clone()
	truncated.Timeline = truncated.Timeline[:1]
	_, err = repo.Incident().Update(ctx, "tenant-a", truncated)
	gt.Error(t, err)
}

func TestStoredIncidentIsIsolatedFromCaller(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	inc, err := repo.Incident().Create(ctx, "tenant-a", newIncident("isolated"))
	gt.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	inc.Title = "mutated"
	inc.Timeline[0].Detail = model.CommentDetail{Body: "tampered"}

	stored, err := repo.Incident().Get(ctx, "tenant-a", inc.ID)
	gt.NoError(t, err)
	gt.Value(t, stored.Title).Equal("isolated")
	gt.Value(t, stored.Timeline[0].Kind).Equal(types.EventKindCreated)
}

func TestListOpenExcludesSettled(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	open, err := repo.Incident().Create(ctx, "tenant-a", newIncident("open"))
	gt.NoError(t, err)

	resolved := newIncident("resolved")
	resolved.Status = types.IncidentStatusResolved
	_, err = repo.Incident().Create(ctx, "tenant-a", resolved)
	gt.NoError(t, err)

	list, err := repo.Incident().ListOpen(ctx, "tenant-a")
	gt.NoError(t, err)
	gt.Value(t, len(list)).Equal(1)
	gt.Value(t, list[0].ID).Equal(open.ID)
}

func TestTenantsListsKnownTenants(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := repo.Incident().Create(ctx, "tenant-b", newIncident("b"))
	gt.NoError(t, err)
	_, err = repo.Incident().Create(ctx, "tenant-a", newIncident("a"))
	gt.NoError(t, err)

	tenants, err := repo.Incident().Tenants(ctx)
	gt.NoError(t, err)
	gt.Array(t, tenants).Equal([]types.TenantID{"tenant-a", "tenant-b"})
}

func TestAlertGetActive(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	inc, err := repo.Incident().Create(ctx, "tenant-a", newIncident("paged"))
	gt.NoError(t, err)

	// No alerts yet.
	active, err := repo.Alert().GetActive(ctx, "tenant-a", inc.ID)
	gt.NoError(t, err)
	gt.Value(t, active).Nil()

	first, err := repo.Alert().Create(ctx, "tenant-a", &model.PagerAlert{
		IncidentID: inc.ID,
		PolicyID:   "default",
		StepIndex:  0,
		Responder:  "alice",
		Role:       "primary",
		Channel:    types.ChannelSlack,
		Status:     types.AlertStatusPending,
		SentAt:     time.Now().UTC(),
	})
	gt.NoError(t, err)

	active, err = repo.Alert().GetActive(ctx, "tenant-a", inc.ID)
	gt.NoError(t, err)
	gt.Value(t, active).NotNil().Required()
	gt.Value(t, active.ID).Equal(first.ID)

	// Escalated alerts are no longer active.
	first.Status = types.AlertStatusEscalated
	_, err = repo.Alert().Update(ctx, "tenant-a", first)
	gt.NoError(t, err)

	active, err = repo.Alert().GetActive(ctx, "tenant-a", inc.ID)
	gt.NoError(t, err)
	gt.Value(t, active).Nil()
}

func TestAlertListByIncidentOrdered(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	inc, err := repo.Incident().Create(ctx, "tenant-a", newIncident("chain"))
	gt.NoError(t, err)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for step := 2; step >= 0; step-- {
		_, err := repo.Alert().Create(ctx, "tenant-a", &model.PagerAlert{
			IncidentID: inc.ID,
			PolicyID:   "default",
			StepIndex:  step,
			Responder:  "r",
			Role:       "primary",
			Channel:    types.ChannelSlack,
			Status:     types.AlertStatusEscalated,
			SentAt:     base.Add(time.Duration(step) * time.Minute),
		})
		gt.NoError(t, err)
	}

	alerts, err := repo.Alert().ListByIncident(ctx, "tenant-a", inc.ID)
	gt.NoError(t, err)
	gt.Value(t, len(alerts)).Equal(3)
	for i, alert := range alerts {
		gt.Value(t, alert.StepIndex).Equal(i)
	}
}

func TestPostmortemUniquePerIncident(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	pm := &model.Postmortem{
		ID:         types.NewPostmortemID(),
		IncidentID: 1,
		Sections:   []model.PostmortemSection{{Title: "Summary", Body: "short"}},
		CreatedAt:  time.Now().UTC(),
	}
	created, err := repo.Postmortem().Create(ctx, "tenant-a", pm)
	gt.NoError(t, err)
	gt.Value(t, created.TenantID).Equal(types.TenantID("tenant-a"))

	dup := &model.Postmortem{
		ID:         types.NewPostmortemID(),
		IncidentID: 1,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = repo.Postmortem().Create(ctx, "tenant-a", dup)
	gt.Error(t, err)

	got, err := repo.Postmortem().GetByIncident(ctx, "tenant-a", 1)
	gt.NoError(t, err)
	gt.Value(t, got.ID).Equal(created.ID)

	_, err = repo.Postmortem().GetByIncident(ctx, "tenant-b", 1)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, memory.ErrNotFound)).True()
}
