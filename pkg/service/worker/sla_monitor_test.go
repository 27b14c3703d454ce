package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/repository/memory"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/worker"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/usecase"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func TestSweepRecordsBreachesAcrossTenants(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	uc := usecase.New(repo, usecase.WithClock(clock))

	tenants := []types.TenantID{"tenant-a", "tenant-b"}
	var ids []types.IncidentID
	for _, tenant := range tenants {
		inc, err := uc.Incident.Create(ctx, tenant, usecase.CreateIncidentInput{
			Title:    "disk pressure",
			Category: types.CategoryInfrastructure,
			Priority: types.PriorityP1,
		})
		gt.NoError(t, err)
		ids = append(ids, inc.ID)
	}

	w := worker.NewSLAMonitorWorker(repo, uc.Incident, time.Minute)

	// Before any deadline passes, a sweep records nothing.
	gt.NoError(t, w.Sweep(ctx))
	for i, tenant := range tenants {
		inc, err := uc.Incident.Get(ctx, tenant, ids[i])
		gt.NoError(t, err)
		gt.Value(t, len(inc.Timeline)).Equal(1)
	}

	clock.Advance(20 * time.Minute)
	gt.NoError(t, w.Sweep(ctx))

	for i, tenant := range tenants {
		inc, err := uc.Incident.Get(ctx, tenant, ids[i])
		gt.NoError(t, err)
		breaches := 0
		for _, ev := range inc.Timeline {
			if ev.Kind == types.EventKindSLABreach {
				breaches++
			}
		}
		gt.Value(t, breaches).Equal(1)
	}

	// The sweep is idempotent.
	gt.NoError(t, w.Sweep(ctx))
	for i, tenant := range tenants {
		inc, err := uc.Incident.Get(ctx, tenant, ids[i])
		gt.NoError(t, err)
		breaches := 0
		for _, ev := range inc.Timeline {
			if ev.Kind == types.EventKindSLABreach {
				breaches++
			}
		}
		gt.Value(t, breaches).Equal(1)
	}
}

func TestWorkerStartStop(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	w := worker.NewSLAMonitorWorker(repo, uc.Incident, 10*time.Millisecond)

	gt.NoError(t, w.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	w.Stop()
}
