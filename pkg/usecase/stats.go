package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// StatsUseCase computes read-only aggregations over one tenant's incidents
type StatsUseCase struct {
	repo interfaces.Repository
}

func NewStatsUseCase(repo interfaces.Repository) *StatsUseCase {
	return &StatsUseCase{repo: repo}
}

// Stats aggregates the tenant's incidents by status, priority and category,
// and counts recorded SLA breaches.
func (uc *StatsUseCase) Stats(ctx context.Context, tenant types.TenantID) (*model.IncidentStats, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	incidents, err := uc.repo.Incident().List(ctx, tenant)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list incidents", goerr.V(TenantIDKey, tenant))
	}

	stats := model.NewIncidentStats()
	for _, inc := range incidents {
		stats.Total++
		stats.ByStatus[inc.Status]++
		stats.ByPriority[inc.Priority]++
		stats.ByCategory[inc.Category]++

		for _, ev := range inc.Timeline {
			if ev.Kind != types.EventKindSLABreach {
				continue
			}
			if detail, ok := ev.Detail.(model.SLABreachDetail); ok {
				switch detail.Breach {
				case model.SLAKindAck:
					stats.AckBreaches++
				case model.SLAKindResolve:
					stats.ResolveBreaches++
				}
			}
		}
	}

	return stats, nil
}
