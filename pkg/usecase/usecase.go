package usecase

import (
	"errors"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/repository/firestore"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/repository/memory"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/scheduler"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/lock"
)

type UseCases struct {
	repo      interfaces.Repository
	slaConfig *model.SLAConfig
	clock     interfaces.Clock
	locks     *lock.Keyed
	exporter  interfaces.AuditExporter
	sched     *scheduler.Scheduler

	Incident   *IncidentUseCase
	Postmortem *PostmortemUseCase
	Stats      *StatsUseCase
}

type Option func(*UseCases)

// WithSLAConfig replaces the default SLA table
func WithSLAConfig(cfg *model.SLAConfig) Option {
	return func(uc *UseCases) {
		uc.slaConfig = cfg
	}
}

// WithClock replaces the time source
func WithClock(clock interfaces.Clock) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

// WithLocks shares a keyed lock set with the pager. Both sides must use the
// same set so incident mutations and escalation timers serialize.
func WithLocks(locks *lock.Keyed) Option {
	return func(uc *UseCases) {
		uc.locks = locks
	}
}

// WithAuditExporter enables audit snapshot export on incident resolution
func WithAuditExporter(exporter interfaces.AuditExporter) Option {
	return func(uc *UseCases) {
		uc.exporter = exporter
	}
}

// WithScheduler arms per-incident SLA deadline timers on the given scheduler.
// Without one, SLA breaches are caught only by the periodic sweep worker.
func WithScheduler(sched *scheduler.Scheduler) Option {
	return func(uc *UseCases) {
		uc.sched = sched
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		slaConfig: model.DefaultSLAConfig(),
		clock:     scheduler.RealClock{},
		locks:     lock.NewKeyed(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Incident = NewIncidentUseCase(repo, uc.slaConfig, uc.locks, uc.clock, uc.exporter, uc.sched)
	uc.Postmortem = NewPostmortemUseCase(repo, uc.locks, uc.clock)
	uc.Stats = NewStatsUseCase(repo)

	return uc
}

// SetPager wires the escalation engine in after construction. The pager needs
// the same repository and lock set, so both sides are built first and joined
// here.
func (uc *UseCases) SetPager(p interfaces.Pager) {
	uc.Incident.SetPager(p)
}

// Locks exposes the shared keyed lock set for pager construction
func (uc *UseCases) Locks() *lock.Keyed {
	return uc.locks
}

func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}
