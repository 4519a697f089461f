package scheduler

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contenivelabs/renewal/internal/clock"
	"github.com/contenivelabs/renewal/internal/config"
	plandomain "github.com/contenivelabs/renewal/internal/plan/domain"
	"github.com/contenivelabs/renewal/internal/queue"
	subscriptiondomain "github.com/contenivelabs/renewal/internal/subscription/domain"
)

type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	cfg   config.SchedulerConfig

	planRepo  plandomain.Repository
	subRepo   subscriptiondomain.Repository
	publisher *queue.Publisher
}

type Param struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Cfg   config.Config

	PlanRepo  plandomain.Repository
	SubRepo   subscriptiondomain.Repository
	Publisher *queue.Publisher
}

func New(p Param) *Scheduler {
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("scheduler"),
		clock: p.Clock,
		cfg:   p.Cfg.Scheduler,

		planRepo:  p.PlanRepo,
		subRepo:   p.SubRepo,
		publisher: p.Publisher,
	}
}

// RunForever ticks until ctx is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.EnqueueExpiredPlans(ctx); err != nil {
		s.log.Error("enqueue expired plans failed", zap.Error(err))
	}
	if err := s.ReportStuckSubscriptions(ctx); err != nil {
		s.log.Error("stuck subscription report failed", zap.Error(err))
	}
}

// EnqueueExpiredPlans hands lapsed plans to the renewal queue and marks
// them expired. The push happens first: a plan marked expired leaves
// the sweep's view forever, so failing after the mark would lose the
// renewal, while failing after the push only risks a duplicate
// delivery, which the subscription lock and the charge idempotency key
// absorb.
func (s *Scheduler) EnqueueExpiredPlans(ctx context.Context) error {
	now := s.clock.Now(ctx)
	plans, err := s.planRepo.ListDueForExpiry(ctx, s.db, now, s.cfg.ExpireBatchSize)
	if err != nil {
		return err
	}

	for _, plan := range plans {
		if err := s.publisher.Enqueue(ctx, plan.ID); err != nil {
			return err
		}
		if err := s.planRepo.MarkExpired(ctx, s.db, plan.ID, now); err != nil {
			return err
		}
		s.log.Info("expired plan enqueued",
			zap.String("plan_id", plan.ID.String()),
			zap.String("account_id", plan.AccountID.String()),
		)
	}
	return nil
}

// ReportStuckSubscriptions surfaces leases held past the threshold,
// which means a worker died between acquire and settle. Report only:
// releasing the lease automatically would hide whatever killed the
// worker mid-charge.
func (s *Scheduler) ReportStuckSubscriptions(ctx context.Context) error {
	cutoff := s.clock.Now(ctx).Add(-s.cfg.StuckLockThreshold)
	stuck, err := s.subRepo.ListStuckSince(ctx, s.db, cutoff)
	if err != nil {
		return err
	}

	for _, sub := range stuck {
		s.log.Error("subscription stuck in_progress",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("account_id", sub.AccountID.String()),
			zap.Time("locked_since", sub.UpdatedAt),
		)
	}
	return nil
}
