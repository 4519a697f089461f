package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/contenivelabs/renewal/internal/account/domain"
	paymentdomain "github.com/contenivelabs/renewal/internal/payment/domain"
	plandomain "github.com/contenivelabs/renewal/internal/plan/domain"
	renewaldomain "github.com/contenivelabs/renewal/internal/renewal/domain"
	subscriptiondomain "github.com/contenivelabs/renewal/internal/subscription/domain"
)

const (
	outcomeBusy     = "busy"
	outcomeDeclined = "declined"
	outcomeFatal    = "fatal"
	outcomeSettled  = "settled"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	planRepo    plandomain.Repository
	planSvc     plandomain.Service
	accountRepo accountdomain.Repository
	subSvc      subscriptiondomain.Service
	charger     paymentdomain.Charger
	metrics     *Metrics
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger

	PlanRepo    plandomain.Repository
	PlanSvc     plandomain.Service
	AccountRepo accountdomain.Repository
	SubSvc      subscriptiondomain.Service
	Charger     paymentdomain.Charger
	Metrics     *Metrics
}

func NewService(p ServiceParam) renewaldomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("renewal.service"),

		planRepo:    p.PlanRepo,
		planSvc:     p.PlanSvc,
		accountRepo: p.AccountRepo,
		subSvc:      p.SubSvc,
		charger:     p.Charger,
		metrics:     p.Metrics,
	}
}

// Expire runs one renewal workflow: lock the account's subscription,
// branch on the successor plan, charge when autorenew demands it, and
// settle the subscription to ready on every business outcome. Fatal
// lookup errors propagate with the lease still held; releasing it there
// would paper over broken data.
func (s *Service) Expire(ctx context.Context, planID snowflake.ID) error {
	plan, err := s.planRepo.FindByID(ctx, s.db, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return plandomain.ErrPlanNotFound
	}

	sub, err := s.subSvc.FindByAccountID(ctx, plan.AccountID)
	if err != nil {
		return err
	}
	if sub == nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}

	if err := s.subSvc.Acquire(ctx, sub.ID); err != nil {
		if errors.Is(err, subscriptiondomain.ErrRenewalInProgress) {
			s.log.Warn("renewal already in progress",
				zap.String("plan_id", planID.String()),
				zap.String("subscription_id", sub.ID.String()),
				zap.String("account_id", plan.AccountID.String()),
			)
			s.metrics.Observe(outcomeBusy, "")
		}
		return err
	}

	next, err := s.planRepo.FindNext(ctx, s.db, plan)
	if err != nil {
		return s.fatal(planID, sub.ID, err)
	}
	if next == nil {
		return s.fatal(planID, sub.ID, fmt.Errorf("%w: plan %s", plandomain.ErrNextPlanNotFound, planID))
	}

	autorenew := false
	if renewaldomain.NeedsAutorenewPreference(next.Status) {
		autorenew, err = s.accountRepo.AutorenewEnabled(ctx, s.db, plan.AccountID)
		if err != nil {
			return s.fatal(planID, sub.ID, err)
		}
	}
	decision := renewaldomain.Decide(next.Status, autorenew)

	switch decision {
	case renewaldomain.DecisionHold:
		// Another path already advanced the successor; settle the
		// subscription owning the *next* plan and stop.
		nextSub, err := s.subSvc.FindByAccountID(ctx, next.AccountID)
		if err != nil {
			return s.fatal(planID, sub.ID, err)
		}
		if nextSub == nil {
			return s.fatal(planID, sub.ID, subscriptiondomain.ErrSubscriptionNotFound)
		}
		return s.settle(ctx, planID, nextSub.ID, decision)

	case renewaldomain.DecisionAdoptNext:
		if err := s.planSvc.AdoptSettings(ctx, next, plan); err != nil {
			return s.fatal(planID, sub.ID, err)
		}
		return s.settle(ctx, planID, sub.ID, decision)

	case renewaldomain.DecisionSkipAutorenew:
		return s.settle(ctx, planID, sub.ID, decision)

	case renewaldomain.DecisionPurchase:
		payment, err := s.charger.Charge(ctx, plan.AccountID, plan.ID)
		if err != nil {
			if errors.Is(err, paymentdomain.ErrCardDeclined) {
				s.log.Warn("renewal charge declined",
					zap.String("plan_id", planID.String()),
					zap.String("account_id", plan.AccountID.String()),
				)
				s.metrics.Observe(outcomeDeclined, "")
				return s.subSvc.Settle(ctx, sub.ID, subscriptiondomain.SubscriptionStatusReady)
			}
			return s.fatal(planID, sub.ID, err)
		}

		if _, err := s.planSvc.Create(ctx, plan.AccountID, plan.NumAccounts, payment.ID); err != nil {
			return s.fatal(planID, sub.ID, err)
		}
		return s.settle(ctx, planID, sub.ID, decision)

	default:
		return s.fatal(planID, sub.ID, fmt.Errorf("unknown renewal decision %q", decision))
	}
}

func (s *Service) settle(ctx context.Context, planID, subscriptionID snowflake.ID, decision renewaldomain.Decision) error {
	if err := s.subSvc.Settle(ctx, subscriptionID, subscriptiondomain.SubscriptionStatusReady); err != nil {
		return s.fatal(planID, subscriptionID, err)
	}
	s.log.Info("renewal settled",
		zap.String("plan_id", planID.String()),
		zap.String("subscription_id", subscriptionID.String()),
		zap.String("decision", string(decision)),
	)
	s.metrics.Observe(outcomeSettled, string(decision))
	return nil
}

// fatal logs and counts the outcome but does not settle: the
// subscription stays in_progress for the operator or the stuck-lock
// report to pick up.
func (s *Service) fatal(planID, subscriptionID snowflake.ID, err error) error {
	s.log.Error("renewal failed, subscription left locked",
		zap.String("plan_id", planID.String()),
		zap.String("subscription_id", subscriptionID.String()),
		zap.Error(err),
	)
	s.metrics.Observe(outcomeFatal, "")
	return err
}
