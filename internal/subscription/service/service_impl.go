package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contenivelabs/renewal/internal/clock"
	subscriptiondomain "github.com/contenivelabs/renewal/internal/subscription/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  subscriptiondomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  subscriptiondomain.Repository
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Acquire couples the row lock with the durable in_progress marker: the
// exclusive read and the status write commit together or not at all.
// When the row is already in_progress the transaction rolls back without
// touching it, so the holder's eventual settlement is never masked.
func (s *Service) Acquire(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		if subscription.Status == subscriptiondomain.SubscriptionStatusInProgress {
			return subscriptiondomain.ErrRenewalInProgress
		}

		return s.repo.UpdateStatus(ctx, tx, id, subscriptiondomain.SubscriptionStatusInProgress, s.clock.Now(ctx))
	})
}

func (s *Service) Settle(ctx context.Context, id snowflake.ID, status subscriptiondomain.SubscriptionStatus) error {
	if err := s.repo.UpdateStatus(ctx, s.db, id, status, s.clock.Now(ctx)); err != nil {
		return err
	}
	s.log.Info("subscription settled",
		zap.String("subscription_id", id.String()),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *Service) FindByAccountID(ctx context.Context, accountID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return s.repo.FindByAccountID(ctx, s.db, accountID)
}
