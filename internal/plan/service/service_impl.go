package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contenivelabs/renewal/internal/clock"
	plandomain "github.com/contenivelabs/renewal/internal/plan/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  plandomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  plandomain.Repository
}

func NewService(p ServiceParam) plandomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, accountID snowflake.ID, numAccounts int, paymentID snowflake.ID) (*plandomain.ContentPlan, error) {
	now := s.clock.Now(ctx)
	plan := &plandomain.ContentPlan{
		ID:          s.genID.Generate(),
		AccountID:   accountID,
		NumAccounts: numAccounts,
		Status:      plandomain.PlanStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if paymentID != 0 {
		plan.PaymentID = &paymentID
	}

	if err := s.repo.Insert(ctx, s.db, plan); err != nil {
		return nil, err
	}

	s.log.Info("content plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("account_id", accountID.String()),
		zap.Int("num_accounts", numAccounts),
	)
	return plan, nil
}

func (s *Service) AdoptSettings(ctx context.Context, next, current *plandomain.ContentPlan) error {
	next.NumAccounts = current.NumAccounts
	next.UpdatedAt = s.clock.Now(ctx)
	return s.repo.UpdateSettings(ctx, s.db, next)
}
