package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type PlanStatus string

const (
	PlanStatusNew      PlanStatus = "new"
	PlanStatusPaid     PlanStatus = "paid"
	PlanStatusProgress PlanStatus = "progress"
	PlanStatusDone     PlanStatus = "done"
	PlanStatusExpired  PlanStatus = "expired"
)

var (
	ErrPlanNotFound = errors.New("plan_not_found")
	// ErrNextPlanNotFound means a plan expired with no successor
	// provisioned, which is a data-integrity defect, not a skip.
	ErrNextPlanNotFound = errors.New("next_plan_not_found")
)

// ContentPlan is one billing cycle for an account. Plan ids are
// monotonic, so the successor of a plan is the lowest id greater than
// its own for the same account.
type ContentPlan struct {
	ID          snowflake.ID  `json:"id" gorm:"primaryKey"`
	AccountID   snowflake.ID  `json:"account_id" gorm:"not null;index"`
	NumAccounts int           `json:"num_accounts" gorm:"not null;default:0"`
	Status      PlanStatus    `json:"status" gorm:"type:text;not null;default:new"`
	PaymentID   *snowflake.ID `json:"payment_id"`
	ExpiresAt   *time.Time    `json:"expires_at"`
	CreatedAt   time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"not null"`
}

func (ContentPlan) TableName() string { return "content_plans" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *ContentPlan) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ContentPlan, error)
	// FindNext returns the account's plan with the lowest id strictly
	// greater than current's, or nil when none exists.
	FindNext(ctx context.Context, db *gorm.DB, current *ContentPlan) (*ContentPlan, error)
	UpdateSettings(ctx context.Context, db *gorm.DB, plan *ContentPlan) error
	ListDueForExpiry(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]*ContentPlan, error)
	MarkExpired(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}

type Service interface {
	// Create provisions the next billing cycle with status "new",
	// carrying over the entitlement and linking the payment that bought it.
	Create(ctx context.Context, accountID snowflake.ID, numAccounts int, paymentID snowflake.ID) (*ContentPlan, error)
	// AdoptSettings copies the expiring plan's configuration onto the
	// already-paid successor.
	AdoptSettings(ctx context.Context, next, current *ContentPlan) error
}
