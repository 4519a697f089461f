package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	// SubscriptionStatusReady is the only terminal status; every renewal
	// invocation that completes normally settles here.
	SubscriptionStatusReady SubscriptionStatus = "ready"
	// SubscriptionStatusInProgress is the durable busy marker held for
	// the duration of exactly one renewal workflow.
	SubscriptionStatusInProgress SubscriptionStatus = "in_progress"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	// ErrRenewalInProgress is the normal concurrency outcome when a
	// second invocation hits a locked subscription; no write happened.
	ErrRenewalInProgress = errors.New("renewal_in_progress")
)

type Subscription struct {
	ID        snowflake.ID       `json:"id" gorm:"primaryKey"`
	AccountID snowflake.ID       `json:"account_id" gorm:"not null;uniqueIndex"`
	Status    SubscriptionStatus `json:"status" gorm:"type:text;not null;default:ready"`
	CreatedAt time.Time          `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time          `json:"updated_at" gorm:"not null"`
}

func (Subscription) TableName() string { return "subscriptions" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status SubscriptionStatus, at time.Time) error
	ListStuckSince(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*Subscription, error)
}

type Service interface {
	// Acquire takes the per-subscription renewal lease: one transaction
	// reads the row under an exclusive lock and flips it to in_progress.
	// Returns ErrRenewalInProgress, with no write, when already held.
	Acquire(ctx context.Context, id snowflake.ID) error
	// Settle writes the terminal status, releasing the lease. Every
	// non-fatal orchestrator exit path must end here.
	Settle(ctx context.Context, id snowflake.ID, status SubscriptionStatus) error
	FindByAccountID(ctx context.Context, accountID snowflake.ID) (*Subscription, error)
}
