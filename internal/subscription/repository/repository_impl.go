package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	subscriptiondomain "github.com/contenivelabs/renewal/internal/subscription/domain"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

const subscriptionColumns = `id, account_id, status, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?)`,
		s.ID,
		s.AccountID,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var s subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var s subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE account_id = ?`,
		accountID,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var s subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", id).
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status subscriptiondomain.SubscriptionStatus, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		id,
	).Error
}

func (r *repo) ListStuckSince(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*subscriptiondomain.Subscription, error) {
	var items []*subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE status = ? AND updated_at <= ?
		 ORDER BY updated_at ASC`,
		subscriptiondomain.SubscriptionStatusInProgress,
		cutoff,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
