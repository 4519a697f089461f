package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	plandomain "github.com/contenivelabs/renewal/internal/plan/domain"
)

type repo struct{}

func Provide() plandomain.Repository {
	return &repo{}
}

const planColumns = `id, account_id, num_accounts, status, payment_id, expires_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *plandomain.ContentPlan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO content_plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.AccountID,
		p.NumAccounts,
		p.Status,
		p.PaymentID,
		p.ExpiresAt,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*plandomain.ContentPlan, error) {
	var p plandomain.ContentPlan
	err := db.WithContext(ctx).Raw(
		`SELECT `+planColumns+` FROM content_plans WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindNext(ctx context.Context, db *gorm.DB, current *plandomain.ContentPlan) (*plandomain.ContentPlan, error) {
	var p plandomain.ContentPlan
	err := db.WithContext(ctx).Raw(
		`SELECT `+planColumns+` FROM content_plans
		 WHERE account_id = ? AND id > ?
		 ORDER BY id ASC LIMIT 1`,
		current.AccountID,
		current.ID,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) UpdateSettings(ctx context.Context, db *gorm.DB, p *plandomain.ContentPlan) error {
	return db.WithContext(ctx).Exec(
		`UPDATE content_plans SET num_accounts = ?, status = ?, updated_at = ? WHERE id = ?`,
		p.NumAccounts,
		p.Status,
		p.UpdatedAt,
		p.ID,
	).Error
}

func (r *repo) ListDueForExpiry(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]*plandomain.ContentPlan, error) {
	var items []*plandomain.ContentPlan
	err := db.WithContext(ctx).Raw(
		`SELECT `+planColumns+` FROM content_plans
		 WHERE status = ? AND expires_at IS NOT NULL AND expires_at <= ?
		 ORDER BY expires_at ASC LIMIT ?`,
		plandomain.PlanStatusProgress,
		cutoff,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkExpired(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE content_plans SET status = ?, updated_at = ? WHERE id = ?`,
		plandomain.PlanStatusExpired,
		at,
		id,
	).Error
}
